package workers

import (
	"log/slog"
	"planning-poker/domain"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestChannelCapacityWorker_Sample(t *testing.T) {
	req := require.New(t)
	outbound := make(chan domain.Event, 4)
	idle := make(chan []byte, 4)

	// Given the outbound channel is three quarters full
	for seq := uint64(1); seq <= 3; seq++ {
		outbound <- joinedEvent(seq)
	}

	worker := NewChannelCapacityWorker(logs.GetLoggerFromLevel(slog.LevelDebug), []NamedChannel{
		{Name: "outbound", Channel: outbound},
		{Name: "bus", Channel: idle},
		{Name: "not a channel", Channel: 42},
	}, 0.75, time.Second)

	// Then only the outbound channel is reported
	req.Equal([]string{"outbound"}, worker.Sample())
}
