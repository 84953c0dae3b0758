package workers

import (
	"context"
	"fmt"
	"log/slog"
	"planning-poker/domain"
	"planning-poker/mocks"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func joinedEvent(seq uint64) domain.Event {
	return domain.Event{Session: "Sprint 7", Node: "node-a", Seq: seq, At: time.Now().UTC(),
		Payload: domain.ParticipantJoined{Name: "Ana", Role: domain.Facilitator, Node: "node-a"}}
}

func TestEventFanout_Delivers_To_Every_Sink(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	sink1 := mocks.NewMockEventSink(ctrl)
	sink2 := mocks.NewMockEventSink(ctrl)
	evt := joinedEvent(1)

	// Given both sinks expect the event
	sink1.EXPECT().Consume(gomock.Any(), evt).Return(nil)
	sink2.EXPECT().Consume(gomock.Any(), evt).Return(nil)

	fanout := NewEventFanout(log, nil, time.Second, sink1, sink2)

	// When it is handled
	fanout.Fanout(context.Background(), evt)
}

func TestEventFanout_Failing_Sink_Does_Not_Block_Others(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	slow := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)

	// Given a sink waiting for its deadline
	slow.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ domain.Event) error {
			<-ctx.Done()
			return fmt.Errorf("bus unreachable: %w", ctx.Err())
		})
	healthy.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil)

	fanout := NewEventFanout(log, nil, 20*time.Millisecond, slow, healthy)

	// Then the next sink still gets the event
	fanout.Fanout(context.Background(), joinedEvent(1))
}

func TestEventFanout_Run_Keeps_Order(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockEventSink(ctrl)
	events := make(chan domain.Event, 3)
	received := make(chan uint64, 3)

	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evt domain.Event) error {
			received <- evt.Seq
			return nil
		}).Times(3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewEventFanout(log, events, time.Second, sink).Run(ctx) }()

	// When three events are produced
	for seq := uint64(1); seq <= 3; seq++ {
		events <- joinedEvent(seq)
	}

	// Then they are consumed in production order
	for want := uint64(1); want <= 3; want++ {
		select {
		case got := <-received:
			req.Equal(want, got)
		case <-time.After(time.Second):
			req.Fail("event not consumed")
		}
	}
}
