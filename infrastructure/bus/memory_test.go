package bus

import (
	"context"
	"log/slog"
	"planning-poker/errors"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case msg, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return msg
	case <-time.After(time.Second):
		require.Fail(t, "no message received")
		return nil
	}
}

func TestMemoryBus_Publish_Reaches_Every_Subscriber(t *testing.T) {
	req := require.New(t)
	b := NewMemoryBus(logs.GetLoggerFromLevel(slog.LevelDebug), 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Given two subscribers on the topic and one elsewhere
	first, err := b.Subscribe(ctx, "poker")
	req.NoError(err)
	second, err := b.Subscribe(ctx, "poker")
	req.NoError(err)
	other, err := b.Subscribe(ctx, "other")
	req.NoError(err)

	// When a message is published
	req.NoError(b.Publish(ctx, "poker", []byte("hello")))

	// Then both topic subscribers receive it
	req.Equal([]byte("hello"), receive(t, first))
	req.Equal([]byte("hello"), receive(t, second))
	select {
	case <-other:
		req.Fail("message leaked to another topic")
	default:
	}
}

func TestMemoryBus_Full_Subscriber_Is_Closed(t *testing.T) {
	req := require.New(t)
	b := NewMemoryBus(slog.Default(), 1)
	ctx := context.Background()

	// Given a slow subscriber and a fast one
	slow, err := b.Subscribe(ctx, "poker")
	req.NoError(err)
	fast, err := b.Subscribe(ctx, "poker")
	req.NoError(err)

	// When the slow one cannot take the second message
	req.NoError(b.Publish(ctx, "poker", []byte("1")))
	req.Equal([]byte("1"), receive(t, fast))
	req.NoError(b.Publish(ctx, "poker", []byte("2")))

	// Then its subscription ends after the queued message instead of skipping one
	req.Equal([]byte("1"), receive(t, slow))
	_, ok := <-slow
	req.False(ok)
	req.Equal([]byte("2"), receive(t, fast))
	req.Equal(1, b.Subscribers("poker"))
}

func TestMemoryBus_Unsubscribe_On_Context_Done(t *testing.T) {
	req := require.New(t)
	b := NewMemoryBus(slog.Default(), 1)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, "poker")
	req.NoError(err)
	req.Equal(1, b.Subscribers("poker"))

	// When the subscriber goes away
	cancel()

	// Then its channel is closed
	select {
	case _, ok := <-ch:
		req.False(ok)
	case <-time.After(time.Second):
		req.Fail("channel not closed")
	}
	req.Equal(0, b.Subscribers("poker"))
}

func TestMemoryBus_Closed(t *testing.T) {
	req := require.New(t)
	b := NewMemoryBus(slog.Default(), 1)

	ch, err := b.Subscribe(context.Background(), "poker")
	req.NoError(err)
	req.NoError(b.Close())
	req.NoError(b.Close())

	_, ok := <-ch
	req.False(ok)
	req.ErrorIs(b.Publish(context.Background(), "poker", nil), errors.ErrBusUnavailable)
	_, err = b.Subscribe(context.Background(), "poker")
	req.ErrorIs(err, errors.ErrBusUnavailable)
}
