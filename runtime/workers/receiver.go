package workers

import (
	"context"
	"log/slog"
	"planning-poker/contract"
	"planning-poker/errors"
	"sync"
	"sync/atomic"
)

// Receiver subscribes to the bus topic and hands every message to the handler.
// A lost subscription ends Run with an error so the supervisor resubscribes; every
// subscription after the first asks the handler to resync.
type Receiver struct {
	log     *slog.Logger
	bus     contract.IBus
	topic   string
	handler contract.IRemoteHandler

	readyOnce  sync.Once
	ready      chan struct{}
	subscribed atomic.Bool
}

func NewReceiver(log *slog.Logger, bus contract.IBus, topic string, handler contract.IRemoteHandler) *Receiver {
	return &Receiver{log: log, bus: bus, topic: topic, handler: handler, ready: make(chan struct{})}
}

// Ready is closed once the first subscription is open.
func (w *Receiver) Ready() <-chan struct{} {
	return w.ready
}

func (w *Receiver) Run(ctx context.Context) error {
	messages, err := w.bus.Subscribe(ctx, w.topic)
	if err != nil {
		return err
	}
	w.readyOnce.Do(func() { close(w.ready) })
	if w.subscribed.Swap(true) {
		w.log.Info("Resubscribed to bus", "topic", w.topic)
		w.handler.Resync(ctx)
	} else {
		w.log.Info("Subscribed to bus", "topic", w.topic)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case payload, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.ErrSubscriptionClosed
			}
			if err := w.handler.Handle(ctx, payload); err != nil {
				w.log.Warn("Failed to handle bus message", "topic", w.topic, "error", err)
			}
		}
	}
}
