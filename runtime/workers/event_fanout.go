package workers

import (
	"context"
	"log/slog"
	"planning-poker/contract"
	"planning-poker/domain"
	"time"
)

// EventFanout hands every locally produced event to the sinks, in production order.
// A sink gets sinkTimeout per event; failures are logged and never retried here,
// the bus client retries on its own.
type EventFanout struct {
	log         *slog.Logger
	events      <-chan domain.Event
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, events <-chan domain.Event, sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, events: events, sinks: sinks, sinkTimeout: sinkTimeout}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt := <-w.events:
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping event fanout")
			return nil
		}
	}
}

// Fanout delivers one event to each sink.
func (w *EventFanout) Fanout(ctx context.Context, evt domain.Event) {
	for _, sink := range w.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
		if err := sink.Consume(sinkCtx, evt); err != nil {
			w.log.Warn("Sink failed to consume event", "session", evt.Session, "seq", evt.Seq,
				"kind", evt.Kind(), "error", err)
		}
		cancel()
	}
}
