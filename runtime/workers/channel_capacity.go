package workers

import (
	"context"
	"log/slog"
	"reflect"
	"time"
)

type NamedChannel struct {
	Name    string
	Channel any
}

// ChannelCapacityWorker periodically samples the length of internal channels.
// Reading len and cap is non-blocking. A channel filled beyond the warning ratio
// is logged at Warn: producers are about to hit their buffer timeout and drop events.
type ChannelCapacityWorker struct {
	log            *slog.Logger
	channels       []NamedChannel
	warnRatio      float64
	metricInterval time.Duration
}

func NewChannelCapacityWorker(log *slog.Logger, channels []NamedChannel, warnRatio float64,
	metricInterval time.Duration) *ChannelCapacityWorker {
	return &ChannelCapacityWorker{
		log:            log,
		channels:       channels,
		warnRatio:      warnRatio,
		metricInterval: metricInterval,
	}
}

func (w *ChannelCapacityWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping channel sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

// Sample reports the channels above the warning ratio and returns their names.
func (w *ChannelCapacityWorker) Sample() []string {
	var saturated []string
	for _, nc := range w.channels {
		v := reflect.ValueOf(nc.Channel)
		if v.Kind() != reflect.Chan {
			w.log.Error("Provided object is not a channel", "name", nc.Name)
			continue
		}
		capacity, length := v.Cap(), v.Len()
		if capacity > 0 && float64(length) >= w.warnRatio*float64(capacity) {
			saturated = append(saturated, nc.Name)
			w.log.Warn("Channel almost full", "name", nc.Name, "length", length, "capacity", capacity)
			continue
		}
		w.log.Debug("Channel capacity", "name", nc.Name, "length", length, "capacity", capacity)
	}
	return saturated
}
