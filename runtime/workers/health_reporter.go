package workers

import (
	"context"
	"log/slog"
	"planning-poker/contract"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthReporter publishes the node readiness on the gRPC health service:
// NOT_SERVING until the handshake is over, SERVING afterwards.
type HealthReporter struct {
	log      *slog.Logger
	health   *health.Server
	node     contract.IHeartbeater
	service  string
	interval time.Duration
}

func NewHealthReporter(log *slog.Logger, health *health.Server, node contract.IHeartbeater, service string, interval time.Duration) *HealthReporter {
	return &HealthReporter{log: log, health: health, node: node, service: service, interval: interval}
}

func (w *HealthReporter) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	serving := false
	w.set(healthpb.HealthCheckResponse_NOT_SERVING)
	for {
		if !serving && w.node.IsInitialized() {
			serving = true
			w.set(healthpb.HealthCheckResponse_SERVING)
			w.log.Info("Node ready", "service", w.service)
		}
		select {
		case <-ctx.Done():
			w.set(healthpb.HealthCheckResponse_NOT_SERVING)
			return nil
		case <-ticker.C:
		}
	}
}

func (w *HealthReporter) set(status healthpb.HealthCheckResponse_ServingStatus) {
	w.health.SetServingStatus(w.service, status)
	w.health.SetServingStatus("", status)
}
