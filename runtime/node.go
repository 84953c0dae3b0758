package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"planning-poker/contract"
	"planning-poker/domain"
	"planning-poker/infrastructure/storage"
	"planning-poker/internal"
	"planning-poker/runtime/workers"
	"time"

	"google.golang.org/grpc/health"
)

// HealthService is the service name reported on the gRPC health endpoint.
const HealthService = "planning-poker"

// Node is the context object of one process: it owns the registry, the
// delivery, the synchronizer and the workers keeping them alive.
type Node struct {
	log          *slog.Logger
	config       internal.Config
	outbound     chan domain.Event
	repository   storage.ISessionRepository
	bus          contract.IBus
	health       *health.Server
	supervisor   *workers.Supervisor
	Registry     *Registry
	Delivery     *Delivery
	Synchronizer *Synchronizer
}

func NewNode(log *slog.Logger, config internal.Config, repository storage.ISessionRepository,
	bus contract.IBus, healthServer *health.Server) *Node {
	log = log.With("node", config.NodeID)
	outbound := make(chan domain.Event, config.BufferSize)
	registry := NewRegistry(log, config.NodeID, repository, outbound, config.BufferTimeout)
	synchronizer := NewSynchronizer(log, registry, bus, config.BusTopic,
		config.BusInitializationTimeout, config.BusMessageTimeout, config.SubscriptionInactivityTimeout)
	return &Node{
		log:          log,
		config:       config,
		outbound:     outbound,
		repository:   repository,
		bus:          bus,
		health:       healthServer,
		supervisor:   workers.NewSupervisor(log, config.RestartInterval),
		Registry:     registry,
		Delivery:     NewDelivery(log, registry),
		Synchronizer: synchronizer,
	}
}

func (n *Node) ID() string {
	return n.config.NodeID
}

func (n *Node) IsInitialized() bool {
	return n.Synchronizer.IsInitialized()
}

// Run starts the workers, runs the handshake once the bus subscription is open,
// and blocks until ctx is canceled.
func (n *Node) Run(ctx context.Context) error {
	receiver := workers.NewReceiver(n.log, n.bus, n.config.BusTopic, n.Synchronizer)
	n.supervisor.Add(
		workers.NewEventFanout(n.log, n.outbound, n.config.SinkTimeout, n.Synchronizer),
		receiver,
		workers.NewHeartbeatWorker(n.log, n.Synchronizer, n.Registry.Count, n.config.SubscriptionMaintenanceInterval),
		workers.NewSweeperWorker(n.log, n.Registry, n.repository,
			n.config.ClientInactivityCheckInterval, n.config.ClientInactivityTimeout, n.config.SessionExpiration),
		workers.NewChannelCapacityWorker(n.log, []workers.NamedChannel{{Name: "outbound", Channel: n.outbound}},
			0.8, n.config.MetricInterval),
	)
	if n.health != nil {
		n.supervisor.Add(workers.NewHealthReporter(n.log, n.health, n.Synchronizer, HealthService, 100*time.Millisecond))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.supervisor.Run(ctx)
	}()

	timer := time.NewTimer(n.config.BusInitializationTimeout)
	defer timer.Stop()
	select {
	case <-receiver.Ready():
	case <-timer.C:
		n.log.Warn("Bus subscription not ready, starting without peers")
	case <-ctx.Done():
		<-done
		return nil
	}
	n.Synchronizer.Start(ctx)

	<-done
	return nil
}

// Shutdown snapshots the owned sessions and closes the bus.
func (n *Node) Shutdown(ctx context.Context) error {
	n.supervisor.Stop()
	var firstErr error
	if err := n.Registry.SaveAll(ctx); err != nil {
		firstErr = fmt.Errorf("final snapshot: %w", err)
	}
	if err := n.bus.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close bus: %w", err)
	}
	n.log.Info("Node stopped", "sessions", n.Registry.Count())
	return firstErr
}
