//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"planning-poker/domain"
	"reflect"
	"time"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging and supervision, so workers don't have to name themselves.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives the domain events produced by locally executed commands.
type EventSink interface {
	Consume(ctx context.Context, evt domain.Event) error
}

// IBus is the shared message bus between nodes.
// Delivery is at-least-once, unordered across publishers, and every subscriber
// of a topic receives every message: receivers do their own filtering.
type IBus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	// Subscribe returns a channel closed when ctx is done or the subscription is lost.
	Subscribe(ctx context.Context, topic string) (<-chan []byte, error)
	Close() error
}

// IRemoteHandler decodes and applies one message received from the bus.
type IRemoteHandler interface {
	Handle(ctx context.Context, payload []byte) error
	// Resync recovers what was missed while the subscription was down.
	Resync(ctx context.Context)
}

type IHeartbeater interface {
	Heartbeat(ctx context.Context, stats domain.NodeStats) error
	PurgeSilentPeers(ctx context.Context, now time.Time) []string
	IsInitialized() bool
}

// ISessionSweeper is the maintenance surface of the session registry.
type ISessionSweeper interface {
	DisconnectInactive(ctx context.Context, cutoff time.Time) int
	EvictExpired(ctx context.Context, cutoff time.Time) []string
	SaveAll(ctx context.Context) error
	Count() int
}
