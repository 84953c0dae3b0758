// Package bus provides an in-process implementation of the node message bus.
// It backs single-node deployments, tests, and the fan-out hub of the gRPC broker.
package bus

import (
	"context"
	"log/slog"
	"planning-poker/errors"
	"sync"

	"github.com/google/uuid"
)

type MemoryBus struct {
	log    *slog.Logger
	buffer int

	mu     sync.RWMutex
	topics map[string]map[string]chan []byte
	closed bool
}

// NewMemoryBus creates a bus whose subscribers each buffer up to buffer messages.
// A subscriber whose buffer is full has its subscription closed rather than losing
// the message: it resubscribes and resynchronizes its state.
func NewMemoryBus(log *slog.Logger, buffer int) *MemoryBus {
	return &MemoryBus{
		log:    log,
		buffer: buffer,
		topics: make(map[string]map[string]chan []byte),
	}
}

func (b *MemoryBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	slow, err := b.deliver(topic, payload)
	if err != nil {
		return err
	}
	for _, id := range slow {
		b.log.Warn("Subscriber is full, subscription closed", "topic", topic, "subscriber", id)
		b.unsubscribe(topic, id)
	}
	return nil
}

// deliver queues payload to every subscriber of topic and returns the ones that are full.
func (b *MemoryBus) deliver(topic string, payload []byte) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, errors.New(errors.CodeBusUnavailable, "bus is closed")
	}
	var slow []string
	for id, ch := range b.topics[topic] {
		msg := make([]byte, len(payload))
		copy(msg, payload)
		select {
		case ch <- msg:
		default:
			slow = append(slow, id)
		}
	}
	return slow, nil
}

// Subscribe registers a subscriber until ctx is done.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New(errors.CodeBusUnavailable, "bus is closed")
	}
	id := uuid.NewString()
	ch := make(chan []byte, b.buffer)
	if _, ok := b.topics[topic]; !ok {
		b.topics[topic] = make(map[string]chan []byte)
	}
	b.topics[topic][id] = ch

	go func() {
		<-ctx.Done()
		b.unsubscribe(topic, id)
	}()
	return ch, nil
}

func (b *MemoryBus) unsubscribe(topic, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[topic]
	if !ok {
		return
	}
	if ch, ok := subs[id]; ok {
		delete(subs, id)
		close(ch)
	}
	if len(subs) == 0 {
		delete(b.topics, topic)
	}
}

// Subscribers counts the live subscriptions of a topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close ends every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for topic, subs := range b.topics {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(b.topics, topic)
	}
	return nil
}
