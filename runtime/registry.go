// Package runtime hosts the sessions of one node, delivers participant mailboxes,
// and keeps the node in sync with its peers over the bus.
// It orchestrates the system without containing voting rules.
package runtime

import (
	"context"
	stderrors "errors"
	"log/slog"
	"planning-poker/domain"
	"planning-poker/errors"
	"planning-poker/infrastructure/storage"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// entry is the mutual-exclusion scope of one session name.
// A nil session means the name is being resolved or was just evicted.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
	removed bool
}

// Registry holds the sessions of the node, one instance per name.
// Operations on one session are serialized, different sessions run in parallel.
type Registry struct {
	log           *slog.Logger
	node          string
	repository    storage.ISessionRepository
	outbound      chan<- domain.Event
	bufferTimeout time.Duration
	now           func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry
}

func NewRegistry(log *slog.Logger, node string, repository storage.ISessionRepository,
	outbound chan<- domain.Event, bufferTimeout time.Duration) *Registry {
	return &Registry{
		log:           log,
		node:          node,
		repository:    repository,
		outbound:      outbound,
		bufferTimeout: bufferTimeout,
		now:           func() time.Time { return time.Now().UTC() },
		entries:       make(map[string]*entry),
	}
}

// Node is the identifier of the node owning this registry.
func (r *Registry) Node() string {
	return r.node
}

func (r *Registry) acquire(key string) *entry {
	for {
		r.mu.Lock()
		e, ok := r.entries[key]
		if !ok {
			e = &entry{}
			r.entries[key] = e
		}
		r.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		e.mu.Unlock()
	}
}

// release drops the entry from the table when it holds no session.
func (r *Registry) release(key string, e *entry) {
	if e.session == nil {
		e.removed = true
		r.mu.Lock()
		if r.entries[key] == e {
			delete(r.entries, key)
		}
		r.mu.Unlock()
	}
	e.mu.Unlock()
}

// Execute runs fn against the named session under its lock. A session missing
// from memory is loaded from storage and adopted by this node.
func (r *Registry) Execute(ctx context.Context, name string, fn func(*domain.Session) error) error {
	return r.execute(ctx, name, false, fn)
}

// ExecuteOrCreate is Execute, creating the session owned by this node when it exists nowhere.
func (r *Registry) ExecuteOrCreate(ctx context.Context, name string, fn func(*domain.Session) error) error {
	return r.execute(ctx, name, true, fn)
}

func (r *Registry) execute(ctx context.Context, name string, create bool, fn func(*domain.Session) error) error {
	key := domain.Key(name)
	if key == "" {
		return errors.New(errors.CodeInvalidArgument, "session name is empty")
	}
	e := r.acquire(key)
	defer r.release(key, e)

	now := r.now()
	if e.session == nil {
		s, err := r.load(name, now)
		switch {
		case err == nil:
			e.session = s
		case create && stderrors.Is(err, errors.ErrSessionNotFound):
			e.session = domain.NewSession(strings.TrimSpace(name), r.node, now)
			r.log.Info("Session created", "session", e.session.Name, "node", r.node)
		default:
			return err
		}
	}

	s := e.session
	if s.IsOrphan() {
		s.Adopt(r.node)
		r.log.Info("Orphan session adopted", "session", s.Name, "node", r.node)
	}
	err := fn(s)
	r.dispatch(ctx, s.FlushEvents())
	return err
}

func (r *Registry) load(name string, now time.Time) (*domain.Session, error) {
	snap, err := r.repository.LoadSession(name)
	if err != nil {
		return nil, err
	}
	s := domain.RestoreSession(snap, r.node)
	s.Adopt(r.node)
	s.Rehome(r.node, now)
	r.log.Info("Session loaded from storage", "session", s.Name, "participants", len(s.Participants()))
	return s, nil
}

// dispatch hands events to the outbound channel while the session lock is held,
// which keeps the per-session publication order.
func (r *Registry) dispatch(ctx context.Context, events []domain.Event) {
	for _, evt := range events {
		timer := time.NewTimer(r.bufferTimeout)
		select {
		case r.outbound <- evt:
		case <-timer.C:
			r.log.Warn("Outbound buffer full, event not published", "session", evt.Session, "seq", evt.Seq, "kind", evt.Kind())
		case <-ctx.Done():
			r.log.Warn("Context done, event not published", "session", evt.Session, "seq", evt.Seq)
		}
		timer.Stop()
	}
}

// ApplyRemote replays an event produced by another node. It reports whether the
// event changed local state and whether the session is unknown to this node.
func (r *Registry) ApplyRemote(ctx context.Context, evt domain.Event) (applied bool, missing bool) {
	key := domain.Key(evt.Session)
	e := r.acquire(key)
	defer r.release(key, e)

	now := r.now()
	if e.session == nil {
		if evt.Kind() != domain.SessionCreatedType {
			return false, true
		}
		e.session = domain.NewProxySession(evt.Session, evt.Node, r.node, now)
	}
	applied = e.session.ApplyRemote(evt, now)
	r.dispatch(ctx, e.session.FlushEvents())
	return applied, false
}

// AddProxy installs a session received from a peer. A known copy is refreshed only
// when the snapshot carries events it missed, its local mailboxes survive the refresh.
// Sessions owned by this node are never overwritten.
func (r *Registry) AddProxy(snap domain.SessionSnapshot) bool {
	key := domain.Key(snap.Name)
	if key == "" {
		return false
	}
	e := r.acquire(key)
	defer r.release(key, e)

	if e.session == nil {
		e.session = domain.RestoreSession(snap, r.node)
		return true
	}
	if e.session.IsOwnedBy(r.node) {
		return false
	}
	if e.session.IsOrphan() && snap.Owner != "" && snap.Owner != r.node {
		e.session.Adopt(snap.Owner)
	}
	if !e.session.Refresh(snap) {
		return false
	}
	r.log.Info("Session refreshed from peer snapshot", "session", e.session.Name, "owner", e.session.Owner)
	return true
}

// Snapshots returns the snapshots of the sessions matching filter.
func (r *Registry) Snapshots(filter func(*domain.Session) bool) []domain.SessionSnapshot {
	var out []domain.SessionSnapshot
	r.each(func(s *domain.Session) bool {
		if filter == nil || filter(s) {
			out = append(out, s.Snapshot())
		}
		return false
	})
	return out
}

func (r *Registry) Count() int {
	count := 0
	r.each(func(*domain.Session) bool {
		count++
		return false
	})
	return count
}

func (r *Registry) Names() []string {
	var names []string
	r.each(func(s *domain.Session) bool {
		names = append(names, s.Name)
		return false
	})
	sort.Strings(names)
	return names
}

// DisconnectInactive disconnects participants homed on this node whose last
// activity is older than cutoff, through the regular Disconnect path.
func (r *Registry) DisconnectInactive(ctx context.Context, cutoff time.Time) int {
	return r.disconnectWhere(ctx, func(p *domain.Participant) bool {
		return p.Node == r.node && p.LastActivity.Before(cutoff)
	})
}

// DisconnectParticipantsOf disconnects the participants homed on a node that left the cluster.
func (r *Registry) DisconnectParticipantsOf(ctx context.Context, node string) int {
	return r.disconnectWhere(ctx, func(p *domain.Participant) bool {
		return p.Node == node
	})
}

func (r *Registry) disconnectWhere(ctx context.Context, match func(*domain.Participant) bool) int {
	total := 0
	now := r.now()
	r.each(func(s *domain.Session) bool {
		gone := lo.Filter(s.Participants(), func(p *domain.Participant, _ int) bool { return match(p) })
		for _, p := range gone {
			if err := s.Disconnect(p.Name, now); err != nil {
				r.log.Warn("Failed to disconnect participant", "session", s.Name, "participant", p.Name, "error", err)
				continue
			}
			r.log.Info("Participant disconnected", "session", s.Name, "participant", p.Name, "home", p.Node)
			total++
		}
		r.dispatch(ctx, s.FlushEvents())
		return false
	})
	return total
}

// OrphanSessionsOf releases ownership of the sessions owned by a silent node.
func (r *Registry) OrphanSessionsOf(node string) int {
	count := 0
	r.each(func(s *domain.Session) bool {
		if s.IsOwnedBy(node) {
			s.Adopt("")
			count++
		}
		return false
	})
	return count
}

// EvictExpired removes empty sessions idle since before cutoff. The stored copy
// of owned sessions is deleted.
func (r *Registry) EvictExpired(ctx context.Context, cutoff time.Time) []string {
	var evicted []string
	r.each(func(s *domain.Session) bool {
		if !s.IsEmpty() || !s.LastActivity().Before(cutoff) {
			return false
		}
		if s.IsOwnedBy(r.node) {
			if err := r.repository.DeleteSession(s.Name); err != nil {
				r.log.Warn("Failed to delete expired session", "session", s.Name, "error", err)
			}
		}
		evicted = append(evicted, s.Name)
		r.log.Info("Session expired", "session", s.Name)
		return true
	})
	return evicted
}

// SaveAll persists every non-empty session owned by this node.
func (r *Registry) SaveAll(ctx context.Context) error {
	var errs []error
	r.each(func(s *domain.Session) bool {
		if ctx.Err() != nil {
			return false
		}
		if !s.IsOwnedBy(r.node) || s.IsEmpty() {
			return false
		}
		if err := r.repository.SaveSession(s.Snapshot()); err != nil {
			errs = append(errs, err)
		}
		return false
	})
	if len(errs) > 0 {
		return errors.Wrap(errors.CodePersistenceUnavailable, "save sessions", stderrors.Join(errs...))
	}
	return nil
}

// each visits every session under its lock. Returning true from fn evicts the session.
func (r *Registry) each(fn func(*domain.Session) bool) {
	r.mu.RLock()
	keys := lo.Keys(r.entries)
	r.mu.RUnlock()
	sort.Strings(keys)

	for _, key := range keys {
		r.mu.RLock()
		e, ok := r.entries[key]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		e.mu.Lock()
		if e.removed || e.session == nil {
			e.mu.Unlock()
			continue
		}
		if fn(e.session) {
			e.session = nil
		}
		r.release(key, e)
	}
}
