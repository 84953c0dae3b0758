package runtime

import (
	"context"
	"log/slog"
	"planning-poker/contract"
	"planning-poker/domain"
	"planning-poker/errors"
	"planning-poker/infrastructure/codec"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Synchronizer mirrors local session events on the bus and replays the events of
// other nodes against the local proxies. It also runs the startup handshake and
// tracks peer liveness through heartbeats.
type Synchronizer struct {
	log               *slog.Logger
	node              string
	topic             string
	bus               contract.IBus
	registry          *Registry
	initTimeout       time.Duration
	messageTimeout    time.Duration
	inactivityTimeout time.Duration
	now               func() time.Time

	initialized atomic.Bool

	mu        sync.Mutex
	peers     map[string]time.Time
	handshake *handshake
	buffered  []domain.Event
	requested map[string]time.Time

	// applyMu keeps remote events in arrival order across the end of the handshake.
	applyMu sync.Mutex
}

type handshake struct {
	requestID string
	replies   chan codec.Envelope
}

var (
	_ contract.EventSink      = (*Synchronizer)(nil)
	_ contract.IRemoteHandler = (*Synchronizer)(nil)
	_ contract.IHeartbeater   = (*Synchronizer)(nil)
)

func NewSynchronizer(log *slog.Logger, registry *Registry, bus contract.IBus, topic string,
	initTimeout, messageTimeout, inactivityTimeout time.Duration) *Synchronizer {
	return &Synchronizer{
		log:               log,
		node:              registry.Node(),
		topic:             topic,
		bus:               bus,
		registry:          registry,
		initTimeout:       initTimeout,
		messageTimeout:    messageTimeout,
		inactivityTimeout: inactivityTimeout,
		now:               func() time.Time { return time.Now().UTC() },
		peers:             make(map[string]time.Time),
		requested:         make(map[string]time.Time),
	}
}

// Start runs the initialization handshake. It asks every live node for the sessions
// it owns and merges the replies until initTimeout elapses, or earlier when no reply
// arrives within messageTimeout of the previous one. Without replies the node
// proceeds as the only one. Start never fails: a bus failure only degrades visibility.
func (s *Synchronizer) Start(ctx context.Context) {
	hs := &handshake{requestID: uuid.NewString(), replies: make(chan codec.Envelope, 64)}
	s.mu.Lock()
	s.handshake = hs
	s.mu.Unlock()

	request := codec.Envelope{Kind: codec.RequestStateEnvelope, From: s.node, RequestID: hs.requestID}
	if err := s.publish(ctx, request); err != nil {
		s.log.Warn("Handshake request failed, serving local sessions only", "node", s.node, "error", err)
	} else {
		s.collect(ctx, hs)
	}
	s.finishHandshake(ctx)
}

func (s *Synchronizer) collect(ctx context.Context, hs *handshake) {
	deadline := time.Now().Add(s.initTimeout)
	replies, sessions := 0, 0
	wait := s.initTimeout
	for {
		timer := time.NewTimer(wait)
		select {
		case env := <-hs.replies:
			timer.Stop()
			replies++
			for _, snap := range env.Snapshots {
				if s.registry.AddProxy(snap) {
					sessions++
				}
			}
		case <-timer.C:
			s.log.Info("Handshake completed", "node", s.node, "replies", replies, "sessions", sessions)
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
		wait = min(s.messageTimeout, time.Until(deadline))
		if wait <= 0 {
			s.log.Info("Handshake timed out", "node", s.node, "replies", replies, "sessions", sessions)
			return
		}
	}
}

func (s *Synchronizer) finishHandshake(ctx context.Context) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	buffered := s.buffered
	s.buffered = nil
	s.handshake = nil
	s.mu.Unlock()

	for _, evt := range buffered {
		s.apply(ctx, evt)
	}
	s.initialized.Store(true)
	s.log.Info("Node initialized", "node", s.node, "sessions", s.registry.Count(), "replayed", len(buffered))
}

// IsInitialized is true once the handshake completed or timed out.
func (s *Synchronizer) IsInitialized() bool {
	return s.initialized.Load()
}

// Consume publishes an event produced on this node.
func (s *Synchronizer) Consume(ctx context.Context, evt domain.Event) error {
	return s.publish(ctx, codec.Envelope{Kind: codec.EventEnvelope, From: s.node, Event: &evt})
}

// Heartbeat announces this node to its peers.
func (s *Synchronizer) Heartbeat(ctx context.Context, stats domain.NodeStats) error {
	return s.publish(ctx, codec.Envelope{Kind: codec.HeartbeatEnvelope, From: s.node, Stats: &stats})
}

// Handle decodes and dispatches one bus message. The bus delivers every message to
// every node, the sender included.
func (s *Synchronizer) Handle(ctx context.Context, payload []byte) error {
	env, err := codec.UnmarshalEnvelope(payload)
	if err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, "decode bus message", err)
	}
	if env.From == s.node {
		return nil
	}
	s.markSeen(env.From)

	switch env.Kind {
	case codec.EventEnvelope:
		if env.Event == nil {
			return errors.New(errors.CodeInvalidArgument, "event message without event")
		}
		s.handleEvent(ctx, *env.Event)
	case codec.RequestStateEnvelope:
		return s.handleRequest(ctx, env)
	case codec.StateReplyEnvelope:
		s.handleReply(ctx, env)
	case codec.HeartbeatEnvelope:
		if env.Stats != nil {
			s.log.Debug("Heartbeat received", "peer", env.From, "sessions", env.Stats.Sessions,
				"cpu", env.Stats.CPUPercent, "rss", env.Stats.RSSBytes)
		}
	}
	return nil
}

func (s *Synchronizer) handleEvent(ctx context.Context, evt domain.Event) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if s.handshake != nil {
		s.buffered = append(s.buffered, evt)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.apply(ctx, evt)
}

func (s *Synchronizer) apply(ctx context.Context, evt domain.Event) {
	applied, missing := s.registry.ApplyRemote(ctx, evt)
	if missing {
		s.requestSession(ctx, evt.Session)
		return
	}
	if applied {
		s.log.Debug("Remote event applied", "session", evt.Session, "origin", evt.Node, "seq", evt.Seq, "kind", evt.Kind())
	}
}

// requestSession asks the cluster for a session this node has never seen.
// Requests for one session are spaced by the message timeout.
func (s *Synchronizer) requestSession(ctx context.Context, session string) {
	key := domain.Key(session)
	now := s.now()
	s.mu.Lock()
	if last, ok := s.requested[key]; ok && now.Sub(last) < s.messageTimeout {
		s.mu.Unlock()
		return
	}
	s.requested[key] = now
	s.mu.Unlock()

	request := codec.Envelope{Kind: codec.RequestStateEnvelope, From: s.node,
		RequestID: uuid.NewString(), Sessions: []string{session}}
	if err := s.publish(ctx, request); err != nil {
		s.log.Warn("Session state request failed", "session", session, "error", err)
	}
}

// handleRequest answers a handshake with the owned sessions, even when there are
// none, and a named request only when this node knows one of the sessions.
func (s *Synchronizer) handleRequest(ctx context.Context, env codec.Envelope) error {
	var snaps []domain.SessionSnapshot
	if len(env.Sessions) == 0 {
		snaps = s.registry.Snapshots(func(session *domain.Session) bool {
			return session.IsOwnedBy(s.node)
		})
	} else {
		wanted := lo.SliceToMap(env.Sessions, func(name string) (string, bool) { return domain.Key(name), true })
		snaps = s.registry.Snapshots(func(session *domain.Session) bool {
			return wanted[domain.Key(session.Name)]
		})
		if len(snaps) == 0 {
			return nil
		}
	}
	reply := codec.Envelope{Kind: codec.StateReplyEnvelope, From: s.node, To: env.From,
		RequestID: env.RequestID, Snapshots: snaps}
	if err := s.publish(ctx, reply); err != nil {
		return err
	}
	s.log.Debug("State request answered", "peer", env.From, "sessions", len(snaps))
	return nil
}

func (s *Synchronizer) handleReply(ctx context.Context, env codec.Envelope) {
	if env.To != s.node {
		return
	}
	s.mu.Lock()
	hs := s.handshake
	s.mu.Unlock()
	if hs != nil && hs.requestID == env.RequestID {
		select {
		case hs.replies <- env:
			return
		default:
		}
	}
	for _, snap := range env.Snapshots {
		if s.registry.AddProxy(snap) {
			s.log.Info("Session received from peer", "session", snap.Name, "peer", env.From)
		}
	}
}

// Resync asks every node again for the sessions it owns after a lost subscription.
// The replies refresh the proxies that missed events while the node was deaf.
func (s *Synchronizer) Resync(ctx context.Context) {
	if !s.IsInitialized() {
		return
	}
	request := codec.Envelope{Kind: codec.RequestStateEnvelope, From: s.node, RequestID: uuid.NewString()}
	if err := s.publish(ctx, request); err != nil {
		s.log.Warn("Resync request failed", "node", s.node, "error", err)
		return
	}
	s.log.Info("Resync requested", "node", s.node)
}

func (s *Synchronizer) markSeen(peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, known := s.peers[peer]; !known {
		s.log.Info("Peer discovered", "node", s.node, "peer", peer)
	}
	s.peers[peer] = s.now()
}

// PurgeSilentPeers forgets the peers silent for longer than the inactivity timeout.
// Their participants are disconnected and the sessions they owned become orphans,
// adopted by the next node serving one of their clients.
func (s *Synchronizer) PurgeSilentPeers(ctx context.Context, now time.Time) []string {
	cutoff := now.Add(-s.inactivityTimeout)
	s.mu.Lock()
	var silent []string
	for peer, seen := range s.peers {
		if seen.Before(cutoff) {
			silent = append(silent, peer)
			delete(s.peers, peer)
		}
	}
	s.mu.Unlock()
	sort.Strings(silent)

	for _, peer := range silent {
		disconnected := s.registry.DisconnectParticipantsOf(ctx, peer)
		orphaned := s.registry.OrphanSessionsOf(peer)
		s.log.Warn("Peer silent, purged", "peer", peer, "participants", disconnected, "orphaned", orphaned)
	}
	return silent
}

// Peers lists the live peers.
func (s *Synchronizer) Peers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	peers := lo.Keys(s.peers)
	sort.Strings(peers)
	return peers
}

func (s *Synchronizer) publish(ctx context.Context, env codec.Envelope) error {
	env.SentAt = s.now()
	payload, err := codec.MarshalEnvelope(env)
	if err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, "encode bus message", err)
	}
	if err := s.bus.Publish(ctx, s.topic, payload); err != nil {
		s.log.Warn("Bus publish failed", "kind", env.Kind, "error", err)
		return err
	}
	return nil
}
