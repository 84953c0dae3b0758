package domain

import (
	"sort"
	"strings"
	"time"

	"planning-poker/errors"

	"github.com/samber/lo"
)

type State string

const (
	Idle       State = "idle"
	Estimating State = "estimating"
	Finished   State = "finished"
)

// departedVote keeps the estimation of a voter who left during the round.
type departedVote struct {
	name       string
	tenure     int
	estimation Estimation
}

// Session is the planning poker aggregate and the unit of mutation serialization:
// callers must hold the registry lock of the session while using it.
//
// Every transition is expressed as an Event and goes through apply, whether it
// was decided locally (commands) or replayed from another node (ApplyRemote).
type Session struct {
	Name  string
	Owner string

	node         string
	state        State
	round        int
	participants []*Participant
	nextTenure   int
	cards        []Estimation
	departed     []departedVote
	result       []EstimationResultItem
	timerEnd     *time.Time
	createdAt    time.Time
	lastActivity time.Time

	seq     uint64
	applied map[string]uint64
	pending []Event
}

// NewSession creates a session owned by node and records its creation event.
func NewSession(name, node string, now time.Time) *Session {
	s := newEmptySession(name, node, now)
	s.Owner = node
	s.emit(SessionCreated{Cards: DefaultEstimations()}, now)
	return s
}

// NewProxySession creates an empty mirror of a session produced by another node.
// Its state is built by ApplyRemote.
func NewProxySession(name, owner, node string, now time.Time) *Session {
	s := newEmptySession(name, node, now)
	s.Owner = owner
	return s
}

func newEmptySession(name, node string, now time.Time) *Session {
	return &Session{
		Name:         name,
		node:         node,
		state:        Idle,
		cards:        DefaultEstimations(),
		createdAt:    now,
		lastActivity: now,
		applied:      make(map[string]uint64),
	}
}

// Key is the case-insensitive identity of a session name.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (s *Session) State() State               { return s.state }
func (s *Session) Round() int                 { return s.round }
func (s *Session) LastActivity() time.Time    { return s.lastActivity }
func (s *Session) CreatedAt() time.Time       { return s.createdAt }
func (s *Session) Node() string               { return s.node }
func (s *Session) IsEmpty() bool              { return len(s.participants) == 0 }
func (s *Session) IsOrphan() bool             { return s.Owner == "" }
func (s *Session) IsOwnedBy(node string) bool { return s.Owner == node }

// Adopt makes node the owner of the session.
func (s *Session) Adopt(node string) {
	s.Owner = node
}

// Participants returns participants in join order.
func (s *Session) Participants() []*Participant {
	out := make([]*Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

func (s *Session) Participant(name string) (*Participant, bool) {
	return lo.Find(s.participants, func(p *Participant) bool { return p.Name == name })
}

func (s *Session) Facilitator() (*Participant, bool) {
	return lo.Find(s.participants, func(p *Participant) bool { return p.Role == Facilitator })
}

func (s *Session) AvailableEstimations() []Estimation {
	out := make([]Estimation, len(s.cards))
	copy(out, s.cards)
	return out
}

// Result is the outcome of the last finished round, nil otherwise.
func (s *Session) Result() []EstimationResultItem {
	if s.state != Finished {
		return nil
	}
	out := make([]EstimationResultItem, len(s.result))
	copy(out, s.result)
	return out
}

func (s *Session) TimerEndTime() (time.Time, bool) {
	if s.timerEnd == nil {
		return time.Time{}, false
	}
	return *s.timerEnd, true
}

// LastSeq is the last sequence number applied for events produced by node.
func (s *Session) LastSeq(node string) uint64 {
	return s.applied[node]
}

// Touch records activity on the session.
func (s *Session) Touch(now time.Time) {
	if now.After(s.lastActivity) {
		s.lastActivity = now
	}
}

// FlushEvents returns and clears the events produced locally since the last flush.
func (s *Session) FlushEvents() []Event {
	events := s.pending
	s.pending = nil
	return events
}

// Join adds a participant. The name is case-sensitive and unique, a second Facilitator is refused.
func (s *Session) Join(name string, role Role, now time.Time) (*Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New(errors.CodeInvalidArgument, "participant name is empty")
	}
	if _, ok := s.Participant(name); ok {
		return nil, errors.Newf(errors.CodeDuplicateParticipant, "participant %q already joined %q", name, s.Name)
	}
	if role == Facilitator {
		if f, ok := s.Facilitator(); ok {
			return nil, errors.Newf(errors.CodeDuplicateParticipant, "session %q already has facilitator %q", s.Name, f.Name)
		}
	}
	s.emit(ParticipantJoined{Name: name, Role: role, Node: s.node, At: now}, now)
	p, _ := s.Participant(name)
	return p, nil
}

// Reconnect returns an existing participant and makes this node its home.
// lastID is the last message the client received, possibly from another node;
// the local mailbox numbering continues after it.
func (s *Session) Reconnect(name string, lastID int64, now time.Time) (*Participant, error) {
	p, ok := s.Participant(name)
	if !ok {
		return nil, errors.Newf(errors.CodeParticipantNotFound, "participant %q not in %q", name, s.Name)
	}
	p.Mailbox.Resume(lastID)
	if p.Node != s.node {
		s.emit(ParticipantReconnected{Name: name, Node: s.node}, now)
	}
	p.UpdateActivity(now)
	s.Touch(now)
	return p, nil
}

// Disconnect removes a participant. When the Facilitator leaves, the longest-tenured
// Member is promoted; a round left with no outstanding voter completes.
func (s *Session) Disconnect(name string, now time.Time) error {
	p, ok := s.Participant(name)
	if !ok {
		return errors.Newf(errors.CodeParticipantNotFound, "participant %q not in %q", name, s.Name)
	}
	s.emit(ParticipantDisconnected{Name: name}, now)
	if p.Role == Facilitator {
		if successor, ok := s.longestTenuredMember(); ok {
			s.emit(FacilitatorPromoted{Name: successor.Name}, now)
		}
	}
	s.completeIfAllVoted(now)
	return nil
}

func (s *Session) StartEstimation(by string, now time.Time) error {
	if err := s.requireFacilitator(by, "start estimation"); err != nil {
		return err
	}
	if s.state == Estimating {
		return errors.Newf(errors.CodeInvalidOperation, "estimation already in progress in %q", s.Name)
	}
	s.emit(EstimationStarted{Round: s.round + 1}, now)
	return nil
}

// SubmitEstimation records a vote. The null card is an explicit vote and counts
// toward completion. A participant may change the vote while the round is open.
func (s *Session) SubmitEstimation(name string, value Estimation, now time.Time) error {
	p, ok := s.Participant(name)
	if !ok {
		return errors.Newf(errors.CodeParticipantNotFound, "participant %q not in %q", name, s.Name)
	}
	if s.state != Estimating {
		return errors.Newf(errors.CodeInvalidOperation, "no estimation in progress in %q", s.Name)
	}
	if !p.Role.CanVote() {
		return errors.Newf(errors.CodeInvalidOperation, "%s %q cannot estimate", p.Role, name)
	}
	if !containsEstimation(s.cards, value) {
		return errors.Newf(errors.CodeInvalidArgument, "estimation %s is not available in %q", value, s.Name)
	}
	s.emit(EstimationSubmitted{Name: name, Value: value}, now)
	s.completeIfAllVoted(now)
	return nil
}

func (s *Session) CancelEstimation(by string, now time.Time) error {
	if err := s.requireFacilitator(by, "cancel estimation"); err != nil {
		return err
	}
	if s.state != Estimating {
		return errors.Newf(errors.CodeInvalidOperation, "no estimation in progress in %q", s.Name)
	}
	s.emit(EstimationCanceled{Round: s.round}, now)
	return nil
}

func (s *Session) SetAvailableEstimations(by string, values []Estimation, now time.Time) error {
	if err := s.requireFacilitator(by, "change available estimations"); err != nil {
		return err
	}
	if s.state == Estimating {
		return errors.Newf(errors.CodeInvalidOperation, "cannot change estimations while estimating in %q", s.Name)
	}
	if len(values) == 0 {
		return errors.New(errors.CodeInvalidArgument, "available estimations are empty")
	}
	unique := make([]Estimation, 0, len(values))
	for _, v := range values {
		if !containsEstimation(unique, v) {
			unique = append(unique, v)
		}
	}
	s.emit(AvailableEstimationsChanged{Values: unique}, now)
	return nil
}

func (s *Session) StartTimer(by string, duration time.Duration, now time.Time) error {
	if err := s.requireVoter(by, "start timer"); err != nil {
		return err
	}
	if duration <= 0 {
		return errors.Newf(errors.CodeInvalidArgument, "timer duration %s must be positive", duration)
	}
	s.emit(TimerStarted{EndTime: now.Add(duration).UTC()}, now)
	return nil
}

// CancelTimer is a no-op when no timer is running.
func (s *Session) CancelTimer(by string, now time.Time) error {
	if err := s.requireVoter(by, "cancel timer"); err != nil {
		return err
	}
	if s.timerEnd == nil {
		return nil
	}
	s.emit(TimerCanceled{}, now)
	return nil
}

// ApplyRemote replays an event produced by another node. Events whose sequence is not
// strictly greater than the last one applied for (session, origin node) are dropped.
// Gaps are tolerated. Completion is re-checked afterwards, which may emit local events.
func (s *Session) ApplyRemote(evt Event, now time.Time) bool {
	if evt.Node == s.node {
		return false
	}
	if evt.Seq <= s.applied[evt.Node] {
		return false
	}
	s.applied[evt.Node] = evt.Seq
	s.apply(evt)
	s.Touch(now)
	s.completeIfAllVoted(now)
	return true
}

func (s *Session) requireFacilitator(by, action string) error {
	p, ok := s.Participant(by)
	if !ok {
		return errors.Newf(errors.CodeParticipantNotFound, "participant %q not in %q", by, s.Name)
	}
	if p.Role != Facilitator {
		return errors.Newf(errors.CodeInvalidOperation, "only the facilitator can %s", action)
	}
	return nil
}

func (s *Session) requireVoter(by, action string) error {
	p, ok := s.Participant(by)
	if !ok {
		return errors.Newf(errors.CodeParticipantNotFound, "participant %q not in %q", by, s.Name)
	}
	if !p.Role.CanVote() {
		return errors.Newf(errors.CodeInvalidOperation, "observer %q cannot %s", by, action)
	}
	return nil
}

func (s *Session) longestTenuredMember() (*Participant, bool) {
	members := lo.Filter(s.participants, func(p *Participant, _ int) bool { return p.Role == Member })
	if len(members) == 0 {
		return nil, false
	}
	return lo.MinBy(members, func(a, b *Participant) bool { return a.tenure < b.tenure }), true
}

func (s *Session) completeIfAllVoted(now time.Time) {
	if s.state != Estimating {
		return
	}
	for _, p := range s.participants {
		if p.Role.CanVote() && p.Estimation == nil {
			return
		}
	}
	s.emit(EstimationEnded{Round: s.round, Result: s.collectResult()}, now)
}

// collectResult lists connected voters and departed voters in join order.
func (s *Session) collectResult() []EstimationResultItem {
	type line struct {
		tenure int
		item   EstimationResultItem
	}
	var lines []line
	for _, p := range s.participants {
		if p.Estimation != nil {
			lines = append(lines, line{p.tenure, EstimationResultItem{Name: p.Name, Estimation: *p.Estimation}})
		}
	}
	for _, d := range s.departed {
		lines = append(lines, line{d.tenure, EstimationResultItem{Name: d.name, Estimation: d.estimation}})
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].tenure < lines[j].tenure })
	return lo.Map(lines, func(l line, _ int) EstimationResultItem { return l.item })
}

func (s *Session) emit(payload EventPayload, now time.Time) {
	s.seq++
	s.applied[s.node] = s.seq
	evt := Event{Session: s.Name, Node: s.node, Seq: s.seq, At: now.UTC(), Payload: payload}
	s.apply(evt)
	s.Touch(now)
	s.pending = append(s.pending, evt)
}

// apply mutates state and fans the matching message out to mailboxes.
// It is idempotent for replays: joins of known names, disconnects of unknown ones
// and endings of an already finished round are ignored.
func (s *Session) apply(evt Event) {
	switch e := evt.Payload.(type) {
	case SessionCreated:
		if len(e.Cards) > 0 {
			s.cards = append([]Estimation(nil), e.Cards...)
		}
	case ParticipantJoined:
		if _, ok := s.Participant(e.Name); ok {
			return
		}
		role := e.Role
		var demoted *Participant
		if f, ok := s.Facilitator(); ok && role == Facilitator {
			if joinedBefore(e.At, e.Name, f) {
				demoted = f
			} else {
				role = Member
			}
		}
		s.broadcast(ParticipantJoinedMessage{Name: e.Name, Role: role})
		s.nextTenure++
		s.participants = append(s.participants, newParticipant(s.Name, e.Name, role, e.Node, s.nextTenure, e.At))
		s.departed = lo.Filter(s.departed, func(d departedVote, _ int) bool { return d.name != e.Name })
		if demoted != nil {
			demoted.Role = Member
			s.broadcast(FacilitatorPromotedMessage{Name: e.Name})
		}
	case ParticipantReconnected:
		if p, ok := s.Participant(e.Name); ok {
			p.Node = e.Node
			p.UpdateActivity(evt.At)
		}
	case ParticipantDisconnected:
		p, ok := s.Participant(e.Name)
		if !ok {
			return
		}
		s.participants = lo.Filter(s.participants, func(q *Participant, _ int) bool { return q != p })
		p.Mailbox.Close()
		if s.state == Estimating && p.Estimation != nil {
			s.departed = append(s.departed, departedVote{name: p.Name, tenure: p.tenure, estimation: *p.Estimation})
		}
		s.broadcast(ParticipantDisconnectedMessage{Name: e.Name})
	case FacilitatorPromoted:
		p, ok := s.Participant(e.Name)
		if !ok || p.Role == Facilitator {
			return
		}
		if f, exists := s.Facilitator(); exists {
			if !joinedBefore(p.JoinedAt, p.Name, f) {
				return
			}
			f.Role = Member
		}
		p.Role = Facilitator
		s.broadcast(FacilitatorPromotedMessage{Name: e.Name})
	case EstimationStarted:
		s.state = Estimating
		s.round = e.Round
		s.result = nil
		s.departed = nil
		s.clearEstimations()
		s.broadcast(EstimationStartedMessage{Round: e.Round})
	case EstimationSubmitted:
		if s.state != Estimating {
			return
		}
		p, ok := s.Participant(e.Name)
		if !ok || !p.Role.CanVote() {
			return
		}
		value := e.Value
		p.Estimation = &value
		s.broadcast(MemberEstimatedMessage{Name: e.Name})
	case EstimationEnded:
		if s.state == Finished && s.round == e.Round {
			return
		}
		s.state = Finished
		s.round = e.Round
		s.result = append([]EstimationResultItem(nil), e.Result...)
		s.departed = nil
		s.broadcast(EstimationEndedMessage{Round: e.Round, Result: s.Result()})
	case EstimationCanceled:
		if s.state != Estimating || s.round != e.Round {
			return
		}
		s.state = Idle
		s.result = nil
		s.departed = nil
		s.clearEstimations()
		s.broadcast(EstimationCanceledMessage{Round: e.Round})
	case AvailableEstimationsChanged:
		s.cards = append([]Estimation(nil), e.Values...)
		s.broadcast(AvailableEstimationsChangedMessage{Values: s.AvailableEstimations()})
	case TimerStarted:
		end := e.EndTime
		s.timerEnd = &end
		s.broadcast(TimerStartedMessage{EndTime: end})
	case TimerCanceled:
		if s.timerEnd == nil {
			return
		}
		s.timerEnd = nil
		s.broadcast(TimerCanceledMessage{})
	}
}

// joinedBefore orders two claims on the Facilitator role the same way on every
// node: the earlier join wins, the name breaks ties.
func joinedBefore(at time.Time, name string, p *Participant) bool {
	if !at.Equal(p.JoinedAt) {
		return at.Before(p.JoinedAt)
	}
	return name < p.Name
}

func (s *Session) clearEstimations() {
	for _, p := range s.participants {
		p.Estimation = nil
	}
}

func (s *Session) broadcast(payload MessagePayload) {
	for _, p := range s.participants {
		p.Mailbox.Post(payload)
	}
}
