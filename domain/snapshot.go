package domain

import "time"

// SessionSnapshot is the serializable state of a session. Mailboxes are not part of it.
type SessionSnapshot struct {
	Name         string
	Owner        string
	State        State
	Round        int
	Cards        []Estimation
	Participants []ParticipantSnapshot
	Departed     []DepartedVoteSnapshot
	Result       []EstimationResultItem
	TimerEnd     *time.Time
	CreatedAt    time.Time
	LastActivity time.Time
	NextTenure   int
	// Seqs is the last applied sequence per origin node.
	Seqs map[string]uint64
}

type ParticipantSnapshot struct {
	Name         string
	Role         Role
	Node         string
	Tenure       int
	JoinedAt     time.Time
	LastActivity time.Time
	Estimation   *Estimation
}

type DepartedVoteSnapshot struct {
	Name       string
	Tenure     int
	Estimation Estimation
}

func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		Name:         s.Name,
		Owner:        s.Owner,
		State:        s.state,
		Round:        s.round,
		Cards:        s.AvailableEstimations(),
		Result:       append([]EstimationResultItem(nil), s.result...),
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		NextTenure:   s.nextTenure,
		Seqs:         make(map[string]uint64, len(s.applied)),
	}
	if s.timerEnd != nil {
		end := *s.timerEnd
		snap.TimerEnd = &end
	}
	for node, seq := range s.applied {
		snap.Seqs[node] = seq
	}
	for _, p := range s.participants {
		ps := ParticipantSnapshot{
			Name:         p.Name,
			Role:         p.Role,
			Node:         p.Node,
			Tenure:       p.tenure,
			JoinedAt:     p.JoinedAt,
			LastActivity: p.LastActivity,
		}
		if p.Estimation != nil {
			e := *p.Estimation
			ps.Estimation = &e
		}
		snap.Participants = append(snap.Participants, ps)
	}
	for _, d := range s.departed {
		snap.Departed = append(snap.Departed, DepartedVoteSnapshot{Name: d.name, Tenure: d.tenure, Estimation: d.estimation})
	}
	return snap
}

// RestoreSession rebuilds a session for the local node. Local numbering resumes
// after the last sequence the snapshot recorded for node.
func RestoreSession(snap SessionSnapshot, node string) *Session {
	s := newEmptySession(snap.Name, node, snap.CreatedAt)
	s.Owner = snap.Owner
	s.state = snap.State
	if s.state == "" {
		s.state = Idle
	}
	s.round = snap.Round
	if len(snap.Cards) > 0 {
		s.cards = append([]Estimation(nil), snap.Cards...)
	}
	s.result = append([]EstimationResultItem(nil), snap.Result...)
	s.lastActivity = snap.LastActivity
	s.nextTenure = snap.NextTenure
	if snap.TimerEnd != nil {
		end := *snap.TimerEnd
		s.timerEnd = &end
	}
	for origin, seq := range snap.Seqs {
		s.applied[origin] = seq
	}
	s.seq = s.applied[node]
	for _, ps := range snap.Participants {
		p := newParticipant(s.Name, ps.Name, ps.Role, ps.Node, ps.Tenure, ps.JoinedAt)
		p.LastActivity = ps.LastActivity
		if ps.Estimation != nil && s.state != Idle {
			e := *ps.Estimation
			p.Estimation = &e
		}
		if ps.Tenure > s.nextTenure {
			s.nextTenure = ps.Tenure
		}
		s.participants = append(s.participants, p)
	}
	for _, d := range snap.Departed {
		s.departed = append(s.departed, departedVote{name: d.Name, tenure: d.Tenure, estimation: d.Estimation})
	}
	return s
}

// Rehome moves every participant to node, used when a node adopts a session
// whose participants were attached elsewhere.
func (s *Session) Rehome(node string, now time.Time) {
	for _, p := range s.participants {
		p.Node = node
		p.UpdateActivity(now)
	}
}

// IsBehind reports whether snap carries events from another node that this copy
// has not applied yet.
func (s *Session) IsBehind(snap SessionSnapshot) bool {
	for origin, seq := range snap.Seqs {
		if origin != s.node && seq > s.applied[origin] {
			return true
		}
	}
	return false
}

// Refresh replaces the state of a copy that fell behind with a newer snapshot.
// Participants still present keep their mailbox and are told what changed since,
// the mailboxes of the others are closed. Local numbering never goes backwards.
func (s *Session) Refresh(snap SessionSnapshot) bool {
	if !s.IsBehind(snap) {
		return false
	}
	fresh := RestoreSession(snap, s.node)

	var joined []*Participant
	kept := make(map[*Participant]bool)
	for _, p := range fresh.participants {
		old, ok := s.Participant(p.Name)
		if !ok || old.tenure != p.tenure {
			joined = append(joined, p)
			continue
		}
		p.Mailbox = old.Mailbox
		p.UpdateActivity(old.LastActivity)
		kept[old] = true
	}
	var left []*Participant
	for _, old := range s.participants {
		if !kept[old] {
			old.Mailbox.Close()
			left = append(left, old)
		}
	}
	oldFacilitator, _ := s.Facilitator()
	oldState, oldRound, oldCards := s.state, s.round, s.cards

	if snap.Owner != "" {
		s.Owner = snap.Owner
	}
	s.state = fresh.state
	s.round = fresh.round
	s.participants = fresh.participants
	s.nextTenure = max(s.nextTenure, fresh.nextTenure)
	s.cards = fresh.cards
	s.departed = fresh.departed
	s.result = fresh.result
	s.timerEnd = fresh.timerEnd
	s.Touch(fresh.lastActivity)
	for origin, seq := range fresh.applied {
		if seq > s.applied[origin] {
			s.applied[origin] = seq
		}
	}
	s.seq = max(s.seq, s.applied[s.node])

	for _, p := range left {
		s.broadcast(ParticipantDisconnectedMessage{Name: p.Name})
	}
	for _, p := range joined {
		s.broadcast(ParticipantJoinedMessage{Name: p.Name, Role: p.Role})
	}
	if f, ok := s.Facilitator(); ok && (oldFacilitator == nil || oldFacilitator.Name != f.Name) {
		s.broadcast(FacilitatorPromotedMessage{Name: f.Name})
	}
	if !sameEstimations(oldCards, s.cards) {
		s.broadcast(AvailableEstimationsChangedMessage{Values: s.AvailableEstimations()})
	}
	if oldState != s.state || oldRound != s.round {
		switch s.state {
		case Estimating:
			s.broadcast(EstimationStartedMessage{Round: s.round})
		case Finished:
			s.broadcast(EstimationEndedMessage{Round: s.round, Result: s.Result()})
		case Idle:
			if oldState == Estimating {
				s.broadcast(EstimationCanceledMessage{Round: oldRound})
			}
		}
	}
	return true
}

func sameEstimations(a, b []Estimation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
