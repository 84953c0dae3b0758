// Package domain contains core concepts of the planning poker system.
// This file defines Participant entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	Observer    Role = "observer"
	Member      Role = "member"
	Facilitator Role = "facilitator"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(s)); r {
	case Observer, Member, Facilitator:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// CanVote reports whether the role holds an estimation slot.
func (r Role) CanVote() bool {
	return r == Member || r == Facilitator
}

// Participant is owned by exactly one Session. Session keeps the owning
// session name only, the Session holds the authoritative participant table.
type Participant struct {
	Name         string
	Role         Role
	Session      string
	Node         string
	JoinedAt     time.Time
	LastActivity time.Time
	Mailbox      *Mailbox
	// Estimation is nil until the participant votes in the current round.
	Estimation *Estimation

	tenure int
}

func newParticipant(session, name string, role Role, node string, tenure int, now time.Time) *Participant {
	return &Participant{
		Name:         name,
		Role:         role,
		Session:      session,
		Node:         node,
		JoinedAt:     now,
		LastActivity: now,
		Mailbox:      NewMailbox(),
		tenure:       tenure,
	}
}

func (p *Participant) UpdateActivity(now time.Time) {
	if now.After(p.LastActivity) {
		p.LastActivity = now
	}
}

// Tenure is the join ordinal inside the session, lower joined earlier.
func (p *Participant) Tenure() int {
	return p.tenure
}
