package services

import (
	"planning-poker/domain"
	"time"
)

type JoinCommand struct {
	Session     string `validate:"required,max=100"`
	Participant string `validate:"required,max=50"`
	Role        string `validate:"required,oneof=observer member facilitator"`
}

// ParticipantCommand addresses one participant of a session.
type ParticipantCommand struct {
	Session     string `validate:"required,max=100"`
	Participant string `validate:"required,max=50"`
}

// ReconnectCommand attaches a participant to this node. LastID is the last message
// the client received, from whichever node served it.
type ReconnectCommand struct {
	Session     string `validate:"required,max=100"`
	Participant string `validate:"required,max=50"`
	LastID      int64  `validate:"gte=0"`
}

type SubmitEstimationCommand struct {
	Session     string `validate:"required,max=100"`
	Participant string `validate:"required,max=50"`
	// Value is nil for the null card.
	Value *float64
}

type SetAvailableEstimationsCommand struct {
	Session     string `validate:"required,max=100"`
	Participant string `validate:"required,max=50"`
	// Values holds nil for the null card.
	Values []*float64 `validate:"required,min=1,max=50"`
}

type StartTimerCommand struct {
	Session     string        `validate:"required,max=100"`
	Participant string        `validate:"required,max=50"`
	Duration    time.Duration `validate:"required,gt=0"`
}

type GetMessagesCommand struct {
	Session     string `validate:"required,max=100"`
	Participant string `validate:"required,max=50"`
	LastID      int64  `validate:"gte=0"`
	// Timeout overrides the node long-poll timeout when positive.
	Timeout time.Duration
}

// SessionView is the read model of a session for clients.
type SessionView struct {
	Name                 string
	Owner                string
	State                domain.State
	Round                int
	Participants         []ParticipantView
	AvailableEstimations []domain.Estimation
	Result               []domain.EstimationResultItem
	TimerEndTime         *time.Time
	// LastMessageID is the lastID to poll with next, set for the joining or reconnecting participant.
	LastMessageID int64
}

// ParticipantView hides the estimation value, only whether it was cast.
type ParticipantView struct {
	Name      string
	Role      domain.Role
	Estimated bool
}
