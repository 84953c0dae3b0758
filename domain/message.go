package domain

import "time"

type MessageKind string

const (
	ParticipantJoinedKind          MessageKind = "PARTICIPANT_JOINED"
	ParticipantDisconnectedKind    MessageKind = "PARTICIPANT_DISCONNECTED"
	FacilitatorPromotedKind        MessageKind = "FACILITATOR_PROMOTED"
	EstimationStartedKind          MessageKind = "ESTIMATION_STARTED"
	MemberEstimatedKind            MessageKind = "MEMBER_ESTIMATED"
	EstimationEndedKind            MessageKind = "ESTIMATION_ENDED"
	EstimationCanceledKind         MessageKind = "ESTIMATION_CANCELED"
	AvailableEstimationsChangeKind MessageKind = "AVAILABLE_ESTIMATIONS_CHANGED"
	TimerStartedKind               MessageKind = "TIMER_STARTED"
	TimerCanceledKind              MessageKind = "TIMER_CANCELED"
)

// Message is one entry of a participant mailbox.
// ID is scoped to the participant and strictly increasing.
type Message struct {
	ID      int64
	Payload MessagePayload
}

func (m Message) Kind() MessageKind {
	return m.Payload.Kind()
}

// MessagePayload is the closed set of mailbox payloads.
type MessagePayload interface {
	Kind() MessageKind
	isMessage()
}

type ParticipantJoinedMessage struct {
	Name string
	Role Role
}

type ParticipantDisconnectedMessage struct {
	Name string
}

type FacilitatorPromotedMessage struct {
	Name string
}

type EstimationStartedMessage struct {
	Round int
}

// MemberEstimatedMessage tells others that Name voted, without the value.
type MemberEstimatedMessage struct {
	Name string
}

type EstimationEndedMessage struct {
	Round  int
	Result []EstimationResultItem
}

type EstimationCanceledMessage struct {
	Round int
}

type AvailableEstimationsChangedMessage struct {
	Values []Estimation
}

type TimerStartedMessage struct {
	EndTime time.Time
}

type TimerCanceledMessage struct{}

// EstimationResultItem is one line of a finished round, in join order.
type EstimationResultItem struct {
	Name       string
	Estimation Estimation
}

func (ParticipantJoinedMessage) Kind() MessageKind           { return ParticipantJoinedKind }
func (ParticipantDisconnectedMessage) Kind() MessageKind     { return ParticipantDisconnectedKind }
func (FacilitatorPromotedMessage) Kind() MessageKind         { return FacilitatorPromotedKind }
func (EstimationStartedMessage) Kind() MessageKind           { return EstimationStartedKind }
func (MemberEstimatedMessage) Kind() MessageKind             { return MemberEstimatedKind }
func (EstimationEndedMessage) Kind() MessageKind             { return EstimationEndedKind }
func (EstimationCanceledMessage) Kind() MessageKind          { return EstimationCanceledKind }
func (AvailableEstimationsChangedMessage) Kind() MessageKind { return AvailableEstimationsChangeKind }
func (TimerStartedMessage) Kind() MessageKind                { return TimerStartedKind }
func (TimerCanceledMessage) Kind() MessageKind               { return TimerCanceledKind }

func (ParticipantJoinedMessage) isMessage()           {}
func (ParticipantDisconnectedMessage) isMessage()     {}
func (FacilitatorPromotedMessage) isMessage()         {}
func (EstimationStartedMessage) isMessage()           {}
func (MemberEstimatedMessage) isMessage()             {}
func (EstimationEndedMessage) isMessage()             {}
func (EstimationCanceledMessage) isMessage()          {}
func (AvailableEstimationsChangedMessage) isMessage() {}
func (TimerStartedMessage) isMessage()                {}
func (TimerCanceledMessage) isMessage()               {}
