package domain

import "time"

type EventKind string

const (
	SessionCreatedType              EventKind = "SESSION_CREATED"
	ParticipantJoinedType           EventKind = "PARTICIPANT_JOINED"
	ParticipantReconnectedType      EventKind = "PARTICIPANT_RECONNECTED"
	ParticipantDisconnectedType     EventKind = "PARTICIPANT_DISCONNECTED"
	FacilitatorPromotedType         EventKind = "FACILITATOR_PROMOTED"
	EstimationStartedType           EventKind = "ESTIMATION_STARTED"
	EstimationSubmittedType         EventKind = "ESTIMATION_SUBMITTED"
	EstimationEndedType             EventKind = "ESTIMATION_ENDED"
	EstimationCanceledType          EventKind = "ESTIMATION_CANCELED"
	AvailableEstimationsChangedType EventKind = "AVAILABLE_ESTIMATIONS_CHANGED"
	TimerStartedType                EventKind = "TIMER_STARTED"
	TimerCanceledType               EventKind = "TIMER_CANCELED"
)

// Event is an immutable record of one session transition.
// Seq is increasing per (Session, Node): every node numbers the events it produces.
type Event struct {
	Session string
	Node    string
	Seq     uint64
	At      time.Time
	Payload EventPayload
}

func (e Event) Kind() EventKind {
	return e.Payload.Kind()
}

// EventPayload is the closed set of domain event payloads.
type EventPayload interface {
	Kind() EventKind
	isEvent()
}

type SessionCreated struct {
	Cards []Estimation
}

type ParticipantJoined struct {
	Name string
	Role Role
	Node string
	At   time.Time
}

// ParticipantReconnected moves the participant's home to Node.
type ParticipantReconnected struct {
	Name string
	Node string
}

type ParticipantDisconnected struct {
	Name string
}

type FacilitatorPromoted struct {
	Name string
}

type EstimationStarted struct {
	Round int
}

type EstimationSubmitted struct {
	Name  string
	Value Estimation
}

type EstimationEnded struct {
	Round  int
	Result []EstimationResultItem
}

type EstimationCanceled struct {
	Round int
}

type AvailableEstimationsChanged struct {
	Values []Estimation
}

type TimerStarted struct {
	EndTime time.Time
}

type TimerCanceled struct{}

func (SessionCreated) Kind() EventKind              { return SessionCreatedType }
func (ParticipantJoined) Kind() EventKind           { return ParticipantJoinedType }
func (ParticipantReconnected) Kind() EventKind      { return ParticipantReconnectedType }
func (ParticipantDisconnected) Kind() EventKind     { return ParticipantDisconnectedType }
func (FacilitatorPromoted) Kind() EventKind         { return FacilitatorPromotedType }
func (EstimationStarted) Kind() EventKind           { return EstimationStartedType }
func (EstimationSubmitted) Kind() EventKind         { return EstimationSubmittedType }
func (EstimationEnded) Kind() EventKind             { return EstimationEndedType }
func (EstimationCanceled) Kind() EventKind          { return EstimationCanceledType }
func (AvailableEstimationsChanged) Kind() EventKind { return AvailableEstimationsChangedType }
func (TimerStarted) Kind() EventKind                { return TimerStartedType }
func (TimerCanceled) Kind() EventKind               { return TimerCanceledType }

func (SessionCreated) isEvent()              {}
func (ParticipantJoined) isEvent()           {}
func (ParticipantReconnected) isEvent()      {}
func (ParticipantDisconnected) isEvent()     {}
func (FacilitatorPromoted) isEvent()         {}
func (EstimationStarted) isEvent()           {}
func (EstimationSubmitted) isEvent()         {}
func (EstimationEnded) isEvent()             {}
func (EstimationCanceled) isEvent()          {}
func (AvailableEstimationsChanged) isEvent() {}
func (TimerStarted) isEvent()                {}
func (TimerCanceled) isEvent()               {}
