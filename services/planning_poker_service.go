package services

import (
	"context"
	"log/slog"
	"planning-poker/domain"
	"planning-poker/errors"
	"planning-poker/runtime"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

type IPlanningPokerService interface {
	Join(ctx context.Context, cmd JoinCommand) (SessionView, error)
	Reconnect(ctx context.Context, cmd ReconnectCommand) (SessionView, error)
	Disconnect(ctx context.Context, cmd ParticipantCommand) error
	StartEstimation(ctx context.Context, cmd ParticipantCommand) error
	SubmitEstimation(ctx context.Context, cmd SubmitEstimationCommand) error
	CancelEstimation(ctx context.Context, cmd ParticipantCommand) error
	SetAvailableEstimations(ctx context.Context, cmd SetAvailableEstimationsCommand) error
	StartTimer(ctx context.Context, cmd StartTimerCommand) error
	CancelTimer(ctx context.Context, cmd ParticipantCommand) error
	GetMessages(ctx context.Context, cmd GetMessagesCommand) ([]domain.Message, error)
	GetSession(ctx context.Context, session string) (SessionView, error)
	SessionCount() int
	IsInitialized() bool
}

// PlanningPokerService is the request-handling surface of a node. Requests are
// refused with NotInitialized until the node finished its handshake.
type PlanningPokerService struct {
	log             *slog.Logger
	node            *runtime.Node
	validate        *validator.Validate
	longPollTimeout time.Duration
	now             func() time.Time
}

var _ IPlanningPokerService = (*PlanningPokerService)(nil)

func NewPlanningPokerService(log *slog.Logger, node *runtime.Node, longPollTimeout time.Duration) *PlanningPokerService {
	return &PlanningPokerService{
		log:             log,
		node:            node,
		validate:        validator.New(),
		longPollTimeout: longPollTimeout,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *PlanningPokerService) check(cmd any) error {
	if !s.node.IsInitialized() {
		return errors.ErrNotInitialized
	}
	if err := s.validate.Struct(cmd); err != nil {
		return errors.Wrap(errors.CodeInvalidArgument, "invalid request", err)
	}
	return nil
}

// Join creates the session on first use. The creator's role is honored.
func (s *PlanningPokerService) Join(ctx context.Context, cmd JoinCommand) (SessionView, error) {
	if err := s.check(cmd); err != nil {
		return SessionView{}, err
	}
	role, err := domain.ParseRole(cmd.Role)
	if err != nil {
		return SessionView{}, errors.Wrap(errors.CodeInvalidArgument, "invalid role", err)
	}
	var view SessionView
	err = s.node.Registry.ExecuteOrCreate(ctx, cmd.Session, func(session *domain.Session) error {
		p, err := session.Join(cmd.Participant, role, s.now())
		if err != nil {
			return err
		}
		view = toSessionView(session)
		view.LastMessageID = p.Mailbox.Cursor()
		return nil
	})
	if err != nil {
		return SessionView{}, err
	}
	s.log.Info("Participant joined", "session", view.Name, "participant", cmd.Participant, "role", role)
	return view, nil
}

// Reconnect attaches an existing participant to this node, which may not be the one
// that served it so far.
func (s *PlanningPokerService) Reconnect(ctx context.Context, cmd ReconnectCommand) (SessionView, error) {
	if err := s.check(cmd); err != nil {
		return SessionView{}, err
	}
	var view SessionView
	err := s.node.Registry.Execute(ctx, cmd.Session, func(session *domain.Session) error {
		p, err := session.Reconnect(cmd.Participant, cmd.LastID, s.now())
		if err != nil {
			return err
		}
		view = toSessionView(session)
		view.LastMessageID = p.Mailbox.Cursor()
		return nil
	})
	return view, err
}

func (s *PlanningPokerService) Disconnect(ctx context.Context, cmd ParticipantCommand) error {
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.Disconnect(cmd.Participant, now)
	})
}

func (s *PlanningPokerService) StartEstimation(ctx context.Context, cmd ParticipantCommand) error {
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.StartEstimation(cmd.Participant, now)
	})
}

func (s *PlanningPokerService) SubmitEstimation(ctx context.Context, cmd SubmitEstimationCommand) error {
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.SubmitEstimation(cmd.Participant, domain.EstimationFromPtr(cmd.Value), now)
	})
}

func (s *PlanningPokerService) CancelEstimation(ctx context.Context, cmd ParticipantCommand) error {
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.CancelEstimation(cmd.Participant, now)
	})
}

func (s *PlanningPokerService) SetAvailableEstimations(ctx context.Context, cmd SetAvailableEstimationsCommand) error {
	values := lo.Map(cmd.Values, func(v *float64, _ int) domain.Estimation { return domain.EstimationFromPtr(v) })
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.SetAvailableEstimations(cmd.Participant, values, now)
	})
}

func (s *PlanningPokerService) StartTimer(ctx context.Context, cmd StartTimerCommand) error {
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.StartTimer(cmd.Participant, cmd.Duration, now)
	})
}

func (s *PlanningPokerService) CancelTimer(ctx context.Context, cmd ParticipantCommand) error {
	return s.execute(ctx, cmd, cmd.Session, cmd.Participant, func(session *domain.Session, now time.Time) error {
		return session.CancelTimer(cmd.Participant, now)
	})
}

// GetMessages long-polls the participant mailbox.
func (s *PlanningPokerService) GetMessages(ctx context.Context, cmd GetMessagesCommand) ([]domain.Message, error) {
	if err := s.check(cmd); err != nil {
		return nil, err
	}
	timeout := lo.Ternary(cmd.Timeout > 0, cmd.Timeout, s.longPollTimeout)
	return s.node.Delivery.GetMessages(ctx, cmd.Session, cmd.Participant, cmd.LastID, timeout)
}

func (s *PlanningPokerService) GetSession(ctx context.Context, name string) (SessionView, error) {
	if !s.node.IsInitialized() {
		return SessionView{}, errors.ErrNotInitialized
	}
	var view SessionView
	err := s.node.Registry.Execute(ctx, name, func(session *domain.Session) error {
		view = toSessionView(session)
		return nil
	})
	return view, err
}

func (s *PlanningPokerService) SessionCount() int {
	return s.node.Registry.Count()
}

func (s *PlanningPokerService) IsInitialized() bool {
	return s.node.IsInitialized()
}

// execute runs a participant action and records the participant activity.
func (s *PlanningPokerService) execute(ctx context.Context, cmd any, name, participant string,
	fn func(session *domain.Session, now time.Time) error) error {
	if err := s.check(cmd); err != nil {
		return err
	}
	return s.node.Registry.Execute(ctx, name, func(session *domain.Session) error {
		now := s.now()
		err := fn(session, now)
		if err != nil {
			s.log.Debug("Command refused", "session", session.Name, "error", err)
			return err
		}
		if p, ok := session.Participant(participant); ok {
			p.UpdateActivity(now)
		}
		session.Touch(now)
		return nil
	})
}

func toSessionView(s *domain.Session) SessionView {
	view := SessionView{
		Name:                 s.Name,
		Owner:                s.Owner,
		State:                s.State(),
		Round:                s.Round(),
		AvailableEstimations: s.AvailableEstimations(),
		Result:               s.Result(),
		Participants: lo.Map(s.Participants(), func(p *domain.Participant, _ int) ParticipantView {
			return ParticipantView{Name: p.Name, Role: p.Role, Estimated: p.Estimation != nil}
		}),
	}
	if end, ok := s.TimerEndTime(); ok {
		view.TimerEndTime = &end
	}
	return view
}
