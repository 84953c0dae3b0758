package runtime

import (
	"context"
	"log/slog"
	"planning-poker/domain"
	"planning-poker/errors"
	"time"
)

// Delivery serves participant mailboxes with long-polling.
type Delivery struct {
	log      *slog.Logger
	registry *Registry
}

func NewDelivery(log *slog.Logger, registry *Registry) *Delivery {
	return &Delivery{log: log, registry: registry}
}

// GetMessages acknowledges the messages up to lastID and returns the pending ones.
// A poll counts as activity of both the participant and the session.
// With nothing pending it waits, without holding the session lock, until a message
// arrives, the timeout elapses, a newer wait supersedes this one, the participant
// disconnects, or ctx is done. Every outcome but a message returns an empty slice.
func (d *Delivery) GetMessages(ctx context.Context, session, participant string, lastID int64, timeout time.Duration) ([]domain.Message, error) {
	var (
		messages []domain.Message
		mailbox  *domain.Mailbox
		signal   <-chan struct{}
		ticket   *domain.WaitTicket
	)
	err := d.registry.Execute(ctx, session, func(s *domain.Session) error {
		p, ok := s.Participant(participant)
		if !ok {
			return errors.Newf(errors.CodeParticipantNotFound, "participant %q not in %q", participant, s.Name)
		}
		now := d.registry.now()
		p.UpdateActivity(now)
		s.Touch(now)
		p.Mailbox.Acknowledge(lastID)
		if p.Mailbox.HasMessage() {
			messages = p.Mailbox.Pending()
			return nil
		}
		mailbox = p.Mailbox
		signal = mailbox.Signal()
		ticket = mailbox.BeginWait()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if messages != nil {
		return messages, nil
	}
	defer mailbox.EndWait(ticket)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-signal:
	case <-ticket.Done():
		d.log.Debug("Long-poll ended without message", "session", session, "participant", participant)
		return []domain.Message{}, nil
	case <-timer.C:
		return []domain.Message{}, nil
	case <-ctx.Done():
		return []domain.Message{}, nil
	}

	err = d.registry.Execute(ctx, session, func(s *domain.Session) error {
		p, ok := s.Participant(participant)
		if !ok || p.Mailbox != mailbox {
			return nil
		}
		messages = p.Mailbox.Pending()
		return nil
	})
	if err != nil || messages == nil {
		return []domain.Message{}, nil
	}
	return messages, nil
}
