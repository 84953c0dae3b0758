package workers

import (
	"context"
	"log/slog"
	"planning-poker/contract"
	"planning-poker/infrastructure/storage"
	"time"
)

// SweeperWorker runs the periodic maintenance of the node: it disconnects inactive
// participants, evicts expired sessions, snapshots owned sessions and purges
// expired entries from storage.
type SweeperWorker struct {
	log               *slog.Logger
	sessions          contract.ISessionSweeper
	repository        storage.ISessionRepository
	interval          time.Duration
	inactivityTimeout time.Duration
	sessionExpiration time.Duration
	now               func() time.Time
}

func NewSweeperWorker(log *slog.Logger, sessions contract.ISessionSweeper, repository storage.ISessionRepository,
	interval, inactivityTimeout, sessionExpiration time.Duration) *SweeperWorker {
	return &SweeperWorker{
		log:               log,
		sessions:          sessions,
		repository:        repository,
		interval:          interval,
		inactivityTimeout: inactivityTimeout,
		sessionExpiration: sessionExpiration,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (w *SweeperWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping sweeper")
			return nil
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep runs one maintenance pass.
func (w *SweeperWorker) Sweep(ctx context.Context) {
	now := w.now()
	if n := w.sessions.DisconnectInactive(ctx, now.Add(-w.inactivityTimeout)); n > 0 {
		w.log.Info("Inactive participants disconnected", "count", n)
	}

	sessionCutoff := now.Add(-w.sessionExpiration)
	if evicted := w.sessions.EvictExpired(ctx, sessionCutoff); len(evicted) > 0 {
		w.log.Info("Expired sessions evicted", "sessions", evicted)
	}

	if err := w.sessions.SaveAll(ctx); err != nil {
		w.log.Warn("Failed to snapshot sessions", "error", err)
	}

	deleted, err := w.repository.DeleteExpiredSessions(sessionCutoff)
	if err != nil {
		w.log.Warn("Failed to purge stored sessions", "error", err)
	} else if len(deleted) > 0 {
		w.log.Info("Stored sessions purged", "sessions", deleted)
	}
	w.log.Debug("Sweep done", "sessions", w.sessions.Count())
}
