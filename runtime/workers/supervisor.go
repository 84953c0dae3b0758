package workers

import (
	"context"
	"log/slog"
	"planning-poker/contract"
	"planning-poker/errors"
	"sync"
	"time"
)

// Supervisor runs each worker in its own goroutine, recovers panics,
// restarts failed workers after the restart interval and stops them all
// when the parent context is canceled.
type Supervisor struct {
	Cancel          context.CancelFunc
	wg              *sync.WaitGroup
	log             *slog.Logger
	workers         []contract.Worker
	restartInterval time.Duration
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{wg: &sync.WaitGroup{}, log: log, restartInterval: restartInterval}
}

// Run blocks until every worker returned.
// Canceling the parent stops the workers, so does calling Stop.
func (s *Supervisor) Run(ctx context.Context) {
	supervisedCtx, cancel := context.WithCancel(ctx)
	s.Cancel = cancel
	defer s.Cancel()

	for _, worker := range s.workers {
		s.Start(supervisedCtx, worker)
	}
	s.wg.Wait()
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Start runs a worker under supervision. A worker returning nil is finished
// and never restarted; an error or a panic restarts it after the restart interval.
// A failure in one worker never stops the supervisor itself.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	workerName := contract.GetWorkerName(worker)

	go func() {
		defer s.wg.Done()

		for {
			if ctx.Err() != nil {
				s.log.Info("Stopping worker", "name", workerName)
				return
			}

			err := func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						s.log.Error("Worker panicked", "name", workerName, "panic", r)
						err = errors.ErrWorkerPanic
					}
				}()
				return worker.Run(ctx)
			}()

			if err == nil {
				s.log.Info("Worker finished", "name", workerName)
				return
			}

			if ctx.Err() != nil {
				s.log.Info("Worker stopped (context canceled)", "name", workerName)
				return
			}

			s.log.Warn("Worker crashed, restarting", "name", workerName, "error", err, "in", s.restartInterval)
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.restartInterval):
			}
		}
	}()
}

// Stop cancels the workers; Run returns once all of them did.
func (s *Supervisor) Stop() {
	if s.Cancel != nil {
		s.Cancel()
	}
}
