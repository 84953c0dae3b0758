package workers

import (
	"context"
	"fmt"
	"log/slog"
	"planning-poker/mocks"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSupervisor_RestartOnPanic(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	var calls atomic.Int32
	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(slog.Default(), 50*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// When the worker keeps panicking
	sup.Add(workerMock).Run(ctx)

	// Then it was restarted
	req.GreaterOrEqual(calls.Load(), int32(2))
}

func TestSupervisor_RestartOnError(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker failing once then finishing
	gomock.InOrder(
		workerMock.EXPECT().Run(gomock.Any()).Return(fmt.Errorf("subscription lost")),
		workerMock.EXPECT().Run(gomock.Any()).Return(nil),
	)

	sup := NewSupervisor(slog.Default(), 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("worker not restarted")
	}
}

func TestSupervisor_StopOnSuccess(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)

	// Given a worker running only once
	workerMock.EXPECT().
		Run(gomock.Any()).
		Return(nil).
		Times(1)

	sup := NewSupervisor(slog.Default(), time.Second)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then the supervisor stopped after the success
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Stop_Cancels_Workers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	workerMock := mocks.NewMockWorker(ctrl)
	started := make(chan struct{})

	workerMock.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})

	sup := NewSupervisor(slog.Default(), time.Second)
	done := make(chan struct{})
	go func() {
		sup.Add(workerMock).Run(context.Background())
		close(done)
	}()
	<-started

	// When the supervisor is stopped
	sup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("workers not stopped")
	}
}
