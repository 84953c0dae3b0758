package workers

import (
	"context"
	"log/slog"
	"os"
	"planning-poker/contract"
	"planning-poker/domain"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HeartbeatWorker announces the node on the bus every interval with its process
// stats, then purges the peers that stopped announcing themselves.
type HeartbeatWorker struct {
	log        *slog.Logger
	heartbeat  contract.IHeartbeater
	sessions   func() int
	interval   time.Duration
	now        func() time.Time
	newProcess func(pid int32) (*process.Process, error)
}

func NewHeartbeatWorker(log *slog.Logger, heartbeat contract.IHeartbeater, sessions func() int, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{
		log:        log,
		heartbeat:  heartbeat,
		sessions:   sessions,
		interval:   interval,
		now:        func() time.Time { return time.Now().UTC() },
		newProcess: process.NewProcess,
	}
}

func (w *HeartbeatWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := w.newProcess(int32(os.Getpid()))
	if err != nil {
		w.log.Warn("Process stats unavailable", "error", err)
		p = nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.beat(ctx, p)
		}
	}
}

// beat skips the announcement until the handshake is over: a node still
// collecting state must not be asked for it.
func (w *HeartbeatWorker) beat(ctx context.Context, p *process.Process) {
	if w.heartbeat.IsInitialized() {
		stats := selfStats(p)
		stats.Sessions = w.sessions()
		if err := w.heartbeat.Heartbeat(ctx, stats); err != nil {
			w.log.Warn("Bus unreachable for heartbeat", "error", err)
		}
	}
	if purged := w.heartbeat.PurgeSilentPeers(ctx, w.now()); len(purged) > 0 {
		w.log.Info("Silent peers purged", "peers", purged)
	}
}

// selfStats collects memory, cpu and status of the process, zero values when unavailable.
func selfStats(p *process.Process) domain.NodeStats {
	stats := domain.NodeStats{PID: int32(os.Getpid())}
	if p == nil {
		return stats
	}
	if memInfo, err := p.MemoryInfo(); err == nil {
		stats.RSSBytes = memInfo.RSS
	}
	if cpu, err := p.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	if status, err := p.Status(); err == nil {
		stats.Status = status
	}
	return stats
}
