package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flarehq/flarepp/internal/domain/job"
	"github.com/flarehq/flarepp/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
}

// Nudger is the optional redis wake-up; nil falls back to pure polling.
type Nudger interface {
	WaitForNudge(ctx context.Context, timeout time.Duration) (bool, error)
}

// Executor runs one job type.
type Executor interface {
	Execute(ctx context.Context, j job.Job) error
}

type Config struct {
	WorkerID     string
	PollInterval time.Duration
	ExecTimeout  time.Duration
}

type Worker struct {
	cfg       Config
	repo      JobsRepository
	nudger    Nudger
	executors map[string]Executor
	prom      *observability.Prom
	log       *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, nudger Nudger, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = 10 * time.Minute // youtube uploads are slow
	}

	return &Worker{
		cfg:       cfg,
		repo:      repo,
		nudger:    nudger,
		executors: make(map[string]Executor),
		prom:      prom,
		log:       log,
		ready:     true,
	}
}

func (w *Worker) Register(jobType string, e Executor) {
	w.executors[jobType] = e
}

// Run drains runnable jobs, then sleeps on the redis nudge list (or a plain
// ticker) until more work shows up. Returns when ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			w.log.Info("worker shutting down", "worker_id", w.cfg.WorkerID)
			return nil
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil {
			w.log.Error("process job", "err", err)
		}

		if processed {
			// keep draining while there is work
			continue
		}

		w.idle(ctx)
	}
}

func (w *Worker) idle(ctx context.Context) {
	if w.nudger != nil {
		woken, err := w.nudger.WaitForNudge(ctx, w.cfg.PollInterval)

		if err == nil {
			_ = woken
			return
		}

		w.log.Warn("nudge wait failed, falling back to poll", "err", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.PollInterval):
	}
}
