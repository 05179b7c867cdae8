package worker

import (
	"context"
	"errors"
	"time"

	"github.com/flarehq/flarepp/internal/domain/job"
)

// ProcessOne claims and runs a single job. The bool reports whether a job
// was available at all.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
		defer w.prom.JobsInFlight.Dec()
	}

	start := time.Now()

	execCtx, cancelExec := context.WithTimeout(ctx, w.cfg.ExecTimeout)
	err = w.execute(execCtx, j)
	cancelExec()

	result := "done"

	if err != nil {
		result = w.handleFailure(ctx, j, err)
	} else {
		err = w.repo.MarkDone(ctx, j.ID)

		if err != nil {
			_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
			result = "failed"
		}
	}

	if w.prom != nil {
		w.prom.JobResults.WithLabelValues(j.Type, result).Inc()
		w.prom.JobDuration.WithLabelValues(j.Type, result).Observe(time.Since(start).Seconds())
	}

	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	e, ok := w.executors[j.Type]

	if !ok {
		return errors.New("no executor registered for type " + j.Type)
	}

	return e.Execute(ctx, j)
}

// handleFailure reschedules with backoff until attempts run out, then the
// job goes to failed with its last error recorded.
func (w *Worker) handleFailure(ctx context.Context, j job.Job, execErr error) string {
	nextAttempt := j.Attempts + 1

	if nextAttempt >= j.MaxAttempts {
		w.log.Error("job failed permanently", "job_id", j.ID, "type", j.Type, "attempts", nextAttempt, "err", execErr)
		_ = w.repo.MarkFailed(ctx, j.ID, execErr.Error())
		return "failed"
	}

	delay := ExponentialBackoff(j.Attempts)
	w.log.Warn("job failed, rescheduling", "job_id", j.ID, "type", j.Type, "attempt", nextAttempt, "retry_in", delay, "err", execErr)

	_ = w.repo.Reschedule(ctx, j.ID, time.Now().UTC().Add(delay), execErr.Error())
	return "retry"
}
