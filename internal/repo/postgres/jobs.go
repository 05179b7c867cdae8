package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/flarehq/flarepp/internal/domain/job"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateJob = errors.New("job already enqueued")

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const jobColumns = `id, type, payload, status, attempts, max_attempts,
	run_at, locked_at, locked_by, last_error, idempotency_key, user_id, created_at, updated_at`

func scanJob(row pgx.Row) (job.Job, error) {
	var j job.Job
	var status string

	err := row.Scan(
		&j.ID, &j.Type, &j.Payload, &status,
		&j.Attempts, &j.MaxAttempts,
		&j.RunAt, &j.LockedAt, &j.LockedBy,
		&j.LastError, &j.IdempotencyKey, &j.UserID, &j.CreatedAt, &j.UpdatedAt,
	)

	if err != nil {
		return job.Job{}, err
	}

	j.Status = job.Status(status)

	return j, nil
}

func (r *JobsRepo) Create(ctx context.Context, req job.CreateRequest) (job.Job, error) {
	j := job.New(req)

	err := r.observe("jobs.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO jobs (id, type, payload, status, attempts, max_attempts,
			  run_at, locked_at, locked_by, last_error, idempotency_key, user_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
			j.ID, j.Type, j.Payload, string(j.Status), j.Attempts, j.MaxAttempts,
			j.RunAt, j.LockedAt, j.LockedBy, j.LastError, j.IdempotencyKey, j.UserID, j.CreatedAt, j.UpdatedAt,
		)
		return err
	})

	if err != nil {
		// unique partial index on idempotency_key for non-terminal jobs
		if IsUniqueViolation(err) {
			return job.Job{}, ErrDuplicateJob
		}

		return job.Job{}, err
	}

	return j, nil
}

// ClaimNext claims one runnable job using the SKIP LOCKED pattern, so any
// number of workers can poll the same table without stepping on each other.
func (r *JobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	var j job.Job
	var err error

	err = r.observe("jobs.claim_next", func() error {
		j, err = scanJob(r.pool.QueryRow(ctx, `
			WITH next AS (
				SELECT id
				FROM jobs
				WHERE status = 'pending'
				  AND run_at <= NOW()
				  AND attempts < max_attempts
				ORDER BY run_at ASC, created_at ASC
				FOR UPDATE SKIP LOCKED
				LIMIT 1
			)
			UPDATE jobs
			SET status = 'processing',
			    locked_at = NOW(),
			    locked_by = $1,
			    updated_at = NOW()
			WHERE id = (SELECT id FROM next)
			RETURNING `+jobColumns,
			workerID))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound // no job available
		}
		return job.Job{}, err
	}

	return j, nil
}

func (r *JobsRepo) MarkDone(ctx context.Context, id string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.mark_done", func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE jobs
			 SET status = 'done',
			     locked_at = NULL,
			     locked_by = NULL,
			     last_error = NULL,
			     updated_at = NOW()
			 WHERE id = $1`, id)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.mark_failed", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'failed',
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = $2,
			    updated_at = NOW()
			WHERE id = $1
		`, id, errMsg)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// Reschedule is used for retries/backoff.
func (r *JobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("jobs.reschedule", func() error {
		tag, err = r.pool.Exec(ctx, `
			UPDATE jobs
			SET status = 'pending',
			    attempts = attempts + 1,
			    run_at = $2,
			    locked_at = NULL,
			    locked_by = NULL,
			    last_error = $3,
			    updated_at = NOW()
			WHERE id = $1
		`, id, runAt, errMsg)
		return err
	})

	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

func (r *JobsRepo) GetByID(ctx context.Context, id string) (job.Job, error) {
	var j job.Job
	var err error

	err = r.observe("jobs.get_by_id", func() error {
		j, err = scanJob(r.pool.QueryRow(ctx,
			`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrJobNotFound
		}
		return job.Job{}, err
	}

	return j, nil
}
