package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// pg error codes we care to break out; anything else gets the raw code.
var pgErrClasses = map[string]string{
	"23505": "unique_violation",
	"23503": "fk_violation",
	"40001": "serialization_failure",
	"40P01": "deadlock",
	"57014": "query_canceled",
}

// ObserveDB wraps a logical repo operation with duration/error metrics.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()

	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())

	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError

	switch {
	case errors.As(err, &pgErr):
		if class, ok := pgErrClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "unknown"
	}
}
