package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRefreshTokenNotFound = errors.New("refresh token not found")

const refreshTokenColumns = `id, user_id, token_hash, expires_at, revoked_at, replaced_by, created_at`

// RefreshTokenRow mirrors one refresh session. ID doubles as the token's
// jti claim; ReplacedBy chains rotations for audit.
type RefreshTokenRow struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	ReplacedBy *string
	CreatedAt  time.Time
}

// RefreshTokensRepo runs inside caller-owned transactions; rotation needs
// the lock and the insert to commit atomically.
type RefreshTokensRepo struct {
	pool *pgxpool.Pool
}

func NewRefreshTokensRepo(pool *pgxpool.Pool) *RefreshTokensRepo {
	return &RefreshTokensRepo{pool: pool}
}

func (r *RefreshTokensRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

func (r *RefreshTokensRepo) Create(ctx context.Context, tx pgx.Tx, row RefreshTokenRow) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO refresh_tokens (`+refreshTokenColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.RevokedAt, row.ReplacedBy, row.CreatedAt,
	)

	return err
}

// GetForUpdate locks the row so two concurrent refreshes of the same token
// cannot both rotate it.
func (r *RefreshTokensRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (RefreshTokenRow, error) {
	row, err := scanRefreshToken(tx.QueryRow(ctx,
		`SELECT `+refreshTokenColumns+`
		 FROM refresh_tokens
		 WHERE id = $1
		 FOR UPDATE`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshTokenRow{}, ErrRefreshTokenNotFound
	}

	return row, err
}

func (r *RefreshTokensRepo) Revoke(ctx context.Context, tx pgx.Tx, id string, replacedBy *string) error {
	_, err := tx.Exec(ctx,
		`UPDATE refresh_tokens
		 SET revoked_at = NOW(), replaced_by = $2
		 WHERE id = $1`, id, replacedBy)

	return err
}

func scanRefreshToken(row pgx.Row) (RefreshTokenRow, error) {
	var t RefreshTokenRow

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.RevokedAt,
		&t.ReplacedBy,
		&t.CreatedAt,
	)

	return t, err
}
