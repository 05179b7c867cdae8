package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/repo/postgres"
	"github.com/flarehq/flarepp/internal/security"
)

// EnsureSeedUsers creates the dev creator and editor accounts when the
// seed env vars are set. No-op in real deployments.
func EnsureSeedUsers(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	seeds := []struct {
		email    string
		password string
		name     string
		role     user.Role
	}{
		{cfg.SeedCreatorEmail, cfg.SeedCreatorPassword, "Dev Creator", user.RoleCreator},
		{cfg.SeedEditorEmail, cfg.SeedEditorPassword, "Dev Editor", user.RoleEditor},
	}

	repo := postgres.NewUsersRepo(pool, nil)

	for _, s := range seeds {
		if s.email == "" || s.password == "" {
			continue
		}

		var dummy string

		err := pool.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = lower($1)`, s.email).Scan(&dummy)

		if err == nil {
			continue
		}

		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		hash, err := security.HashPassword(s.password)

		if err != nil {
			return err
		}

		_, err = repo.Create(ctx, postgres.CreateUserParams{
			Email:        s.email,
			PasswordHash: hash,
			Name:         s.name,
			Role:         s.role,
		})

		if err != nil && !errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			return err
		}
	}

	return nil
}
