package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailAlreadyUsed = errors.New("email already used")
)

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

type CreateUserParams struct {
	Email        string
	PasswordHash string // empty for google-created accounts
	Name         string
	AvatarURL    string
	Role         user.Role
	Speciality   *string
}

// Create inserts a new user. The unique index on lower(email) resolves the
// race between two concurrent signups; the loser gets ErrEmailAlreadyUsed.
func (r *UsersRepo) Create(ctx context.Context, params CreateUserParams) (user.User, error) {
	now := time.Now().UTC()

	avatar := params.AvatarURL

	if avatar == "" {
		avatar = user.DefaultAvatarURL
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Name:         params.Name,
		AvatarURL:    avatar,
		Role:         params.Role,
		Speciality:   params.Speciality,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var hash *string

	if params.PasswordHash != "" {
		hash = &params.PasswordHash
	}

	err := r.observe("users.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, name, avatar_url, role, speciality, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			u.ID, u.Email, hash, u.Name, u.AvatarURL, string(u.Role), u.Speciality, u.CreatedAt, u.UpdatedAt,
		)
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, ErrEmailAlreadyUsed
		}

		return user.User{}, err
	}

	return u, nil
}

const userColumns = `id, email, COALESCE(password_hash, ''), name, avatar_url, role, youtube_channel_id, speciality, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.AvatarURL,
		&role,
		&u.YouTubeChannelID,
		&u.Speciality,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		return user.User{}, err
	}

	u.Role = user.Role(role)

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_email", func() error {
		u, err = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
			email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.get_by_id", func() error {
		u, err = scanUser(r.pool.QueryRow(
			ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

// ListEditors powers the editor directory shown to creators.
func (r *UsersRepo) ListEditors(ctx context.Context) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list_editors", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users WHERE role = 'editor' ORDER BY name ASC, id ASC`,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// AddPreferredEditor is idempotent; re-assigning the same editor is not an error.
func (r *UsersRepo) AddPreferredEditor(ctx context.Context, creatorID, editorID string) error {
	return r.observe("users.add_preferred_editor", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO preferred_editors (creator_id, editor_id)
			 VALUES ($1,$2)
			 ON CONFLICT DO NOTHING`,
			creatorID, editorID,
		)
		return err
	})
}

func (r *UsersRepo) ListPreferredEditors(ctx context.Context, creatorID string) ([]user.User, error) {
	var out []user.User

	err := r.observe("users.list_preferred_editors", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+`
			 FROM users u
			 JOIN preferred_editors pe ON pe.editor_id = u.id
			 WHERE pe.creator_id = $1
			 ORDER BY u.name ASC`,
			creatorID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)

			if err != nil {
				return err
			}

			out = append(out, u)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *UsersRepo) SetYouTubeChannel(ctx context.Context, creatorID, channelID string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("users.set_youtube_channel", func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE users
			 SET youtube_channel_id = $2, updated_at = NOW()
			 WHERE id = $1 AND role = 'creator'`,
			creatorID, channelID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

type UpdateProfileParams struct {
	Name       *string
	AvatarURL  *string
	Speciality *string
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, params UpdateProfileParams) (user.User, error) {
	var u user.User
	var err error

	err = r.observe("users.update_profile", func() error {
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			 SET name = COALESCE($2, name),
			     avatar_url = COALESCE($3, avatar_url),
			     speciality = COALESCE($4, speciality),
			     updated_at = NOW()
			 WHERE id = $1
			 RETURNING `+userColumns,
			id, params.Name, params.AvatarURL, params.Speciality,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, ErrUserNotFound
		}

		return user.User{}, err
	}

	return u, nil
}
