package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/flarehq/flarepp/internal/domain/video"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VideosRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewVideosRepo(pool *pgxpool.Pool, prom *observability.Prom) *VideosRepo {
	return &VideosRepo{pool: pool, prom: prom}
}

func (r *VideosRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const videoColumns = `id, creator_id, editor_id, title, description, short_description,
	video_url, COALESCE(thumbnail_url, ''), status, youtube_video_id, created_at, updated_at`

func scanVideo(row pgx.Row) (video.Video, error) {
	var v video.Video
	var status string

	err := row.Scan(
		&v.ID,
		&v.CreatorID,
		&v.EditorID,
		&v.Title,
		&v.Description,
		&v.ShortDescription,
		&v.VideoURL,
		&v.ThumbnailURL,
		&status,
		&v.YouTubeVideoID,
		&v.CreatedAt,
		&v.UpdatedAt,
	)

	if err != nil {
		return video.Video{}, err
	}

	v.Status = video.Status(status)

	return v, nil
}

func (r *VideosRepo) Create(ctx context.Context, req video.CreateRequest) (video.Video, error) {
	v := video.NewFromCreateRequest(req)

	var thumb *string

	if v.ThumbnailURL != "" {
		thumb = &v.ThumbnailURL
	}

	err := r.observe("videos.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO videos (id, creator_id, editor_id, title, description, short_description,
			  video_url, thumbnail_url, status, youtube_video_id, created_at, updated_at)
			 VALUES ($1,$2,NULL,$3,$4,$5,$6,$7,$8,NULL,$9,$10)`,
			v.ID, v.CreatorID, v.Title, v.Description, v.ShortDescription,
			v.VideoURL, thumb, string(v.Status), v.CreatedAt, v.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return video.Video{}, err
	}

	return v, nil
}

func (r *VideosRepo) GetByID(ctx context.Context, id string) (video.Video, error) {
	var v video.Video
	var err error

	err = r.observe("videos.get_by_id", func() error {
		v, err = scanVideo(r.pool.QueryRow(ctx,
			`SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return video.Video{}, video.ErrNotFound
		}

		return video.Video{}, err
	}

	return v, nil
}

// ListByCreatorCursor returns one page of a creator's videos, newest first.
// hasMore is derived by over-fetching one row beyond limit.
func (r *VideosRepo) ListByCreatorCursor(ctx context.Context, creatorID string, limit int, afterCreatedAt time.Time, afterID string) ([]video.Video, bool, error) {
	var out []video.Video
	hasMore := false

	err := r.observe("videos.list_by_creator", func() error {
		var rows pgx.Rows
		var err error

		if afterID == "" {
			rows, err = r.pool.Query(ctx,
				`SELECT `+videoColumns+`
				 FROM videos
				 WHERE creator_id = $1
				 ORDER BY created_at DESC, id DESC
				 LIMIT $2`,
				creatorID, limit+1,
			)
		} else {
			rows, err = r.pool.Query(ctx,
				`SELECT `+videoColumns+`
				 FROM videos
				 WHERE creator_id = $1
				   AND (created_at, id) < ($2, $3)
				 ORDER BY created_at DESC, id DESC
				 LIMIT $4`,
				creatorID, afterCreatedAt, afterID, limit+1,
			)
		}

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			v, err := scanVideo(rows)

			if err != nil {
				return err
			}

			out = append(out, v)
		}

		if len(out) > limit {
			hasMore = true
			out = out[:limit]
		}

		return rows.Err()
	})

	if err != nil {
		return nil, false, err
	}

	return out, hasMore, nil
}

func (r *VideosRepo) ListByEditor(ctx context.Context, editorID string) ([]video.Video, error) {
	var out []video.Video

	err := r.observe("videos.list_by_editor", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+videoColumns+`
			 FROM videos
			 WHERE editor_id = $1
			 ORDER BY created_at DESC, id DESC`,
			editorID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			v, err := scanVideo(rows)

			if err != nil {
				return err
			}

			out = append(out, v)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Search does a simple ILIKE match over a creator's own videos. Good enough
// for the library sizes we see; revisit with tsvector if catalogs grow.
func (r *VideosRepo) Search(ctx context.Context, creatorID, query string, limit int) ([]video.Video, error) {
	var out []video.Video

	err := r.observe("videos.search", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+videoColumns+`
			 FROM videos
			 WHERE creator_id = $1
			   AND (title ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			creatorID, query, limit,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			v, err := scanVideo(rows)

			if err != nil {
				return err
			}

			out = append(out, v)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// AssignEditor sets the editor and moves the video to assigned in one
// statement, guarded on current status so concurrent assigns cannot clobber
// a video that already moved on.
func (r *VideosRepo) AssignEditor(ctx context.Context, videoID, creatorID, editorID string) (video.Video, error) {
	var v video.Video
	var err error

	err = r.observe("videos.assign_editor", func() error {
		v, err = scanVideo(r.pool.QueryRow(ctx,
			`UPDATE videos
			 SET editor_id = $3, status = 'assigned', updated_at = NOW()
			 WHERE id = $1 AND creator_id = $2 AND status = 'uploaded'
			 RETURNING `+videoColumns,
			videoID, creatorID, editorID,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return video.Video{}, video.ErrInvalidTransition
		}

		return video.Video{}, err
	}

	return v, nil
}

// SetStatus applies a transition with the from-status in the WHERE clause.
func (r *VideosRepo) SetStatus(ctx context.Context, videoID string, from, to video.Status) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("videos.set_status", func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE videos
			 SET status = $3, updated_at = NOW()
			 WHERE id = $1 AND status = $2`,
			videoID, string(from), string(to),
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return video.ErrInvalidTransition
	}

	return nil
}

func (r *VideosRepo) MarkPublished(ctx context.Context, videoID, youtubeVideoID string) error {
	var tag pgconn.CommandTag
	var err error

	err = r.observe("videos.mark_published", func() error {
		tag, err = r.pool.Exec(ctx,
			`UPDATE videos
			 SET status = 'published', youtube_video_id = $2, updated_at = NOW()
			 WHERE id = $1`,
			videoID, youtubeVideoID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return video.ErrNotFound
	}

	return nil
}
