package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flarehq/flarepp/internal/domain/job"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/domain/video"
	"github.com/flarehq/flarepp/internal/notifications"
	"github.com/flarehq/flarepp/internal/storage"
	"github.com/flarehq/flarepp/internal/youtube"
)

// Narrow read/write seams so executors are testable without postgres.

type VideoStore interface {
	GetByID(ctx context.Context, id string) (video.Video, error)
	MarkPublished(ctx context.Context, videoID, youtubeVideoID string) error
}

type UserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// PublishExecutor pushes an edited video to YouTube.
type PublishExecutor struct {
	videos   VideoStore
	users    UserStore
	media    storage.MediaStore
	uploader youtube.Uploader
	bucket   string
	log      *slog.Logger
}

func NewPublishExecutor(videos VideoStore, users UserStore, media storage.MediaStore, uploader youtube.Uploader, bucket string, log *slog.Logger) *PublishExecutor {
	return &PublishExecutor{
		videos:   videos,
		users:    users,
		media:    media,
		uploader: uploader,
		bucket:   bucket,
		log:      log,
	}
}

func (e *PublishExecutor) Execute(ctx context.Context, j job.Job) error {
	decoded, err := DecodePayload(JobYouTubePublish, j.Payload)

	if err != nil {
		return err
	}

	p := decoded.(YouTubePublishPayload)

	if err := ValidatePayload(JobYouTubePublish, p); err != nil {
		return err
	}

	v, err := e.videos.GetByID(ctx, p.VideoID)

	if err != nil {
		return err
	}

	// retried job may find the video already published; that's success
	if v.Status == video.StatusPublished {
		e.log.Info("video already published, skipping", "video_id", v.ID)
		return nil
	}

	if v.Status != video.StatusEdited {
		return fmt.Errorf("%w: video %s is %s", video.ErrInvalidTransition, v.ID, v.Status)
	}

	creator, err := e.users.GetByID(ctx, p.CreatorID)

	if err != nil {
		return err
	}

	if creator.YouTubeChannelID == nil || *creator.YouTubeChannelID == "" {
		// permanent condition; retrying won't grow a channel
		return youtube.ErrNoChannel
	}

	key := storage.KeyFromURL(v.VideoURL, e.bucket)

	if key == "" {
		return errors.New("cannot derive storage key from video url")
	}

	body, size, err := e.media.Download(ctx, key)

	if err != nil {
		return err
	}

	defer body.Close()

	e.log.Info("uploading to youtube", "video_id", v.ID, "bytes", size, "request_id", p.RequestID)

	ytID, err := e.uploader.Upload(ctx, youtube.UploadInput{
		Title:       v.Title,
		Description: v.Description,
		ChannelID:   *creator.YouTubeChannelID,
		Media:       body,
	})

	if err != nil {
		return err
	}

	return e.videos.MarkPublished(ctx, v.ID, ytID)
}

// NotifyExecutor tells an editor they were assigned a video.
type NotifyExecutor struct {
	videos   VideoStore
	users    UserStore
	notifier notifications.Notifier
}

func NewNotifyExecutor(videos VideoStore, users UserStore, notifier notifications.Notifier) *NotifyExecutor {
	return &NotifyExecutor{
		videos:   videos,
		users:    users,
		notifier: notifier,
	}
}

func (e *NotifyExecutor) Execute(ctx context.Context, j job.Job) error {
	decoded, err := DecodePayload(JobAssignmentNotification, j.Payload)

	if err != nil {
		return err
	}

	p := decoded.(AssignmentNotificationPayload)

	if err := ValidatePayload(JobAssignmentNotification, p); err != nil {
		return err
	}

	v, err := e.videos.GetByID(ctx, p.VideoID)

	if err != nil {
		return err
	}

	editor, err := e.users.GetByID(ctx, p.EditorID)

	if err != nil {
		return err
	}

	creator, err := e.users.GetByID(ctx, p.CreatorID)

	if err != nil {
		return err
	}

	return e.notifier.SendAssignment(ctx, notifications.AssignmentInput{
		EditorEmail: editor.Email,
		EditorName:  editor.Name,
		CreatorName: creator.Name,
		VideoID:     v.ID,
		VideoTitle:  v.Title,
	})
}
