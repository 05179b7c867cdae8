package jobs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/flarehq/flarepp/internal/domain/job"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/domain/video"
	"github.com/flarehq/flarepp/internal/notifications"
	"github.com/flarehq/flarepp/internal/youtube"
)

type fakeVideoStore struct {
	getFn           func(ctx context.Context, id string) (video.Video, error)
	markPublishedFn func(ctx context.Context, videoID, youtubeVideoID string) error
}

func (f *fakeVideoStore) GetByID(ctx context.Context, id string) (video.Video, error) {
	return f.getFn(ctx, id)
}

func (f *fakeVideoStore) MarkPublished(ctx context.Context, videoID, youtubeVideoID string) error {
	return f.markPublishedFn(ctx, videoID, youtubeVideoID)
}

type fakeUserStore struct {
	getFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.getFn(ctx, id)
}

type fakeMedia struct {
	downloadFn func(ctx context.Context, key string) (io.ReadCloser, int64, error)
}

func (f *fakeMedia) Upload(context.Context, string, io.Reader, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeMedia) Download(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	return f.downloadFn(ctx, key)
}

func (f *fakeMedia) Delete(context.Context, string) error { return nil }

type fakeUploader struct {
	uploadFn func(ctx context.Context, in youtube.UploadInput) (string, error)
}

func (f *fakeUploader) Upload(ctx context.Context, in youtube.UploadInput) (string, error) {
	return f.uploadFn(ctx, in)
}

type fakeNotifier struct {
	sendFn func(ctx context.Context, in notifications.AssignmentInput) error
}

func (f *fakeNotifier) SendAssignment(ctx context.Context, in notifications.AssignmentInput) error {
	return f.sendFn(ctx, in)
}

func mustJob(t *testing.T, jt JobType, payload any) job.Job {
	t.Helper()

	raw, err := EncodePayload(jt, payload)

	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	return job.Job{ID: "job-1", Type: string(jt), Payload: raw}
}

func channelID(s string) *string { return &s }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishExecutor_HappyPath(t *testing.T) {
	const bucket = "media-bucket"

	editedVideo := video.Video{
		ID:        "vid-1",
		CreatorID: "creator-1",
		Title:     "Final Cut",
		Status:    video.StatusEdited,
		VideoURL:  "http://store.local/" + bucket + "/videos/creator-1/raw.mp4",
	}

	var marked string

	videos := &fakeVideoStore{
		getFn: func(_ context.Context, id string) (video.Video, error) {
			if id != "vid-1" {
				t.Fatalf("unexpected video id %q", id)
			}
			return editedVideo, nil
		},
		markPublishedFn: func(_ context.Context, videoID, ytID string) error {
			marked = videoID + ":" + ytID
			return nil
		},
	}

	users := &fakeUserStore{
		getFn: func(_ context.Context, id string) (user.User, error) {
			return user.User{ID: id, Role: user.RoleCreator, YouTubeChannelID: channelID("UC42")}, nil
		},
	}

	media := &fakeMedia{
		downloadFn: func(_ context.Context, key string) (io.ReadCloser, int64, error) {
			if key != "videos/creator-1/raw.mp4" {
				t.Fatalf("unexpected storage key %q", key)
			}
			return io.NopCloser(bytes.NewReader([]byte("bits"))), 4, nil
		},
	}

	uploader := &fakeUploader{
		uploadFn: func(_ context.Context, in youtube.UploadInput) (string, error) {
			if in.ChannelID != "UC42" || in.Title != "Final Cut" {
				t.Fatalf("unexpected upload input: %+v", in)
			}
			return "yt-abc", nil
		},
	}

	e := NewPublishExecutor(videos, users, media, uploader, bucket, discardLogger())

	j := mustJob(t, JobYouTubePublish, YouTubePublishPayload{VideoID: "vid-1", CreatorID: "creator-1"})

	if err := e.Execute(context.Background(), j); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if marked != "vid-1:yt-abc" {
		t.Fatalf("MarkPublished got %q", marked)
	}
}

func TestPublishExecutor_AlreadyPublishedIsNoop(t *testing.T) {
	videos := &fakeVideoStore{
		getFn: func(context.Context, string) (video.Video, error) {
			return video.Video{ID: "vid-1", Status: video.StatusPublished}, nil
		},
		markPublishedFn: func(context.Context, string, string) error {
			t.Fatalf("must not re-publish")
			return nil
		},
	}

	e := NewPublishExecutor(videos, nil, nil, nil, "b", discardLogger())

	j := mustJob(t, JobYouTubePublish, YouTubePublishPayload{VideoID: "vid-1", CreatorID: "creator-1"})

	if err := e.Execute(context.Background(), j); err != nil {
		t.Fatalf("execute: %v", err)
	}
}

func TestPublishExecutor_RejectsUneditedVideo(t *testing.T) {
	videos := &fakeVideoStore{
		getFn: func(context.Context, string) (video.Video, error) {
			return video.Video{ID: "vid-1", Status: video.StatusAssigned}, nil
		},
	}

	e := NewPublishExecutor(videos, nil, nil, nil, "b", discardLogger())

	j := mustJob(t, JobYouTubePublish, YouTubePublishPayload{VideoID: "vid-1", CreatorID: "creator-1"})

	err := e.Execute(context.Background(), j)

	if !errors.Is(err, video.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestPublishExecutor_NoChannel(t *testing.T) {
	videos := &fakeVideoStore{
		getFn: func(context.Context, string) (video.Video, error) {
			return video.Video{ID: "vid-1", Status: video.StatusEdited, VideoURL: "http://x/b/k"}, nil
		},
	}

	users := &fakeUserStore{
		getFn: func(context.Context, string) (user.User, error) {
			return user.User{ID: "creator-1", Role: user.RoleCreator}, nil
		},
	}

	e := NewPublishExecutor(videos, users, nil, nil, "b", discardLogger())

	j := mustJob(t, JobYouTubePublish, YouTubePublishPayload{VideoID: "vid-1", CreatorID: "creator-1"})

	err := e.Execute(context.Background(), j)

	if !errors.Is(err, youtube.ErrNoChannel) {
		t.Fatalf("want ErrNoChannel, got %v", err)
	}
}

func TestNotifyExecutor_SendsAssignment(t *testing.T) {
	videos := &fakeVideoStore{
		getFn: func(context.Context, string) (video.Video, error) {
			return video.Video{ID: "vid-1", Title: "Raw Cut"}, nil
		},
	}

	people := map[string]user.User{
		"editor-1":  {ID: "editor-1", Email: "ed@example.com", Name: "Ed"},
		"creator-1": {ID: "creator-1", Email: "cara@example.com", Name: "Cara"},
	}

	users := &fakeUserStore{
		getFn: func(_ context.Context, id string) (user.User, error) {
			u, ok := people[id]
			if !ok {
				return user.User{}, errors.New("no such user")
			}
			return u, nil
		},
	}

	var got notifications.AssignmentInput

	notifier := &fakeNotifier{
		sendFn: func(_ context.Context, in notifications.AssignmentInput) error {
			got = in
			return nil
		},
	}

	e := NewNotifyExecutor(videos, users, notifier)

	j := mustJob(t, JobAssignmentNotification, AssignmentNotificationPayload{
		VideoID:   "vid-1",
		EditorID:  "editor-1",
		CreatorID: "creator-1",
	})

	if err := e.Execute(context.Background(), j); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if got.EditorEmail != "ed@example.com" || got.CreatorName != "Cara" || got.VideoTitle != "Raw Cut" {
		t.Fatalf("unexpected notification input: %+v", got)
	}
}
