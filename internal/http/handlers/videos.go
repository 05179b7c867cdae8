package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flarehq/flarepp/internal/cache"
	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/domain/job"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/domain/video"
	"github.com/flarehq/flarepp/internal/http/middlewares"
	"github.com/flarehq/flarepp/internal/jobs"
	"github.com/flarehq/flarepp/internal/observability"
	"github.com/flarehq/flarepp/internal/repo/postgres"
	"github.com/flarehq/flarepp/internal/storage"
	"github.com/flarehq/flarepp/internal/utils"
)

type VideoStore interface {
	Create(ctx context.Context, req video.CreateRequest) (video.Video, error)
	GetByID(ctx context.Context, id string) (video.Video, error)
	ListByCreatorCursor(ctx context.Context, creatorID string, limit int, afterCreatedAt time.Time, afterID string) ([]video.Video, bool, error)
	Search(ctx context.Context, creatorID, query string, limit int) ([]video.Video, error)
	AssignEditor(ctx context.Context, videoID, creatorID, editorID string) (video.Video, error)
}

type EditorDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	ListEditors(ctx context.Context) ([]user.User, error)
	AddPreferredEditor(ctx context.Context, creatorID, editorID string) error
	ListPreferredEditors(ctx context.Context, creatorID string) ([]user.User, error)
	SetYouTubeChannel(ctx context.Context, creatorID, channelID string) error
}

type JobEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

// Nudger pokes the worker so enqueued jobs run without waiting for the
// poll tick.
type Nudger interface {
	Nudge(ctx context.Context, jobID string) error
}

// VideosHandler carries the creator-side workflow: upload, list, search,
// assign an editor, request a YouTube publish.
type VideosHandler struct {
	videos          VideoStore
	users           EditorDirectory
	media           storage.MediaStore
	jobsQueue       JobEnqueuer
	nudger          Nudger
	editors         *cache.Cache[[]user.User]
	prom            *observability.Prom
	maxUpload       int64
	defaultPageSize int
}

func NewVideosHandler(videos VideoStore, users EditorDirectory, media storage.MediaStore, jobsQueue JobEnqueuer, nudger Nudger, editorsCache *cache.Cache[[]user.User], prom *observability.Prom, maxUpload int64) *VideosHandler {
	return &VideosHandler{
		videos:          videos,
		users:           users,
		media:           media,
		jobsQueue:       jobsQueue,
		nudger:          nudger,
		editors:         editorsCache,
		prom:            prom,
		maxUpload:       maxUpload,
		defaultPageSize: 20,
	}
}

// Upload accepts a multipart form: title, description, shortDescription,
// videofile (required), thumbnail (optional), editorId (optional, assigns
// right away).
func (h *VideosHandler) Upload(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	title := strings.TrimSpace(ctx.PostForm("title"))

	if title == "" {
		RespondBadRequest(ctx, "Title is required.", nil)
		return
	}

	videoFile, err := ctx.FormFile("videofile")

	if err != nil {
		RespondBadRequest(ctx, "A video file is required.", nil)
		return
	}

	if h.maxUpload > 0 && videoFile.Size > h.maxUpload {
		RespondError(ctx, http.StatusRequestEntityTooLarge, "file_too_large",
			fmt.Sprintf("Video exceeds the %d byte limit.", h.maxUpload), nil)
		return
	}

	// uploads are slow; give them room
	cctx, cancel := config.WithTimeout(10 * time.Minute)
	defer cancel()

	videoURL, err := h.storeFile(cctx, videoFile, "videos/"+creatorID, "video")

	if err != nil {
		RespondInternal(ctx, "Could not store video file")
		return
	}

	thumbnailURL := ""

	if thumbFile, err := ctx.FormFile("thumbnail"); err == nil {
		thumbnailURL, err = h.storeFile(cctx, thumbFile, "thumbnails/"+creatorID, "thumbnail")

		if err != nil {
			RespondInternal(ctx, "Could not store thumbnail")
			return
		}
	}

	v, err := h.videos.Create(cctx, video.CreateRequest{
		CreatorID:        creatorID,
		Title:            title,
		Description:      ctx.PostForm("description"),
		ShortDescription: ctx.PostForm("shortDescription"),
		VideoURL:         videoURL,
		ThumbnailURL:     thumbnailURL,
	})

	if err != nil {
		RespondInternal(ctx, "Could not save video")
		return
	}

	// optional immediate assignment
	if editorID := strings.TrimSpace(ctx.PostForm("editorId")); editorID != "" {
		v, err = h.assignAndNotify(ctx, cctx, v.ID, creatorID, editorID)

		if err != nil {
			// the upload itself succeeded; report the partial state
			RespondCreated(ctx, gin.H{
				"video":   v,
				"warning": "Video uploaded but editor assignment failed.",
			})
			return
		}
	}

	RespondCreated(ctx, gin.H{"video": v})
}

func (h *VideosHandler) storeFile(ctx context.Context, fh *multipart.FileHeader, prefix, kind string) (string, error) {
	f, err := fh.Open()

	if err != nil {
		return "", err
	}

	defer f.Close()

	contentType := fh.Header.Get("Content-Type")

	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(fh.Filename))

	url, err := h.media.Upload(ctx, key, f, contentType)

	if err != nil {
		return "", err
	}

	if h.prom != nil {
		h.prom.UploadBytes.WithLabelValues(kind).Observe(float64(fh.Size))
	}

	return url, nil
}

// List returns the creator's videos newest first with keyset pagination.
func (h *VideosHandler) List(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	limit := h.defaultPageSize

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n < 1 || n > 100 {
			RespondBadRequest(ctx, "limit must be between 1 and 100.", nil)
			return
		}
		limit = n
	}

	var afterCreatedAt time.Time
	var afterID string

	if raw := ctx.Query("cursor"); raw != "" {
		cur, err := utils.DecodeVideoCursor(raw)

		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor.", nil)
			return
		}

		afterCreatedAt = cur.CreatedAt
		afterID = cur.ID
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, hasMore, err := h.videos.ListByCreatorCursor(cctx, creatorID, limit, afterCreatedAt, afterID)

	if err != nil {
		RespondInternal(ctx, "Could not list videos")
		return
	}

	resp := gin.H{"videos": items}

	if hasMore && len(items) > 0 {
		last := items[len(items)-1]
		next, err := utils.EncodeVideoCursor(last.CreatedAt, last.ID)

		if err == nil {
			resp["nextCursor"] = next
		}
	}

	RespondOK(ctx, resp)
}

// Search matches title and description, scoped to the caller's videos.
func (h *VideosHandler) Search(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	query := strings.TrimSpace(ctx.Query("q"))

	if query == "" {
		RespondBadRequest(ctx, "Query parameter q is required.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.videos.Search(cctx, creatorID, query, 50)

	if err != nil {
		RespondInternal(ctx, "Could not search videos")
		return
	}

	RespondOK(ctx, gin.H{"videos": items})
}

type AssignEditorRequest struct {
	EditorID string `json:"editorId" binding:"required,uuid"`
}

// AssignEditor hands an uploaded video to an editor and queues the
// notification.
func (h *VideosHandler) AssignEditor(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	videoID := ctx.Param("id")

	var req AssignEditorRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	v, err := h.assignAndNotify(ctx, cctx, videoID, creatorID, req.EditorID)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrUserNotFound):
			RespondNotFound(ctx, "Editor not found.")
		case errors.Is(err, user.ErrInvalidRole):
			RespondBadRequest(ctx, "The chosen user is not an editor.", nil)
		case errors.Is(err, video.ErrNotFound):
			RespondNotFound(ctx, "Video not found.")
		case errors.Is(err, video.ErrInvalidTransition):
			RespondConflict(ctx, "invalid_state", "Video has already been assigned.")
		default:
			RespondInternal(ctx, "Could not assign editor")
		}
		return
	}

	RespondOK(ctx, gin.H{"video": v})
}

func (h *VideosHandler) assignAndNotify(ctx *gin.Context, cctx context.Context, videoID, creatorID, editorID string) (video.Video, error) {
	editor, err := h.users.GetByID(cctx, editorID)

	if err != nil {
		return video.Video{}, err
	}

	if editor.Role != user.RoleEditor {
		return video.Video{}, user.ErrInvalidRole
	}

	v, err := h.videos.AssignEditor(cctx, videoID, creatorID, editorID)

	if err != nil {
		return video.Video{}, err
	}

	// remember the pairing for the editor picker
	_ = h.users.AddPreferredEditor(cctx, creatorID, editorID)

	payload, err := jobs.EncodePayload(jobs.JobAssignmentNotification, jobs.AssignmentNotificationPayload{
		VideoID:   v.ID,
		EditorID:  editorID,
		CreatorID: creatorID,
	})

	if err != nil {
		return v, nil // assignment stands even if the notification fails
	}

	j, err := h.jobsQueue.Create(cctx, job.CreateRequest{
		Type:    string(jobs.JobAssignmentNotification),
		Payload: payload,
	})

	if err == nil && h.nudger != nil {
		_ = h.nudger.Nudge(cctx, j.ID)
	}

	return v, nil
}

// GetEditors lists all editors plus the creator's previously used ones.
// The full directory is cached briefly; it changes rarely.
func (h *VideosHandler) GetEditors(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	all, ok := h.editors.Get("editors:all")

	if !ok {
		var err error

		all, err = h.users.ListEditors(cctx)

		if err != nil {
			RespondInternal(ctx, "Could not list editors")
			return
		}

		h.editors.Set("editors:all", all)
	}

	preferred, err := h.users.ListPreferredEditors(cctx, creatorID)

	if err != nil {
		RespondInternal(ctx, "Could not list editors")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{
		"success":   true,
		"editors":   all,
		"preferred": preferred,
	})
}

type LinkChannelRequest struct {
	ChannelID string `json:"channelId" binding:"required"`
}

// LinkYouTubeChannel stores the creator's channel so publish jobs know
// where to send the video.
func (h *VideosHandler) LinkYouTubeChannel(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	var req LinkChannelRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.users.SetYouTubeChannel(cctx, creatorID, req.ChannelID)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondForbidden(ctx, "Only creators can link a channel.")
			return
		}

		RespondInternal(ctx, "Could not link channel")
		return
	}

	RespondOK(ctx, gin.H{"message": "Channel linked."})
}

// PublishToYouTube enqueues the publish job and returns 202. The worker
// does the actual upload; the idempotency key makes double-clicks safe.
func (h *VideosHandler) PublishToYouTube(ctx *gin.Context) {
	creatorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	videoID := ctx.Param("id")

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	v, err := h.videos.GetByID(cctx, videoID)

	if err != nil {
		if errors.Is(err, video.ErrNotFound) {
			RespondNotFound(ctx, "Video not found.")
			return
		}

		RespondInternal(ctx, "Could not load video")
		return
	}

	if v.CreatorID != creatorID {
		RespondNotFound(ctx, "Video not found.")
		return
	}

	if v.Status == video.StatusPublished {
		RespondConflict(ctx, "already_published", "Video is already on YouTube.")
		return
	}

	if v.Status != video.StatusEdited {
		RespondConflict(ctx, "invalid_state", "Video must be edited before publishing.")
		return
	}

	creator, err := h.users.GetByID(cctx, creatorID)

	if err != nil {
		RespondInternal(ctx, "Could not load profile")
		return
	}

	if creator.YouTubeChannelID == nil || *creator.YouTubeChannelID == "" {
		RespondBadRequest(ctx, "Link a YouTube channel before publishing.", nil)
		return
	}

	payload, err := jobs.EncodePayload(jobs.JobYouTubePublish, jobs.YouTubePublishPayload{
		VideoID:   v.ID,
		CreatorID: creatorID,
		RequestID: requestIDFrom(ctx),
	})

	if err != nil {
		RespondInternal(ctx, "Could not enqueue publish")
		return
	}

	idemKey := "youtube_publish:" + v.ID

	j, err := h.jobsQueue.Create(cctx, job.CreateRequest{
		Type:           string(jobs.JobYouTubePublish),
		Payload:        payload,
		IdempotencyKey: &idemKey,
		UserID:         &creatorID,
	})

	if err != nil {
		if errors.Is(err, postgres.ErrDuplicateJob) {
			RespondAccepted(ctx, gin.H{"message": "Publish already in progress."})
			return
		}

		RespondInternal(ctx, "Could not enqueue publish")
		return
	}

	if h.nudger != nil {
		_ = h.nudger.Nudge(cctx, j.ID)
	}

	RespondAccepted(ctx, gin.H{
		"jobId":   j.ID,
		"message": "Publish queued.",
	})
}
