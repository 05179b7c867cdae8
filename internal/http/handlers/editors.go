package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flarehq/flarepp/internal/config"
	"github.com/flarehq/flarepp/internal/domain/user"
	"github.com/flarehq/flarepp/internal/domain/video"
	"github.com/flarehq/flarepp/internal/http/middlewares"
	"github.com/flarehq/flarepp/internal/repo/postgres"
)

type AssignedVideoStore interface {
	GetByID(ctx context.Context, id string) (video.Video, error)
	ListByEditor(ctx context.Context, editorID string) ([]video.Video, error)
	SetStatus(ctx context.Context, videoID string, from, to video.Status) error
}

type ProfileStore interface {
	UpdateProfile(ctx context.Context, id string, params postgres.UpdateProfileParams) (user.User, error)
}

// EditorsHandler is the editor-side surface: assigned videos, the
// edited handoff, profile updates.
type EditorsHandler struct {
	videos   AssignedVideoStore
	profiles ProfileStore
}

func NewEditorsHandler(videos AssignedVideoStore, profiles ProfileStore) *EditorsHandler {
	return &EditorsHandler{
		videos:   videos,
		profiles: profiles,
	}
}

func (h *EditorsHandler) ListAssigned(ctx *gin.Context) {
	editorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, err := h.videos.ListByEditor(cctx, editorID)

	if err != nil {
		RespondInternal(ctx, "Could not list videos")
		return
	}

	RespondOK(ctx, gin.H{"videos": items})
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=edited"`
}

// MarkEdited moves an assigned video to edited. Editors can only perform
// this one transition; publishing belongs to the creator.
func (h *EditorsHandler) MarkEdited(ctx *gin.Context) {
	editorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	videoID := ctx.Param("id")

	var req UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
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

	// editors only see their own assignments
	if v.EditorID == nil || *v.EditorID != editorID {
		RespondNotFound(ctx, "Video not found.")
		return
	}

	err = h.videos.SetStatus(cctx, videoID, video.StatusAssigned, video.StatusEdited)

	if err != nil {
		if errors.Is(err, video.ErrInvalidTransition) {
			RespondConflict(ctx, "invalid_state", "Video is not awaiting edits.")
			return
		}

		RespondInternal(ctx, "Could not update video")
		return
	}

	v.Status = video.StatusEdited

	RespondOK(ctx, gin.H{"video": v})
}

type UpdateProfileRequest struct {
	Name       *string `json:"name" binding:"omitempty,min=1"`
	AvatarURL  *string `json:"avatarUrl" binding:"omitempty,url"`
	Speciality *string `json:"speciality"`
}

func (h *EditorsHandler) UpdateProfile(ctx *gin.Context) {
	editorID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Authentication required.")
		return
	}

	var req UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Name == nil && req.AvatarURL == nil && req.Speciality == nil {
		RespondBadRequest(ctx, "Nothing to update.", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.profiles.UpdateProfile(cctx, editorID, postgres.UpdateProfileParams{
		Name:       req.Name,
		AvatarURL:  req.AvatarURL,
		Speciality: req.Speciality,
	})

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "Account not found.")
			return
		}

		RespondInternal(ctx, "Could not update profile")
		return
	}

	RespondOK(ctx, gin.H{"user": u})
}
