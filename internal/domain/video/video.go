package video

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("video not found")
	ErrInvalidStatus     = errors.New("invalid video status")
	ErrInvalidTransition = errors.New("invalid video status transition")
)

type Status string

const (
	StatusUploaded  Status = "uploaded"
	StatusAssigned  Status = "assigned"
	StatusEdited    Status = "edited"
	StatusPublished Status = "published"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusUploaded, StatusAssigned, StatusEdited, StatusPublished:
		return true
	default:
		return false
	}
}

// CanTransition encodes the workflow: uploaded -> assigned -> edited -> published.
// Publishing only happens through the worker pipeline.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusUploaded:
		return to == StatusAssigned
	case StatusAssigned:
		return to == StatusEdited
	case StatusEdited:
		return to == StatusPublished
	default:
		return false
	}
}

type Video struct {
	ID               string    `json:"id"`
	CreatorID        string    `json:"creatorId"`
	EditorID         *string   `json:"editorId,omitempty"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	ShortDescription string    `json:"shortDescription"`
	VideoURL         string    `json:"videoUrl"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	Status           Status    `json:"status"`
	YouTubeVideoID   *string   `json:"youtubeVideoId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	CreatorID        string
	Title            string
	Description      string
	ShortDescription string
	VideoURL         string
	ThumbnailURL     string
}

func NewFromCreateRequest(req CreateRequest) Video {
	now := time.Now().UTC()

	return Video{
		ID:               uuid.NewString(),
		CreatorID:        req.CreatorID,
		Title:            req.Title,
		Description:      req.Description,
		ShortDescription: req.ShortDescription,
		VideoURL:         req.VideoURL,
		ThumbnailURL:     req.ThumbnailURL,
		Status:           StatusUploaded,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
