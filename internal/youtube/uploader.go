package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

var (
	ErrNoChannel     = errors.New("creator has no linked youtube channel")
	ErrNotConfigured = errors.New("youtube credentials are not configured")
)

type UploadInput struct {
	Title       string
	Description string
	ChannelID   string
	Media       io.Reader
}

// Uploader is the seam the publish worker depends on; tests swap it out.
type Uploader interface {
	Upload(ctx context.Context, in UploadInput) (videoID string, err error)
}

// Client pushes videos through the YouTube Data API using the creator's
// OAuth token source.
type Client struct {
	tokens oauth2.TokenSource
}

func NewClient(tokens oauth2.TokenSource) *Client {
	return &Client{tokens: tokens}
}

func (c *Client) Upload(ctx context.Context, in UploadInput) (string, error) {
	if c.tokens == nil {
		return "", ErrNotConfigured
	}

	if in.ChannelID == "" {
		return "", ErrNoChannel
	}

	svc, err := yt.NewService(ctx, option.WithTokenSource(c.tokens))

	if err != nil {
		return "", fmt.Errorf("create youtube service: %w", err)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       in.Title,
			Description: in.Description,
			ChannelId:   in.ChannelID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: "private", // creators flip it public from YouTube Studio
		},
	})

	// resumable upload; the api client chunks the body for us
	resp, err := call.Media(in.Media).Context(ctx).Do()

	if err != nil {
		return "", fmt.Errorf("youtube insert: %w", err)
	}

	return resp.Id, nil
}
