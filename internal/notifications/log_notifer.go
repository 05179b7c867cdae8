package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier is the default backend; swap in a mail provider later.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) SendAssignment(ctx context.Context, in AssignmentInput) error {
	slog.Default().InfoContext(ctx, "notification.assignment",
		"editor_email", in.EditorEmail,
		"creator_name", in.CreatorName,
		"video_id", in.VideoID,
		"video_title", in.VideoTitle,
	)

	return nil
}
