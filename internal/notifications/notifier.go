package notifications

import "context"

type AssignmentInput struct {
	EditorEmail string
	EditorName  string
	CreatorName string
	VideoID     string
	VideoTitle  string
}

type Notifier interface {
	SendAssignment(ctx context.Context, input AssignmentInput) error
}
