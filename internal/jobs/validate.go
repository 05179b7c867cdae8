package jobs

import "strings"

// ValidatePayload performs minimal validation on decoded payloads before a
// job is enqueued; the worker revalidates on the way out.
func ValidatePayload(t JobType, payload any) error {
	if !t.IsValid() {
		return ErrInvalidJobType
	}

	trim := func(s string) string { return strings.TrimSpace(s) }

	switch t {
	case JobYouTubePublish:
		var p YouTubePublishPayload
		switch v := payload.(type) {
		case YouTubePublishPayload:
			p = v
		case *YouTubePublishPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.VideoID) == "" || trim(p.CreatorID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	case JobAssignmentNotification:
		var p AssignmentNotificationPayload
		switch v := payload.(type) {
		case AssignmentNotificationPayload:
			p = v
		case *AssignmentNotificationPayload:
			p = *v
		default:
			return ErrPayloadTypeMismatch
		}
		if trim(p.VideoID) == "" || trim(p.EditorID) == "" || trim(p.CreatorID) == "" {
			return ErrInvalidJobPayload
		}
		return nil

	default:
		return ErrInvalidJobType
	}
}
