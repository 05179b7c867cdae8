package jobs

// YouTubePublishPayload is ID-based on purpose; the worker loads the video
// and creator rows itself so stale payloads cannot publish stale metadata.
type YouTubePublishPayload struct {
	VideoID   string `json:"videoId"`
	CreatorID string `json:"creatorId"`
	RequestID string `json:"requestId,omitempty"` // correlation with the HTTP request
}

// AssignmentNotificationPayload tells an editor they were assigned a video.
type AssignmentNotificationPayload struct {
	VideoID   string `json:"videoId"`
	EditorID  string `json:"editorId"`
	CreatorID string `json:"creatorId"`
}
