package jobs

type JobType string

const (
	JobYouTubePublish         JobType = "youtube_publish"
	JobAssignmentNotification JobType = "assignment_notification"
)

// check to see if the job type is a known constant

func (t JobType) IsValid() bool {
	switch t {
	case JobYouTubePublish, JobAssignmentNotification:
		return true
	default:
		return false
	}
}
