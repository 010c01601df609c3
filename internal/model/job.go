package model

import "time"

// Job status
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

var ValidStatuses = []JobStatus{
	JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed,
}

// Terminal reports whether no further status change is permitted.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Valid reports whether s is one of the known statuses.
func (s JobStatus) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Job represents one unit of requested video analysis work. The store is the
// sole writer of persisted job state; the worker mutates exclusively through
// the store's conditional updates.
type Job struct {
	ID              string     `json:"id"`
	Status          JobStatus  `json:"status"`
	VideoURL        string     `json:"videoUrl"`
	VideoID         string     `json:"videoId,omitempty"`
	VideoTitle      string     `json:"videoTitle,omitempty"`
	VideoChannel    string     `json:"videoChannel,omitempty"`
	Question        string     `json:"question"`
	Model           string     `json:"model"`
	LowResolution   bool       `json:"lowResolution"`
	DurationSeconds *int64     `json:"durationSeconds,omitempty"`
	Result          string     `json:"result,omitempty"`
	Error           *string    `json:"error,omitempty"`
	ProcessingTime  *int64     `json:"processingTime,omitempty"` // whole seconds, set once terminal
	CreatedAt       time.Time  `json:"createdAt"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}
