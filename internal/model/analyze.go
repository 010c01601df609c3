package model

import "time"

// AnalyzeRequest is the body of POST /api/analyze
type AnalyzeRequest struct {
	VideoURL           string `json:"video_url" validate:"required,url"`
	Question           string `json:"question" validate:"required,min=3,max=2000"`
	Model              string `json:"model,omitempty" validate:"omitempty,max=100"`
	ForceLowResolution bool   `json:"force_low_resolution,omitempty"`
}

// VideoInfo is the resolved metadata echoed back at submission time
type VideoInfo struct {
	ID              string `json:"id"`
	Title           string `json:"title,omitempty"`
	Channel         string `json:"channel,omitempty"`
	DurationSeconds *int64 `json:"duration_seconds,omitempty"`
}

// AnalyzeResponse is returned by POST /api/analyze
type AnalyzeResponse struct {
	JobID         string    `json:"job_id"`
	Status        JobStatus `json:"status"`
	Video         VideoInfo `json:"video"`
	Model         string    `json:"model"`
	LowResolution bool      `json:"low_resolution"`
	CreatedAt     time.Time `json:"created_at"`
}

// JobStatusResponse is returned by GET /api/analyze/status/:jobId
type JobStatusResponse struct {
	JobID           string     `json:"job_id"`
	Status          JobStatus  `json:"status"`
	VideoURL        string     `json:"video_url"`
	VideoTitle      string     `json:"video_title,omitempty"`
	VideoChannel    string     `json:"video_channel,omitempty"`
	Question        string     `json:"question"`
	Model           string     `json:"model"`
	LowResolution   bool       `json:"low_resolution"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	Result          string     `json:"result,omitempty"`
	Error           *string    `json:"error,omitempty"`
	ProcessingTime  *int64     `json:"processing_time,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// JobListResponse is returned by GET /api/analyze/jobs
type JobListResponse struct {
	Jobs   []JobStatusResponse `json:"jobs"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// NewJobStatusResponse maps a stored job onto the API shape.
func NewJobStatusResponse(job *Job) JobStatusResponse {
	return JobStatusResponse{
		JobID:           job.ID,
		Status:          job.Status,
		VideoURL:        job.VideoURL,
		VideoTitle:      job.VideoTitle,
		VideoChannel:    job.VideoChannel,
		Question:        job.Question,
		Model:           job.Model,
		LowResolution:   job.LowResolution,
		DurationSeconds: job.DurationSeconds,
		Result:          job.Result,
		Error:           job.Error,
		ProcessingTime:  job.ProcessingTime,
		CreatedAt:       job.CreatedAt,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
	}
}
