package entity

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

type Job struct {
	ID            uuid.UUID
	UserID        string
	VideoKey      string
	FileName      string
	ContentType   string
	FileSize      int64
	ImageKey      string
	ImageName     string
	Status        JobStatus
	Width         int
	Height        int
	VideoDuration float64
	SeekTime      float64
	Attempt       int
	MaxAttempts   int
	ErrorKind     ErrorKind
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func NewJob(msg ExtractionRequestMessage, maxAttempts int) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:          msg.JobID,
		UserID:      msg.UserID,
		VideoKey:    msg.VideoKey,
		FileName:    msg.DisplayName(),
		ContentType: msg.ContentType,
		FileSize:    msg.FileSize,
		Status:      JobStatusPending,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (j *Job) MarkProcessing() {
	j.Status = JobStatusProcessing
	j.Attempt++
	j.ErrorKind = ""
	j.ErrorMessage = ""
	j.UpdatedAt = time.Now().UTC()
}

func (j *Job) MarkCompleted(imageKey string, res *ExtractionResult) {
	now := time.Now().UTC()
	j.Status = JobStatusCompleted
	j.ImageKey = imageKey
	j.ImageName = res.FileName
	j.Width = res.Width
	j.Height = res.Height
	j.VideoDuration = res.Duration
	j.SeekTime = res.SeekTime
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// MarkFailed records a failure. kind is empty for infrastructure failures.
func (j *Job) MarkFailed(kind ErrorKind, errMsg string) {
	j.Status = JobStatusFailed
	j.ErrorKind = kind
	j.ErrorMessage = errMsg
	j.UpdatedAt = time.Now().UTC()
}

// MarkExhausted prevents any further attempt on the job.
func (j *Job) MarkExhausted() {
	j.Attempt = j.MaxAttempts
}

func (j *Job) CanRetry() bool {
	return j.Attempt < j.MaxAttempts
}
