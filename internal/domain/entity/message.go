package entity

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// ExtractionRequestMessage is the inbound message from the video.lastframe queue.
type ExtractionRequestMessage struct {
	JobID       uuid.UUID `json:"job_id"`
	UserID      string    `json:"user_id"`
	VideoKey    string    `json:"video_key"`
	FileName    string    `json:"file_name,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	FileSize    int64     `json:"file_size"`
	UserEmail   string    `json:"user_email,omitempty"`
	Language    string    `json:"language,omitempty"`
}

// DisplayName is the uploaded file name, falling back to the object key's base.
func (m ExtractionRequestMessage) DisplayName() string {
	if name := strings.TrimSpace(m.FileName); name != "" {
		return name
	}
	return path.Base(m.VideoKey)
}

// ExtractionStatusMessage is the outbound message published to the status queue.
type ExtractionStatusMessage struct {
	JobID         uuid.UUID     `json:"job_id"`
	UserID        string        `json:"user_id"`
	Status        JobStatus     `json:"status"`
	VideoKey      string        `json:"video_key"`
	FileName      string        `json:"file_name,omitempty"`
	ImageKey      string        `json:"image_key,omitempty"`
	ImageName     string        `json:"image_name,omitempty"`
	DownloadURL   string        `json:"download_url,omitempty"`
	Width         int           `json:"width,omitempty"`
	Height        int           `json:"height,omitempty"`
	Duration      float64       `json:"duration_seconds,omitempty"`
	ErrorKind     ErrorKind     `json:"error_kind,omitempty"`
	ErrorCategory ErrorCategory `json:"error_category,omitempty"`
	Message       string        `json:"message,omitempty"`
	Attempt       int           `json:"attempt"`
	MaxAttempts   int           `json:"max_attempts"`
}
