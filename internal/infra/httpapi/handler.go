// Package httpapi serves job status lookups and the end-user string table.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
	"github.com/ysyms/lastFrameV2/internal/i18n"
	"go.uber.org/zap"
)

// FrameLinker presigns download links for stored frames.
type FrameLinker interface {
	FrameURL(ctx context.Context, objectKey string, fileName string, expiry time.Duration) (string, error)
}

type JobHandler struct {
	repo   port.JobRepository
	links  FrameLinker
	expiry time.Duration
	logger *zap.Logger
}

type jobResponse struct {
	JobID         uuid.UUID            `json:"job_id"`
	Status        entity.JobStatus     `json:"status"`
	FileName      string               `json:"file_name"`
	ImageName     string               `json:"image_name,omitempty"`
	DownloadURL   string               `json:"download_url,omitempty"`
	Width         int                  `json:"width,omitempty"`
	Height        int                  `json:"height,omitempty"`
	Duration      float64              `json:"duration_seconds,omitempty"`
	ErrorCategory entity.ErrorCategory `json:"error_category,omitempty"`
	Message       string               `json:"message"`
	Attempt       int                  `json:"attempt"`
	MaxAttempts   int                  `json:"max_attempts"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func NewRouter(repo port.JobRepository, links FrameLinker, expiry time.Duration, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	h := &JobHandler{repo: repo, links: links, expiry: expiry, logger: logger}
	api := r.Group("/api")
	{
		api.GET("/jobs/:job_id", h.GetJob)
		api.GET("/strings", h.GetStrings)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

// language honours an explicit ?lang= before Accept-Language.
func language(c *gin.Context) i18n.Language {
	return i18n.Match(c.Query("lang"), c.GetHeader("Accept-Language"))
}

// GetJob returns a job's status with a localized message, and a fresh
// download link once the frame is stored. Failures surface only as their
// category; the detailed kind stays in logs and the status queue.
func (h *JobHandler) GetJob(c *gin.Context) {
	id, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}

	ctx := c.Request.Context()
	job, err := h.repo.FindByID(ctx, id)
	if errors.Is(err, port.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found", "job_id": id})
		return
	}
	if err != nil {
		h.logger.Error("failed to load job", zap.String("job_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job"})
		return
	}

	lang := language(c)
	t := i18n.Lookup(lang)
	resp := jobResponse{
		JobID:       job.ID,
		Status:      job.Status,
		FileName:    job.FileName,
		ImageName:   job.ImageName,
		Width:       job.Width,
		Height:      job.Height,
		Duration:    job.VideoDuration,
		Attempt:     job.Attempt,
		MaxAttempts: job.MaxAttempts,
		UpdatedAt:   job.UpdatedAt,
	}

	switch job.Status {
	case entity.JobStatusCompleted:
		resp.Message = t.Success
		url, err := h.links.FrameURL(ctx, job.ImageKey, job.ImageName, h.expiry)
		if err != nil {
			h.logger.Warn("could not presign download url", zap.String("job_id", id.String()), zap.Error(err))
		} else {
			resp.DownloadURL = url
		}
	case entity.JobStatusFailed:
		resp.Message = i18n.KindMessage(lang, job.ErrorKind)
		if job.ErrorKind != "" {
			resp.ErrorCategory = job.ErrorKind.Category()
		}
	default:
		resp.Message = t.Processing
	}

	c.JSON(http.StatusOK, resp)
}

func (h *JobHandler) GetStrings(c *gin.Context) {
	lang := language(c)
	c.JSON(http.StatusOK, gin.H{
		"language": lang,
		"strings":  i18n.Lookup(lang),
	})
}
