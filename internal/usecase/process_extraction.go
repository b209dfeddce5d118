package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
	"github.com/ysyms/lastFrameV2/internal/i18n"
	"github.com/ysyms/lastFrameV2/internal/infra/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ProcessExtractionUseCase struct {
	repo        port.JobRepository
	storage     port.VideoStorage
	extractor   port.FrameExtractor
	publisher   port.StatusPublisher
	dlq         port.DLQPublisher
	notifier    port.FailureNotifier
	logger      *zap.Logger
	tempDir     string
	maxAttempts int
	urlExpiry   time.Duration
	defaultLang i18n.Language
}

type ProcessExtractionConfig struct {
	TempDir           string
	MaxAttempts       int
	DownloadURLExpiry time.Duration
	DefaultLanguage   i18n.Language
}

func NewProcessExtractionUseCase(
	repo port.JobRepository,
	storage port.VideoStorage,
	extractor port.FrameExtractor,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg ProcessExtractionConfig,
) *ProcessExtractionUseCase {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.DownloadURLExpiry <= 0 {
		cfg.DownloadURLExpiry = 24 * time.Hour
	}
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = i18n.English
	}
	return &ProcessExtractionUseCase{
		repo:        repo,
		storage:     storage,
		extractor:   extractor,
		publisher:   publisher,
		dlq:         dlq,
		notifier:    notifier,
		logger:      logger,
		tempDir:     cfg.TempDir,
		maxAttempts: cfg.MaxAttempts,
		urlExpiry:   cfg.DownloadURLExpiry,
		defaultLang: cfg.DefaultLanguage,
	}
}

// Execute handles one request message. A nil return acks the message; an
// error asks the consumer to requeue it.
func (uc *ProcessExtractionUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "ProcessExtractionUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.ExtractionRequestMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}
	if msg.JobID == uuid.Nil || msg.VideoKey == "" {
		uc.logger.Error("request is missing job_id or video_key", zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "invalid_request: missing job_id or video_key")
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.video_key", msg.VideoKey),
	)

	log := uc.logger.With(zap.String("job_id", msg.JobID.String()), zap.String("video_key", msg.VideoKey))
	lang := i18n.Match(msg.Language, string(uc.defaultLang))

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	switch {
	case errors.Is(err, port.ErrJobNotFound):
		job = entity.NewJob(msg, uc.maxAttempts)
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	case err != nil:
		log.Error("failed to load job record", zap.Error(err))
		return fmt.Errorf("find job: %w", err)
	}

	if job.Status == entity.JobStatusCompleted || (job.Status == entity.JobStatusFailed && job.ErrorKind != "") {
		log.Info("job already settled, skipping redelivery", zap.String("status", string(job.Status)))
		return nil
	}

	if !job.CanRetry() {
		log.Warn("job exhausted attempts, sending to DLQ")
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max attempts exceeded", lang, log)
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	if err := uc.extractionPipeline(ctx, job, msg, rawMsg, lang, log); err != nil {
		return err
	}

	metrics.JobProcessingDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())
	return nil
}

func (uc *ProcessExtractionUseCase) extractionPipeline(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	lang i18n.Language,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Resolve the type hint and download the video
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	contentType := msg.ContentType
	if contentType == "" {
		obj, err := uc.storage.StatVideo(ctx2, msg.VideoKey)
		if err != nil {
			spanDl.End()
			log.Error("failed to stat video", zap.Error(err))
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "stat_video: "+err.Error(), lang, log)
		}
		contentType = obj.ContentType
	}
	videoPath := filepath.Join(workDir, "source"+path.Ext(job.FileName))
	if err := uc.storage.DownloadVideo(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), lang, log)
	}
	spanDl.End()
	metrics.JobProcessingDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())
	contentType = resolveContentType(contentType, videoPath)

	videoFile, err := os.Open(videoPath)
	if err != nil {
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "open_video: "+err.Error(), lang, log)
	}
	defer videoFile.Close()
	info, err := videoFile.Stat()
	if err != nil {
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "stat_video_file: "+err.Error(), lang, log)
	}

	source := entity.SourceFile{
		Name:        job.FileName,
		ContentType: contentType,
		Size:        info.Size(),
		Content:     videoFile,
	}

	// One attempt, no extraction retry
	exStart := time.Now()
	res, err := RunAttempt(ctx, entity.NewSession(), uc.extractor, source)
	metrics.JobProcessingDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	if err != nil {
		if ctx.Err() != nil {
			log.Warn("extraction interrupted by shutdown", zap.Error(err))
			return fmt.Errorf("extraction interrupted: %w", ctx.Err())
		}
		kind, ok := entity.KindOf(err)
		if !ok {
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract: "+err.Error(), lang, log)
		}
		metrics.ExtractionsTotal.WithLabelValues(string(kind)).Inc()
		return uc.handleExtractionFailure(ctx, job, msg, kind, err, lang, log)
	}
	metrics.ExtractionsTotal.WithLabelValues("success").Inc()
	metrics.FramePixels.Observe(float64(res.Width * res.Height))

	// Upload the PNG
	upStart := time.Now()
	ctx3, spanUp := tracer.Start(ctx, "upload_frame")
	imageKey := fmt.Sprintf("%s/%s/%s", msg.UserID, job.ID.String(), res.FileName)
	if err := uc.storage.UploadFrame(ctx3, imageKey, bytes.NewReader(res.Encoded), int64(len(res.Encoded))); err != nil {
		spanUp.End()
		log.Error("frame upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_frame: "+err.Error(), lang, log)
	}
	downloadURL, err := uc.storage.FrameURL(ctx3, imageKey, res.FileName, uc.urlExpiry)
	if err != nil {
		log.Warn("could not presign download url", zap.Error(err))
	}
	spanUp.End()
	metrics.JobProcessingDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(imageKey, res)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, downloadURL, i18n.Lookup(lang).Success, log)
	metrics.JobsProcessedTotal.WithLabelValues("completed").Inc()

	log.Info("job completed successfully",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Float64("duration_secs", res.Duration),
		zap.String("image_key", imageKey),
	)
	return nil
}

// handleExtractionFailure settles the job with a classified error. Extraction
// is attempted once; the message is acked.
func (uc *ProcessExtractionUseCase) handleExtractionFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionRequestMessage,
	kind entity.ErrorKind,
	cause error,
	lang i18n.Language,
	log *zap.Logger,
) error {
	job.MarkFailed(kind, cause.Error())
	job.MarkExhausted()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to FAILED", zap.Error(err))
	}

	userMsg := i18n.ErrorMessage(lang, cause)
	uc.publishStatus(ctx, job, "", userMsg, log)
	metrics.JobsProcessedTotal.WithLabelValues("failed").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.FileName, userMsg)
	}

	log.Warn("extraction failed", zap.String("kind", string(kind)), zap.Error(cause))
	return nil
}

func (uc *ProcessExtractionUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	errMsg string,
	lang i18n.Language,
	log *zap.Logger,
) error {
	job.MarkFailed("", errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg, lang, log)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, "", "", log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *ProcessExtractionUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.Job,
	msg entity.ExtractionRequestMessage,
	rawMsg []byte,
	errMsg string,
	lang i18n.Language,
	log *zap.Logger,
) error {
	job.MarkFailed("", errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	userMsg := i18n.Lookup(lang).ErrorGeneric
	uc.publishStatus(ctx, job, "", userMsg, log)

	metrics.JobsProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.FileName, userMsg)
	}

	return nil
}

func (uc *ProcessExtractionUseCase) publishStatus(ctx context.Context, job *entity.Job, downloadURL, message string, log *zap.Logger) {
	statusMsg := entity.ExtractionStatusMessage{
		JobID:       job.ID,
		UserID:      job.UserID,
		Status:      job.Status,
		VideoKey:    job.VideoKey,
		FileName:    job.FileName,
		ImageKey:    job.ImageKey,
		ImageName:   job.ImageName,
		DownloadURL: downloadURL,
		Width:       job.Width,
		Height:      job.Height,
		Duration:    job.VideoDuration,
		ErrorKind:   job.ErrorKind,
		Message:     message,
		Attempt:     job.Attempt,
		MaxAttempts: job.MaxAttempts,
	}
	if job.ErrorKind != "" {
		statusMsg.ErrorCategory = job.ErrorKind.Category()
	}
	if err := uc.publisher.PublishStatus(ctx, statusMsg); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}
