package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultWaitTimeout = 10 * time.Second
	frameFormat        = "png"
)

type ExtractorConfig struct {
	MetadataTimeout time.Duration
	SeekTimeout     time.Duration
	// SeekBackoff is subtracted from the duration, in seconds.
	SeekBackoff float64
}

func (c ExtractorConfig) withDefaults() ExtractorConfig {
	if c.MetadataTimeout <= 0 {
		c.MetadataTimeout = DefaultWaitTimeout
	}
	if c.SeekTimeout <= 0 {
		c.SeekTimeout = DefaultWaitTimeout
	}
	if c.SeekBackoff <= 0 {
		c.SeekBackoff = DefaultSeekBackoff
	}
	return c
}

// LastFrameExtractor sequences one decode session per call: load metadata,
// seek just before the end, rasterize at native size, encode PNG. It keeps no
// state between calls.
type LastFrameExtractor struct {
	decoder port.MediaDecoder
	encoder port.FrameEncoder
	logger  *zap.Logger
	cfg     ExtractorConfig
}

func NewLastFrameExtractor(
	decoder port.MediaDecoder,
	encoder port.FrameEncoder,
	logger *zap.Logger,
	cfg ExtractorConfig,
) *LastFrameExtractor {
	return &LastFrameExtractor{
		decoder: decoder,
		encoder: encoder,
		logger:  logger,
		cfg:     cfg.withDefaults(),
	}
}

// ExtractLastFrame returns either a result or an *entity.ExtractionError.
func (e *LastFrameExtractor) ExtractLastFrame(ctx context.Context, file entity.SourceFile) (*entity.ExtractionResult, error) {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "LastFrameExtractor.ExtractLastFrame")
	defer span.End()

	span.SetAttributes(
		attribute.String("file.name", file.Name),
		attribute.String("file.content_type", file.ContentType),
	)

	log := e.logger.With(zap.String("file_name", file.Name), zap.String("content_type", file.ContentType))

	res, xerr := e.extract(ctx, file, log)
	if xerr != nil {
		log.Warn("last frame extraction failed",
			zap.String("kind", string(xerr.Kind)),
			zap.String("detail", xerr.Detail),
			zap.Error(xerr.Err),
		)
		span.SetAttributes(attribute.String("extraction.error_kind", string(xerr.Kind)))
		span.SetStatus(codes.Error, xerr.Error())
		return nil, xerr
	}

	span.SetAttributes(
		attribute.Int("frame.width", res.Width),
		attribute.Int("frame.height", res.Height),
		attribute.Float64("frame.seek_time", res.SeekTime),
	)
	log.Info("last frame extracted",
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
		zap.Float64("duration_secs", res.Duration),
		zap.Float64("seek_time", res.SeekTime),
		zap.Int("png_bytes", len(res.Encoded)),
	)
	return res, nil
}

func (e *LastFrameExtractor) extract(ctx context.Context, file entity.SourceFile, log *zap.Logger) (*entity.ExtractionResult, *entity.ExtractionError) {
	if !file.IsVideo() {
		return nil, entity.NewExtractionError(entity.ErrInvalidInputType,
			fmt.Sprintf("content type %q is not a video", file.ContentType), nil)
	}

	session, err := e.decoder.Open(ctx, file)
	if err != nil {
		return nil, entity.NewExtractionError(entity.ErrMetadataError, "open decode session", err)
	}
	defer func() {
		if err := session.Release(); err != nil {
			log.Warn("failed to release decode session", zap.Error(err))
		}
	}()

	if xerr := e.await(ctx, "await_metadata", e.cfg.MetadataTimeout,
		session.LoadMetadata, entity.ErrMetadataError, entity.ErrMetadataTimeout); xerr != nil {
		return nil, xerr
	}

	meta := session.Metadata()
	seekTime := SeekTarget(meta.Duration, e.cfg.SeekBackoff)
	log.Debug("metadata loaded",
		zap.Float64("duration_secs", meta.Duration),
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.Float64("seek_time", seekTime),
	)

	seek := func(resolve func(), reject func(error)) {
		session.SeekTo(seekTime, resolve, reject)
	}
	if xerr := e.await(ctx, "await_seek", e.cfg.SeekTimeout,
		seek, entity.ErrSeekError, entity.ErrSeekTimeout); xerr != nil {
		return nil, xerr
	}

	surface, err := e.encoder.Rasterize(session, meta.Width, meta.Height)
	if err != nil {
		return nil, entity.NewExtractionError(entity.ErrEncodeError, "rasterize frame", err)
	}
	encoded, err := surface.Encode(frameFormat)
	if err != nil {
		return nil, entity.NewExtractionError(entity.ErrEncodeError, "encode "+frameFormat, err)
	}

	return &entity.ExtractionResult{
		Image:    surface.Image(),
		Encoded:  encoded,
		FileName: SuggestedFileName(file.Name),
		Width:    meta.Width,
		Height:   meta.Height,
		Duration: meta.Duration,
		SeekTime: seekTime,
	}, nil
}

func (e *LastFrameExtractor) await(
	ctx context.Context,
	spanName string,
	timeout time.Duration,
	start func(resolve func(), reject func(error)),
	errKind, timeoutKind entity.ErrorKind,
) *entity.ExtractionError {
	ctx, span := otel.Tracer("usecase").Start(ctx, spanName)
	defer span.End()

	s := awaitSignal(ctx, timeout, start)
	switch s.outcome {
	case outcomeReady:
		return nil
	case outcomeTimedOut:
		span.SetStatus(codes.Error, "timeout")
		return entity.NewExtractionError(timeoutKind, fmt.Sprintf("no signal within %s", timeout), nil)
	case outcomeCancelled:
		span.SetStatus(codes.Error, "cancelled")
		return entity.NewExtractionError(errKind, "cancelled", s.err)
	default:
		span.SetStatus(codes.Error, "decoder error")
		return entity.NewExtractionError(errKind, "decoder reported an error", s.err)
	}
}
