package port

import (
	"context"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
)

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg entity.ExtractionStatusMessage) error
}

// DLQPublisher parks a raw request that will never be processed successfully.
type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, raw []byte, reason string) error
}
