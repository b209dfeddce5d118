package port

import (
	"context"
	"image"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
)

// DecodeSession is a handle into the media decoder bound to one source file.
// LoadMetadata and SeekTo return immediately; exactly one of their callbacks
// is expected to fire later, possibly from another goroutine.
type DecodeSession interface {
	LoadMetadata(onLoaded func(), onError func(error))
	Metadata() entity.MediaMetadata
	SeekTo(seconds float64, onSeeked func(), onError func(error))
	CurrentFrame() (image.Image, error)
	Release() error
}

type MediaDecoder interface {
	Open(ctx context.Context, file entity.SourceFile) (DecodeSession, error)
}

// Surface is a rasterized frame ready to be encoded.
type Surface interface {
	Image() image.Image
	Encode(format string) ([]byte, error)
}

type FrameEncoder interface {
	Rasterize(session DecodeSession, width, height int) (Surface, error)
}

type FrameExtractor interface {
	ExtractLastFrame(ctx context.Context, file entity.SourceFile) (*entity.ExtractionResult, error)
}
