package usecase

import (
	"context"
	"fmt"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
)

// RunAttempt drives one extraction through s. It refuses to start while
// another attempt on s is in flight.
func RunAttempt(ctx context.Context, s *entity.Session, x port.FrameExtractor, file entity.SourceFile) (*entity.ExtractionResult, error) {
	if err := s.Start(file.Name); err != nil {
		return nil, err
	}

	res, err := x.ExtractLastFrame(ctx, file)
	if err == nil && res == nil {
		err = entity.NewExtractionError(entity.ErrEncodeError, "extractor returned no result", nil)
	}
	if err != nil {
		if ferr := s.Fail(err); ferr != nil {
			return nil, fmt.Errorf("session: %w", ferr)
		}
		return nil, err
	}

	if serr := s.Succeed(res); serr != nil {
		return nil, fmt.Errorf("session: %w", serr)
	}
	return res, nil
}
