package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
	"go.uber.org/zap"
)

// LocalFileExtractor runs the extractor on files on disk and writes the PNG
// beside them or into a chosen directory.
type LocalFileExtractor struct {
	extractor port.FrameExtractor
	logger    *zap.Logger
}

func NewLocalFileExtractor(extractor port.FrameExtractor, logger *zap.Logger) *LocalFileExtractor {
	return &LocalFileExtractor{extractor: extractor, logger: logger}
}

// ExtractFile returns the path of the written frame. An empty outDir means the
// video's own directory. The type hint comes from sniffing the file.
func (l *LocalFileExtractor) ExtractFile(ctx context.Context, srcPath, outDir string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open video: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat video: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", srcPath)
	}

	source := entity.SourceFile{
		Name:        filepath.Base(srcPath),
		ContentType: resolveContentType("", srcPath),
		Size:        info.Size(),
		Content:     f,
	}
	res, err := RunAttempt(ctx, entity.NewSession(), l.extractor, source)
	if err != nil {
		return "", err
	}

	if outDir == "" {
		outDir = filepath.Dir(srcPath)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	dst := filepath.Join(outDir, res.FileName)
	if err := os.WriteFile(dst, res.Encoded, 0644); err != nil {
		return "", fmt.Errorf("write frame: %w", err)
	}

	l.logger.Info("frame written",
		zap.String("video", srcPath),
		zap.String("frame", dst),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height),
	)
	return dst, nil
}

// IsFrameOutput reports whether path is a frame this package wrote, so a
// watcher on the output directory does not feed frames back in.
func IsFrameOutput(path string) bool {
	return strings.HasSuffix(filepath.Base(path), FrameFileSuffix)
}
