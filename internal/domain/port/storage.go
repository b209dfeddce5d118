package port

import (
	"context"
	"io"
	"time"
)

type VideoObject struct {
	Key         string
	ContentType string
	Size        int64
}

type VideoStorage interface {
	StatVideo(ctx context.Context, objectKey string) (*VideoObject, error)
	DownloadVideo(ctx context.Context, objectKey string, destPath string) error
	UploadFrame(ctx context.Context, objectKey string, reader io.Reader, size int64) error
	FrameURL(ctx context.Context, objectKey string, fileName string, expiry time.Duration) (string, error)
}
