package entity

import (
	"io"
	"mime"
	"strings"
)

// SourceFile is a caller-owned video blob borrowed for one extraction attempt.
type SourceFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.ReaderAt
}

// IsVideo reports whether the declared type hint names the video category.
// The content itself is not inspected.
func (f SourceFile) IsVideo() bool {
	ct := strings.TrimSpace(f.ContentType)
	if ct == "" {
		return false
	}
	if mediaType, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mediaType
	}
	return strings.HasPrefix(strings.ToLower(ct), "video/")
}

// Reader returns a fresh reader over the whole blob.
func (f SourceFile) Reader() io.Reader {
	return io.NewSectionReader(f.Content, 0, f.Size)
}

// MediaMetadata is what a decode session knows once its header has been parsed.
type MediaMetadata struct {
	Duration float64
	Width    int
	Height   int
}
