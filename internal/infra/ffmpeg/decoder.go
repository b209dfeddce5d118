package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
	"go.uber.org/zap"
)

type DecoderConfig struct {
	FFmpegPath  string
	FFprobePath string
	TempDir     string
}

// Decoder opens decode sessions backed by the ffprobe and ffmpeg binaries.
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	tempDir     string
	logger      *zap.Logger
}

func NewDecoder(cfg DecoderConfig, logger *zap.Logger) *Decoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	return &Decoder{
		ffmpegPath:  cfg.FFmpegPath,
		ffprobePath: cfg.FFprobePath,
		tempDir:     cfg.TempDir,
		logger:      logger,
	}
}

// Open stages the source bytes in a temporary file that lives until Release.
func (d *Decoder) Open(ctx context.Context, file entity.SourceFile) (port.DecodeSession, error) {
	if file.Content == nil {
		return nil, errors.New("source file has no content")
	}
	if d.tempDir != "" {
		if err := os.MkdirAll(d.tempDir, 0755); err != nil {
			return nil, fmt.Errorf("create temp dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(d.tempDir, "lastframe-*"+filepath.Ext(file.Name))
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	if _, err := io.Copy(tmp, file.Reader()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("stage source: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("close staging file: %w", err)
	}

	sctx, cancel := context.WithCancel(ctx)
	d.logger.Debug("decode session opened", zap.String("path", tmp.Name()), zap.Int64("size", file.Size))
	return &session{
		decoder: d,
		ctx:     sctx,
		cancel:  cancel,
		path:    tmp.Name(),
	}, nil
}

type session struct {
	decoder *Decoder
	ctx     context.Context
	cancel  context.CancelFunc
	path    string
	wg      sync.WaitGroup

	mu       sync.Mutex
	meta     entity.MediaMetadata
	frame    image.Image
	released bool
}

var errSessionReleased = errors.New("decode session released")

func (s *session) LoadMetadata(onLoaded func(), onError func(error)) {
	if !s.begin(onError) {
		return
	}
	go func() {
		defer s.wg.Done()
		meta, err := s.decoder.probe(s.ctx, s.path)
		if err != nil {
			onError(err)
			return
		}
		s.mu.Lock()
		s.meta = meta
		s.mu.Unlock()
		onLoaded()
	}()
}

func (s *session) Metadata() entity.MediaMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

func (s *session) SeekTo(seconds float64, onSeeked func(), onError func(error)) {
	if !s.begin(onError) {
		return
	}
	meta := s.Metadata()
	go func() {
		defer s.wg.Done()
		img, err := s.decoder.decodeFrameAt(s.ctx, s.path, seconds, meta.Width, meta.Height)
		if err != nil {
			onError(err)
			return
		}
		s.mu.Lock()
		s.frame = img
		s.mu.Unlock()
		onSeeked()
	}()
}

func (s *session) CurrentFrame() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return nil, errors.New("no frame decoded")
	}
	return s.frame, nil
}

// Release stops any running ffmpeg/ffprobe process and removes the staged file.
// It is safe to call more than once.
func (s *session) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.frame = nil
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staging file: %w", err)
	}
	s.decoder.logger.Debug("decode session released", zap.String("path", s.path))
	return nil
}

// begin registers a background operation, or reports errSessionReleased.
func (s *session) begin(onError func(error)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		go onError(errSessionReleased)
		return false
	}
	s.wg.Add(1)
	return true
}

// seekWindow is how far before the target decoding starts, so the frame
// on screen at the target is found even when no frame starts exactly there.
const seekWindow = 1.0

// decodeFrameAt returns the last frame whose timestamp is at or before seconds,
// as raw RGBA of width x height.
func (d *Decoder) decodeFrameAt(ctx context.Context, path string, seconds float64, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	from := math.Max(0, seconds-seekWindow)
	raw, err := d.decodeWindow(ctx, path, from, seconds, width, height)
	if err == nil && raw == nil && from > 0 {
		// the picture ended before the window opened; take the last frame there is
		d.logger.Debug("no frame in seek window, decoding from start",
			zap.Float64("seek_time", seconds),
			zap.Float64("window_start", from),
		)
		raw, err = d.decodeWindow(ctx, path, 0, seconds, width, height)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("no frame decoded at %.3fs", seconds)
	}
	return rgbaFromRaw(raw, width, height)
}

// decodeWindow decodes the video stream over [from, to] and returns the last
// frame's bytes, or nil when the window holds no frame.
func (d *Decoder) decodeWindow(ctx context.Context, path string, from, to float64, width, height int) ([]byte, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(from),
		"-i", path,
		"-t", formatSeconds(to-from+0.001),
		"-map", "0:v:0",
		"-an", "-sn", "-dn",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	raw, readErr := readLastFrame(stdout, width*height*4)
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg error: %w, output: %s", err, stderr.String())
	}
	if readErr != nil {
		return nil, fmt.Errorf("read frames %.3fs-%.3fs: %w", from, to, readErr)
	}
	return raw, nil
}

// readLastFrame consumes r in frameSize chunks and keeps only the final one.
func readLastFrame(r io.Reader, frameSize int) ([]byte, error) {
	cur := make([]byte, frameSize)
	var last []byte
	for {
		_, err := io.ReadFull(r, cur)
		switch {
		case err == nil:
			if last == nil {
				last = make([]byte, frameSize)
			}
			last, cur = cur, last
		case errors.Is(err, io.EOF):
			return last, nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			return nil, fmt.Errorf("truncated frame: %w", err)
		default:
			return nil, err
		}
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}

func rgbaFromRaw(raw []byte, width, height int) (*image.RGBA, error) {
	want := width * height * 4
	if len(raw) != want {
		return nil, fmt.Errorf("decoded frame is %d bytes, want %d for %dx%d", len(raw), want, width, height)
	}
	return &image.RGBA{
		Pix:    raw,
		Stride: width * 4,
		Rect:   image.Rect(0, 0, width, height),
	}, nil
}
