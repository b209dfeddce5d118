package usecase

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/ysyms/lastFrameV2/internal/domain/entity"
	"github.com/ysyms/lastFrameV2/internal/domain/port"
)

type signalMode int

const (
	signalOK signalMode = iota
	signalError
	signalNever
)

// countingDecoder is a MediaDecoder double that counts sessions it opens and
// releases and records every seek target.
type countingDecoder struct {
	mu       sync.Mutex
	meta     entity.MediaMetadata
	metaMode signalMode
	seekMode signalMode
	openErr  error

	opened      int
	released    int
	seekTargets []float64
	pending     []func()
}

func (d *countingDecoder) Open(_ context.Context, _ entity.SourceFile) (port.DecodeSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++
	return &countingSession{d: d}, nil
}

func (d *countingDecoder) counts() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened, d.released
}

func (d *countingDecoder) seeks() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.seekTargets...)
}

// firePending delivers the signals a signalNever session swallowed.
func (d *countingDecoder) firePending() {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

type countingSession struct {
	d        *countingDecoder
	seeked   bool
	released bool
}

func (s *countingSession) LoadMetadata(onLoaded func(), onError func(error)) {
	s.signal(s.d.metaMode, onLoaded, onError, errors.New("demuxer rejected header"))
}

func (s *countingSession) Metadata() entity.MediaMetadata {
	return s.d.meta
}

func (s *countingSession) SeekTo(seconds float64, onSeeked func(), onError func(error)) {
	s.d.mu.Lock()
	s.d.seekTargets = append(s.d.seekTargets, seconds)
	s.d.mu.Unlock()
	s.seeked = true
	s.signal(s.d.seekMode, onSeeked, onError, errors.New("seek past end of stream"))
}

func (s *countingSession) signal(mode signalMode, ok func(), fail func(error), err error) {
	switch mode {
	case signalOK:
		ok()
	case signalError:
		fail(err)
	case signalNever:
		s.d.mu.Lock()
		s.d.pending = append(s.d.pending, ok, func() { fail(err) })
		s.d.mu.Unlock()
	}
}

func (s *countingSession) CurrentFrame() (image.Image, error) {
	if !s.seeked {
		return nil, errors.New("no frame decoded")
	}
	m := s.d.meta
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return img, nil
}

func (s *countingSession) Release() error {
	if s.released {
		return nil
	}
	s.released = true
	s.d.mu.Lock()
	s.d.released++
	s.d.mu.Unlock()
	return nil
}

type failingEncoder struct {
	rasterErr error
	encodeErr error
}

func (e failingEncoder) Rasterize(_ port.DecodeSession, width, height int) (port.Surface, error) {
	if e.rasterErr != nil {
		return nil, e.rasterErr
	}
	return failingSurface{err: e.encodeErr, img: image.NewRGBA(image.Rect(0, 0, width, height))}, nil
}

type failingSurface struct {
	img *image.RGBA
	err error
}

func (s failingSurface) Image() image.Image { return s.img }

func (s failingSurface) Encode(string) ([]byte, error) { return nil, s.err }
