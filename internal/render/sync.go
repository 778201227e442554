package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"sync"
	"sync/atomic"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/san-kum/fractalzoo/internal/logging"
)

var (
	// ErrRenderInFlight is returned when Draw is called while another draw
	// on the same surface has not finished. The request is dropped.
	ErrRenderInFlight = errors.New("render: draw already in flight")

	// ErrInvalidSize indicates a non-positive surface size.
	ErrInvalidSize = errors.New("render: invalid surface size")
)

// DrawFunc fills buf, a w×h row-major ARGB buffer holding the previous
// frame.
type DrawFunc func(buf []uint32, w, h int) error

// Synchronizer owns the pixel buffers of one surface. The kernel renders into
// a back buffer without holding the surface lock; publishing the result,
// reallocating on resize and reading for display all happen under it.
type Synchronizer struct {
	mu       sync.Mutex
	inFlight atomic.Bool
	listener Listener

	w, h  int
	front []uint32
	back  []uint32

	// img and preview are secondary surfaces tied to the current size.
	img      *image.RGBA
	imgDirty bool
	preview  *image.RGBA
}

func NewSynchronizer(l Listener) *Synchronizer {
	if l == nil {
		l = Listeners(nil)
	}
	return &Synchronizer{listener: l}
}

// InFlight reports whether a draw cycle is running.
func (s *Synchronizer) InFlight() bool { return s.inFlight.Load() }

// Draw runs one cycle: notify, resize if needed, render, publish, notify.
// The context is only consulted before the cycle starts.
func (s *Synchronizer) Draw(ctx context.Context, w, h int, fn DrawFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		logging.Logger().Debug("dropping draw request", "reason", "in flight")
		return ErrRenderInFlight
	}
	defer s.inFlight.Store(false)

	s.listener.OnRenderRequested()
	start := time.Now()

	s.mu.Lock()
	if w != s.w || h != s.h {
		s.realloc(w, h)
	} else {
		copy(s.back, s.front)
	}
	back := s.back
	s.mu.Unlock()

	err := fn(back, w, h)

	s.mu.Lock()
	if err == nil {
		s.front, s.back = s.back, s.front
		s.imgDirty = true
	}
	s.mu.Unlock()

	elapsed := time.Since(start)
	s.listener.OnRenderComplete(elapsed)
	logging.Logger().Debug("draw complete", "w", w, "h", h, "elapsed", elapsed, "err", err)
	return err
}

// realloc replaces both buffers and drops the size-bound surfaces.
// Callers hold s.mu.
func (s *Synchronizer) realloc(w, h int) {
	s.w, s.h = w, h
	s.front = make([]uint32, w*h)
	s.back = make([]uint32, w*h)
	s.img = nil
	s.preview = nil
	s.imgDirty = true
}

// Size returns the size of the published buffer.
func (s *Synchronizer) Size() (w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w, s.h
}

// Snapshot copies the published buffer.
func (s *Synchronizer) Snapshot() (buf []uint32, w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, len(s.front))
	copy(out, s.front)
	return out, s.w, s.h
}

// Read calls fn with the published buffer while holding the surface lock.
// fn must not retain buf.
func (s *Synchronizer) Read(fn func(buf []uint32, w, h int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.front, s.w, s.h)
}

// Image returns the published buffer as an image. The image is shared and
// rebuilt in place after each draw; callers must not keep it across draws.
func (s *Synchronizer) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.imageLocked()
}

func (s *Synchronizer) imageLocked() *image.RGBA {
	if s.w == 0 || s.h == 0 {
		return nil
	}
	if s.img == nil {
		s.img = image.NewRGBA(image.Rect(0, 0, s.w, s.h))
		s.imgDirty = true
	}
	if s.imgDirty {
		ToRGBA(s.img, s.front)
		s.imgDirty = false
	}
	return s.img
}

// Composite draws the published buffer onto dst at its origin.
func (s *Synchronizer) Composite(dst draw.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.imageLocked()
	if src == nil {
		return
	}
	draw.Draw(dst, dst.Bounds(), src, image.Point{}, draw.Src)
}

// Preview renders the published image shifted by (dx, dy) pixels and scaled
// by scale about the surface center, the way a running gesture shows it.
func (s *Synchronizer) Preview(dx, dy, scale float64) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.imageLocked()
	if src == nil {
		return nil
	}
	if s.preview == nil {
		s.preview = image.NewRGBA(src.Bounds())
	}
	for i := range s.preview.Pix {
		s.preview.Pix[i] = 0
	}
	if scale <= 0 {
		scale = 1
	}
	xdraw.ApproxBiLinear.Transform(s.preview, PreviewTransform(s.w, s.h, dx, dy, scale), src, src.Bounds(), xdraw.Src, nil)
	return s.preview
}

// PreviewTransform maps source pixels to the gesture preview: scale about
// the center of a w×h surface, then shift by (dx, dy).
func PreviewTransform(w, h int, dx, dy, scale float64) f64.Aff3 {
	cx, cy := float64(w)/2, float64(h)/2
	return f64.Aff3{
		scale, 0, (1-scale)*cx + dx,
		0, scale, (1-scale)*cy + dy,
	}
}

// ToRGBA converts packed ARGB pixels into dst. The buffer and image must
// have the same pixel count.
func ToRGBA(dst *image.RGBA, buf []uint32) {
	pix := dst.Pix
	for i, c := range buf {
		j := i * 4
		if j+3 >= len(pix) {
			return
		}
		pix[j] = uint8(c >> 16)
		pix[j+1] = uint8(c >> 8)
		pix[j+2] = uint8(c)
		pix[j+3] = uint8(c >> 24)
	}
}
