package viewport

import (
	"errors"
	"fmt"
)

var ErrDegenerate = errors.New("viewport: degenerate rectangle")

// Rect is the region of the mathematical plane mapped onto the pixel buffer.
// Top may be greater than Bottom: escape-time kernels treat Y as growing
// downward from Top, GPU-fed kernels treat it as growing upward.
type Rect struct {
	Left   float64 `yaml:"left" json:"left"`
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
}

// Canonical is the starting rectangle of a freshly sized surface.
func Canonical() Rect {
	return Rect{Left: -2.5, Top: -1.5, Right: 1.5, Bottom: 1.5}
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

func (r Rect) Validate() error {
	if r.Left == r.Right || r.Top == r.Bottom {
		return fmt.Errorf("%w: %+v", ErrDegenerate, r)
	}
	return nil
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (x, y float64) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// Pan shifts the rectangle so that content dragged by (dx, dy) screen pixels
// on a w×h surface follows the pointer.
func (r Rect) Pan(dx, dy float64, w, h int) Rect {
	if w <= 0 || h <= 0 {
		return r
	}
	sx := dx / float64(w) * r.Width()
	sy := dy / float64(h) * r.Height()
	return Rect{
		Left:   r.Left - sx,
		Top:    r.Top - sy,
		Right:  r.Right - sx,
		Bottom: r.Bottom - sy,
	}
}

// Zoom scales the rectangle about its center. ratio > 1 zooms in.
// Non-positive ratios leave the rectangle unchanged.
func (r Rect) Zoom(ratio float64) Rect {
	if ratio <= 0 {
		return r
	}
	cx, cy := r.Center()
	hw := r.Width() / 2 / ratio
	hh := r.Height() / 2 / ratio
	return Rect{Left: cx - hw, Top: cy - hh, Right: cx + hw, Bottom: cy + hh}
}
