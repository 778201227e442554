package render

import (
	"errors"
	"fmt"

	"github.com/san-kum/fractalzoo/internal/compute"
	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// ErrNotSoftware indicates a fractal that needs a shader program.
var ErrNotSoftware = errors.New("render: fractal needs the shader renderer")

// Software turns descriptors into kernel calls on a compute backend.
type Software struct {
	Backend compute.Backend
	// MaxIter applies to fractals without a maxIter parameter.
	MaxIter int
}

func NewSoftware(b compute.Backend, maxIter int) *Software {
	if b == nil {
		b = compute.NewSerialBackend()
	}
	if maxIter <= 0 {
		maxIter = 256
	}
	return &Software{Backend: b, MaxIter: maxIter}
}

// DrawFunc renders d over r into the whole buffer.
func (s *Software) DrawFunc(d *fractal.Descriptor, r viewport.Rect) DrawFunc {
	return func(buf []uint32, w, h int) error {
		return s.draw(d, r, buf, w, h, 0, 0, w, h)
	}
}

// TileFunc renders only [x0,x1)×[y0,y1), keeping the rest of the previous
// frame.
func (s *Software) TileFunc(d *fractal.Descriptor, r viewport.Rect, x0, y0, x1, y1 int) DrawFunc {
	return func(buf []uint32, w, h int) error {
		return s.draw(d, r, buf, w, h, x0, y0, x1, y1)
	}
}

func (s *Software) draw(d *fractal.Descriptor, r viewport.Rect, buf []uint32, w, h, x0, y0, x1, y1 int) error {
	if d == nil {
		return errors.New("render: no fractal selected")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	maxIter := d.MaxIter(s.MaxIter)
	full := x0 <= 0 && y0 <= 0 && x1 >= w && y1 >= h

	switch d.Kind {
	case fractal.EscapeTime:
		if full {
			return s.Backend.EscapeTime(buf, w, h, r, maxIter, d.EscapeParams())
		}
		return s.Backend.EscapeTimeTile(buf, w, h, r, maxIter, d.EscapeParams(), x0, y0, x1, y1)
	case fractal.Trajectory:
		if full {
			return s.Backend.Trajectory(buf, w, h, r, maxIter, d.TrajectoryParams())
		}
		return s.Backend.TrajectoryTile(buf, w, h, r, maxIter, d.TrajectoryParams(), x0, y0, x1, y1)
	case fractal.ShaderBased:
		return fmt.Errorf("%w: %s", ErrNotSoftware, d.Name)
	}
	return fmt.Errorf("render: unsupported kind %v", d.Kind)
}
