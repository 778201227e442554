package kernel

import (
	"fmt"
	"math"

	"github.com/san-kum/fractalzoo/internal/dynamo"
	"github.com/san-kum/fractalzoo/internal/integrators"
	"github.com/san-kum/fractalzoo/internal/palette"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// DefaultDt is the integration step used when TrajectoryParams.Dt is zero.
const DefaultDt = 0.01

// TrajectoryParams carries the inputs of the trajectory kernel.
type TrajectoryParams struct {
	System dynamo.System
	// Stepper defaults to RK4.
	Stepper dynamo.Integrator
	// Start defaults to the system's DefaultState, or all ones.
	Start dynamo.State
	Dt    float64
	// Axes selects the state components projected onto (x, y) of the plane.
	Axes    [2]int
	Palette palette.Palette
}

// Density is the per-pixel hit count of one trajectory.
type Density struct {
	W, H int
	Hits []uint32
	Max  uint32
}

// Accumulate integrates the system for maxIter steps and counts the visits
// of every pixel. Integration stops early once the state diverges.
func Accumulate(w, h int, r viewport.Rect, maxIter int, p TrajectoryParams) (*Density, error) {
	if p.System == nil {
		return nil, ErrNoSystem
	}
	dim := p.System.StateDim()
	if p.Axes[0] < 0 || p.Axes[0] >= dim || p.Axes[1] < 0 || p.Axes[1] >= dim {
		return nil, fmt.Errorf("axes %v for %d-dimensional system: %w", p.Axes, dim, dynamo.ErrDimensionMismatch)
	}

	x := p.Start.Clone()
	if s, ok := p.System.(dynamo.Seeded); ok && len(x) == 0 {
		x = s.DefaultState().Clone()
	}
	if len(x) == 0 {
		x = make(dynamo.State, dim)
		for i := range x {
			x[i] = 1
		}
	}
	if len(x) != dim {
		return nil, fmt.Errorf("start state has %d components, system %d: %w", len(x), dim, dynamo.ErrDimensionMismatch)
	}

	dt := p.Dt
	if dt == 0 {
		dt = DefaultDt
	}
	stepper := p.Stepper
	if stepper == nil {
		stepper = integrators.NewRK4()
	}

	d := &Density{W: w, H: h, Hits: make([]uint32, w*h)}
	ax, ay := p.Axes[0], p.Axes[1]
	for i := 0; i < maxIter; i++ {
		stepper.StepInto(x, p.System, x, dt)
		if !x.IsValid() {
			break
		}
		px, py, ok := PixelOf(x[ax], x[ay], w, h, r)
		if !ok {
			continue
		}
		idx := py*w + px
		d.Hits[idx]++
		if d.Hits[idx] > d.Max {
			d.Max = d.Hits[idx]
		}
	}
	return d, nil
}

// ShadeTile colors [x0,x1)×[y0,y1) by log density. Unvisited pixels get the
// terminal color.
func (d *Density) ShadeTile(buf []uint32, pal palette.Palette, x0, y0, x1, y1 int) error {
	if len(buf) < d.W*d.H {
		return fmt.Errorf("%w: have %d, need %dx%d", ErrBufferSize, len(buf), d.W, d.H)
	}
	if pal == nil {
		pal = defaultPalette
	}
	x0, y0, x1, y1 = clampTile(d.W, d.H, x0, y0, x1, y1)

	norm := 0.0
	if d.Max > 0 {
		norm = 1 / math.Log1p(float64(d.Max))
	}
	for y := y0; y < y1; y++ {
		off := y * d.W
		for x := x0; x < x1; x++ {
			n := d.Hits[off+x]
			if n == 0 {
				buf[off+x] = palette.Terminal
				continue
			}
			buf[off+x] = pal.ColorAt(float32(math.Log1p(float64(n)) * norm))
		}
	}
	return nil
}

// Trajectory renders the density map of the system into the whole buffer.
func Trajectory(buf []uint32, w, h int, r viewport.Rect, maxIter int, p TrajectoryParams) error {
	return TrajectoryTile(buf, w, h, r, maxIter, p, 0, 0, w, h)
}

// TrajectoryTile integrates the full trajectory and writes only the tile, so
// tiled and full renders agree pixel for pixel. Callers shading many tiles
// should Accumulate once and call ShadeTile per tile.
func TrajectoryTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p TrajectoryParams, x0, y0, x1, y1 int) error {
	if len(buf) < w*h {
		return fmt.Errorf("%w: have %d, need %dx%d", ErrBufferSize, len(buf), w, h)
	}
	d, err := Accumulate(w, h, r, maxIter, p)
	if err != nil {
		return err
	}
	return d.ShadeTile(buf, p.Palette, x0, y0, x1, y1)
}
