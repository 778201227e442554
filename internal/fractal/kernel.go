package fractal

import (
	"github.com/san-kum/fractalzoo/internal/dynamo"
	"github.com/san-kum/fractalzoo/internal/integrators"
	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/logging"
)

// EscapeParams builds the escape-time kernel inputs from the current
// parameter values. Julia sets read their constant from cRe and cIm.
func (d *Descriptor) EscapeParams() kernel.EscapeParams {
	return kernel.EscapeParams{
		Formula: d.Variant.Formula,
		Palette: d.PaletteOrDefault(),
		Smooth:  d.Params.GetOr("smooth", 0) != 0,
		K: complex(
			float64(d.Params.GetOr("cRe", -0.8)),
			float64(d.Params.GetOr("cIm", 0.156)),
		),
	}
}

// TrajectoryParams builds the trajectory kernel inputs. A fresh system is
// created per call and every descriptor parameter it recognizes is applied.
// A non-zero euler parameter swaps RK4 for the forward Euler stepper.
func (d *Descriptor) TrajectoryParams() kernel.TrajectoryParams {
	p := kernel.TrajectoryParams{
		Axes:    d.Variant.Axes,
		Palette: d.PaletteOrDefault(),
		Dt:      float64(d.Params.GetOr("dt", kernel.DefaultDt)),
	}
	if d.Params.GetOr("euler", 0) != 0 {
		p.Stepper = integrators.NewEuler()
	}
	if d.Variant.NewSystem == nil {
		return p
	}
	sys := d.Variant.NewSystem()
	if c, ok := sys.(dynamo.Configurable); ok {
		known := c.GetParams()
		d.Params.Each(func(name string, v float32) {
			if _, ok := known[name]; !ok {
				return
			}
			if err := c.SetParam(name, float64(v)); err != nil {
				logging.Logger().Warn("trajectory parameter rejected", "fractal", d.Name, "param", name, "err", err)
			}
		})
	}
	p.System = sys
	p.Start = d.startState(sys)
	return p
}

// startState overrides the system's default start with any of x0, y0, z0.
// It returns nil when none is set, leaving the choice to the kernel.
func (d *Descriptor) startState(sys dynamo.System) dynamo.State {
	keys := [...]string{"x0", "y0", "z0"}
	if sys.StateDim() != len(keys) {
		return nil
	}
	var start dynamo.State
	if s, ok := sys.(dynamo.Seeded); ok {
		start = s.DefaultState().Clone()
	}
	if len(start) != len(keys) {
		start = dynamo.State{1, 1, 1}
	}
	set := false
	for i, k := range keys {
		if v, ok := d.Params.Get(k); ok {
			start[i] = float64(v)
			set = true
		}
	}
	if !set {
		return nil
	}
	return start
}
