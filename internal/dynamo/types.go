package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is a continuous-time system dX/dt = f(X). Trajectory kernels
// integrate it and project the visited states onto the image plane.
type System interface {
	// DeriveInto writes f(x) into dst. dst and x have StateDim entries.
	DeriveInto(dst, x State)
	StateDim() int
}

type Integrator interface {
	// StepInto advances x by dt and writes the result into dst.
	StepInto(dst State, dyn System, x State, dt float64)
}

// Seeded systems supply their own starting point.
type Seeded interface {
	DefaultState() State
}

// Configurable systems expose their coefficients by name.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
