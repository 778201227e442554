package integrators

import "github.com/san-kum/fractalzoo/internal/dynamo"

type Euler struct {
	dx dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) StepInto(dst dynamo.State, dyn dynamo.System, x dynamo.State, dt float64) {
	if len(e.dx) != len(x) {
		e.dx = make(dynamo.State, len(x))
	}
	dyn.DeriveInto(e.dx, x)
	for i := range x {
		dst[i] = x[i] + dt*e.dx[i]
	}
}
