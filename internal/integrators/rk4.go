package integrators

import "github.com/san-kum/fractalzoo/internal/dynamo"

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

// StepInto is allocation-free once the scratch buffers are sized. dst may
// alias x.
func (r *RK4) StepInto(dst dynamo.State, dyn dynamo.System, x dynamo.State, dt float64) {
	n := len(x)
	r.ensureScratch(n)

	dyn.DeriveInto(r.k1, x)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	dyn.DeriveInto(r.k2, r.scratch)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	dyn.DeriveInto(r.k3, r.scratch)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	dyn.DeriveInto(r.k4, r.scratch)

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		dst[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
}
