// Package dynamo provides the primitives shared by trajectory fractals:
// state vectors, continuous systems and integrators.
//
//   - [State]: vector representing system state
//   - [System]: interface for autonomous ODE systems (dX/dt = f(X))
//   - [Integrator]: allocation-free numerical stepper
//   - [Seeded], [Configurable]: optional system capabilities
//
// # Example
//
//	sys := physics.NewLorenz()
//	rk := integrators.NewRK4()
//	x, next := sys.DefaultState(), make(dynamo.State, 3)
//	rk.StepInto(next, sys, x, 0.01)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
// Create one per goroutine.
package dynamo
