// Package physics provides the continuous systems behind trajectory fractals.
//
// Each model implements [dynamo.System] and [dynamo.Configurable]:
//
//   - [Lorenz]: butterfly attractor (projected onto x/z)
//   - [Rossler]: spiral attractor (projected onto x/y)
//
// Coefficients are set from fractal parameters of the same name before a
// trajectory is integrated:
//
//	sys := physics.NewLorenz()
//	_ = sys.SetParam("rho", 28)
package physics
