package physics

import (
	"fmt"

	"github.com/san-kum/fractalzoo/internal/dynamo"
)

type Lorenz struct{ sigma, rho, beta float64 }

func NewLorenz() *Lorenz        { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }
func (l *Lorenz) StateDim() int { return 3 }

// DeriveInto calculates the Lorenz attractor derivatives.
func (l *Lorenz) DeriveInto(dst, s dynamo.State) {
	dst[0] = l.sigma * (s[1] - s[0])
	dst[1] = s[0]*(l.rho-s[2]) - s[1]
	dst[2] = s[0]*s[1] - l.beta*s[2]
}
func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}
func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return fmt.Errorf("lorenz %q: %w", n, dynamo.ErrUnknownParam)
	}
	return nil
}
