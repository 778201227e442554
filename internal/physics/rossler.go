package physics

import (
	"fmt"

	"github.com/san-kum/fractalzoo/internal/dynamo"
)

type Rossler struct{ a, b, c float64 }

func NewRossler() *Rossler       { return &Rossler{0.2, 0.2, 5.7} }
func (r *Rossler) StateDim() int { return 3 }

// DeriveInto calculates the Rossler attractor derivatives.
func (r *Rossler) DeriveInto(dst, s dynamo.State) {
	dst[0] = -s[1] - s[2]
	dst[1] = s[0] + r.a*s[1]
	dst[2] = r.b + s[2]*(s[0]-r.c)
}
func (r *Rossler) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }
func (r *Rossler) GetParams() map[string]float64 {
	return map[string]float64{"a": r.a, "b": r.b, "c": r.c}
}
func (r *Rossler) SetParam(n string, v float64) error {
	switch n {
	case "a":
		r.a = v
	case "b":
		r.b = v
	case "c":
		r.c = v
	default:
		return fmt.Errorf("rossler %q: %w", n, dynamo.ErrUnknownParam)
	}
	return nil
}
