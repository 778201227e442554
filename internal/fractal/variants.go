package fractal

import (
	"maps"
	"slices"

	"github.com/san-kum/fractalzoo/internal/dynamo"
	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/physics"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// Variant is a resolved kernel implementation.
type Variant struct {
	ID      string
	Kind    Kind
	Formula kernel.Formula
	// NewSystem builds the continuous system of trajectory variants.
	NewSystem func() dynamo.System
	// Axes are the state components projected onto the plane.
	Axes [2]int
	// View overrides the canonical starting rectangle when non-zero.
	View viewport.Rect
}

// variants is the closed set of kernels selectable by the "class" field.
var variants = map[string]Variant{
	"mandelbrot":   {ID: "mandelbrot", Kind: EscapeTime, Formula: kernel.Mandelbrot},
	"burning_ship": {ID: "burning_ship", Kind: EscapeTime, Formula: kernel.BurningShip},
	"tricorn":      {ID: "tricorn", Kind: EscapeTime, Formula: kernel.Tricorn},
	"multibrot3":   {ID: "multibrot3", Kind: EscapeTime, Formula: kernel.Multibrot3},
	"julia":        {ID: "julia", Kind: EscapeTime, Formula: kernel.Julia},
	"lorenz": {
		ID: "lorenz", Kind: Trajectory, Axes: [2]int{0, 2},
		View:      viewport.Rect{Left: -30, Top: 55, Right: 30, Bottom: -5},
		NewSystem: func() dynamo.System { return physics.NewLorenz() },
	},
	"rossler": {
		ID: "rossler", Kind: Trajectory, Axes: [2]int{0, 1},
		View:      viewport.Rect{Left: -15, Top: 13, Right: 15, Bottom: -15},
		NewSystem: func() dynamo.System { return physics.NewRossler() },
	},
	"glsl": {ID: "glsl", Kind: ShaderBased},
}

// aliases maps class names used by older catalogs onto variant ids.
var aliases = map[string]string{
	"com.draabek.fractal.gl.GLSLFractal": "glsl",
}

// LookupVariant resolves a class id. The boolean is false for unknown ids.
func LookupVariant(id string) (Variant, bool) {
	if a, ok := aliases[id]; ok {
		id = a
	}
	v, ok := variants[id]
	return v, ok
}

// VariantIDs lists the canonical variant ids in sorted order.
func VariantIDs() []string {
	return slices.Sorted(maps.Keys(variants))
}
