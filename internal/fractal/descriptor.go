package fractal

import (
	"fmt"

	"github.com/san-kum/fractalzoo/internal/palette"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// Kind selects the kernel family that renders a fractal.
type Kind uint8

const (
	EscapeTime Kind = iota
	Trajectory
	ShaderBased
)

func (k Kind) String() string {
	switch k {
	case EscapeTime:
		return "escape-time"
	case Trajectory:
		return "trajectory"
	case ShaderBased:
		return "shader"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ShaderPair holds the sources of a shader-based fractal.
type ShaderPair struct {
	Vertex   string
	Fragment string
}

// Descriptor describes one selectable fractal. Everything except the
// parameter values is immutable after load.
type Descriptor struct {
	Name    string
	Kind    Kind
	Variant Variant
	Params  *Params
	// Palette may be nil; renderers fall back to the default palette.
	Palette      palette.Palette
	ThumbnailRef string
	Shaders      *ShaderPair
	// Path is the catalog location, root excluded.
	Path []string
}

func (d *Descriptor) String() string { return d.Name }

// PaletteOrDefault returns the descriptor palette or the default one.
func (d *Descriptor) PaletteOrDefault() palette.Palette {
	if d.Palette != nil {
		return d.Palette
	}
	return palette.Default()
}

// StartView is the rectangle a fresh surface shows for this fractal.
func (d *Descriptor) StartView() viewport.Rect {
	if d.Variant.View != (viewport.Rect{}) {
		return d.Variant.View
	}
	return viewport.Canonical()
}

// HomeView is StartView with an override for escape-time fractals, which
// all share the canonical plane.
func (d *Descriptor) HomeView(override *viewport.Rect) viewport.Rect {
	if override != nil && d.Kind == EscapeTime {
		return *override
	}
	return d.StartView()
}

// MaxIter reads the maxIter parameter, falling back to def when absent or
// not positive.
func (d *Descriptor) MaxIter(def int) int {
	if v, ok := d.Params.Get("maxIter"); ok && v >= 1 {
		return int(v)
	}
	return def
}

// UsesParamGestures reports whether gestures drive this fractal through its
// parameters instead of the plane viewport.
func (d *Descriptor) UsesParamGestures() bool {
	return d.Kind == ShaderBased
}

// NeedsOffscreen reports whether the shader asks for an off-screen render
// target through the glBuffer parameter.
func (d *Descriptor) NeedsOffscreen() bool {
	v, ok := d.Params.Get("glBuffer")
	return ok && v != 0
}
