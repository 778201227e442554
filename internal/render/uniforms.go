package render

import (
	"errors"
	"fmt"
	"image"

	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/logging"
	"github.com/san-kum/fractalzoo/internal/palette"
)

// Uniform names every fractal shader program shares.
const (
	ResolutionUniform = "resolution"
	PaletteUniform    = "palette"
)

var (
	// ErrNoResolution means the linked program lacks the resolution
	// uniform. Hosts treat it like a link failure.
	ErrNoResolution = errors.New("render: program has no resolution uniform")

	// ErrUniformMissing marks a parameter without a matching uniform.
	ErrUniformMissing = errors.New("render: uniform not found")
)

// Program is a linked shader program as seen by the parameter feed.
// Locations are negative for uniforms the program does not have.
type Program interface {
	UniformLocation(name string) int32
	SetFloat(loc int32, v float32)
	SetVec2(loc int32, x, y float32)
	SetPalette(loc int32, colors []uint32)
}

// FeedUniforms uploads every parameter of d as a float uniform, the square
// resolution min(w,h)×min(w,h) and, when the program samples one, the
// palette. Parameters without a uniform are logged and skipped.
func FeedUniforms(p Program, d *fractal.Descriptor, w, h int) error {
	log := logging.Logger()
	d.Params.Each(func(name string, v float32) {
		loc := p.UniformLocation(name)
		if loc < 0 {
			log.Debug("skipping parameter", "fractal", d.Name, "err", fmt.Errorf("%w: %s", ErrUniformMissing, name))
			return
		}
		p.SetFloat(loc, v)
	})

	loc := p.UniformLocation(ResolutionUniform)
	if loc < 0 {
		return fmt.Errorf("%s: %w", d.Name, ErrNoResolution)
	}
	side := float32(min(w, h))
	p.SetVec2(loc, side, side)

	if loc := p.UniformLocation(PaletteUniform); loc >= 0 {
		p.SetPalette(loc, d.PaletteOrDefault().Colors())
	}
	return nil
}

// PaletteImage lays a palette out as an N×1 image for texture upload.
func PaletteImage(pal palette.Palette) *image.RGBA {
	colors := pal.Colors()
	img := image.NewRGBA(image.Rect(0, 0, max(len(colors), 1), 1))
	ToRGBA(img, colors)
	return img
}
