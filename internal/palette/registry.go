package palette

import "github.com/lucasb-eyer/go-colorful"

// builders is the closed set of palettes selectable from catalog metadata.
// Keys are the ids used in the "palette" field; the original fully
// qualified class name of the copper palette is accepted as an alias.
var builders = map[string]func() Palette{
	"copper":    func() Palette { return Copper(DefaultSize) },
	"grayscale": func() Palette { return Grayscale(DefaultSize) },
	"fire": func() Palette {
		return Gradient(DefaultSize,
			colorful.Color{R: 0, G: 0, B: 0},
			colorful.Color{R: 0.7, G: 0.05, B: 0},
			colorful.Color{R: 1, G: 0.6, B: 0},
			colorful.Color{R: 1, G: 1, B: 0.85},
		)
	},
	"ocean": func() Palette {
		return Gradient(DefaultSize,
			colorful.Color{R: 0, G: 0.03, B: 0.1},
			colorful.Color{R: 0, G: 0.47, B: 0.75},
			colorful.Color{R: 0.5, G: 0.9, B: 0.95},
			colorful.Color{R: 1, G: 0.84, B: 0},
		)
	},

	"com.draabek.fractal.palette.CopperPalette": func() Palette { return Copper(DefaultSize) },
}

// Lookup resolves a palette id. The boolean is false for unknown ids.
func Lookup(id string) (Palette, bool) {
	build, ok := builders[id]
	if !ok {
		return nil, false
	}
	return build(), true
}

// Default returns the palette used when a fractal names none.
func Default() Palette { return Copper(DefaultSize) }
