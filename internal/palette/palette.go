// Package palette maps normalized intensity to packed ARGB colors.
//
// Colors are 0xAARRGGBB uint32 values, the same layout the kernels write into
// pixel buffers.
package palette

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Terminal is the color of points that never escape.
const Terminal uint32 = 0xff000000

// DefaultSize is the number of entries in the built-in tables.
const DefaultSize = 256

type Palette interface {
	// ColorAt maps intensity in [0, 1] to a color. Values outside the range
	// are clamped.
	ColorAt(intensity float32) uint32
	// Colors returns the full color table, used for GPU texture upload.
	Colors() []uint32
}

// Table is a palette backed by a fixed lookup table.
type Table []uint32

func (t Table) ColorAt(intensity float32) uint32 {
	if len(t) == 0 {
		return Terminal
	}
	i := int(intensity * float32(len(t)))
	if i < 0 {
		i = 0
	}
	if i >= len(t) {
		i = len(t) - 1
	}
	return t[i]
}

func (t Table) Colors() []uint32 { return t }

// Copper builds the log-ramped copper table. Entry 0 is opaque black.
func Copper(size int) Table {
	t := make(Table, size)
	t[0] = Terminal
	for i := 1; i < size; i++ {
		r := uint32((math.Log(float64(i))/math.Log(float64(size))+math.Exp(-float64(i)))*0xff) & 0xff
		t[i] = r<<16 | (r/2)<<8 | 0xff000000
	}
	return t
}

// Grayscale builds a linear black-to-white table.
func Grayscale(size int) Table {
	t := make(Table, size)
	for i := range t {
		v := uint32(i * 255 / max(size-1, 1))
		t[i] = Pack(uint8(v), uint8(v), uint8(v))
	}
	return t
}

// Gradient blends the given stops in HCL space into a table of size entries.
func Gradient(size int, stops ...colorful.Color) Table {
	t := make(Table, size)
	if len(stops) == 0 {
		for i := range t {
			t[i] = Terminal
		}
		return t
	}
	if len(stops) == 1 {
		r, g, b := stops[0].Clamped().RGB255()
		for i := range t {
			t[i] = Pack(r, g, b)
		}
		return t
	}

	segments := float64(len(stops) - 1)
	for i := range t {
		pos := float64(i) / float64(max(size-1, 1)) * segments
		seg := int(pos)
		if seg >= len(stops)-1 {
			seg = len(stops) - 2
		}
		c := stops[seg].BlendHcl(stops[seg+1], pos-float64(seg)).Clamped()
		r, g, b := c.RGB255()
		t[i] = Pack(r, g, b)
	}
	return t
}

// Pack builds an opaque ARGB color.
func Pack(r, g, b uint8) uint32 {
	return 0xff000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// Unpack splits an ARGB color into its channels.
func Unpack(c uint32) (a, r, g, b uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}
