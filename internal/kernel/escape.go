package kernel

import (
	"fmt"
	"math"

	"github.com/san-kum/fractalzoo/internal/palette"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// escapeRadius2 is the squared escape threshold |z| > 2.
const escapeRadius2 = 4.0

// Formula selects the escape-time recurrence.
type Formula uint8

const (
	Mandelbrot  Formula = iota // z² + c
	BurningShip                // (|Re z| + i|Im z|)² + c
	Tricorn                    // conj(z)² + c
	Multibrot3                 // z³ + c
	Julia                      // z² + k, z₀ = pixel
)

func (f Formula) String() string {
	switch f {
	case Mandelbrot:
		return "mandelbrot"
	case BurningShip:
		return "burning_ship"
	case Tricorn:
		return "tricorn"
	case Multibrot3:
		return "multibrot3"
	case Julia:
		return "julia"
	}
	return fmt.Sprintf("formula(%d)", uint8(f))
}

// EscapeParams carries the fractal-specific inputs of the escape-time kernel.
type EscapeParams struct {
	Formula Formula
	Palette palette.Palette
	// Smooth switches from integer iteration bands to normalized
	// iteration count coloring.
	Smooth bool
	// K is the fixed constant of Julia sets.
	K complex128
}

// iterFunc returns the index of the iteration at which |z| exceeded 2, or
// maxIter when the orbit stayed bounded, plus |z|² at that point.
type iterFunc func(zr, zi, cr, ci float64, maxIter int) (int, float64)

func (f Formula) iterator() iterFunc {
	switch f {
	case BurningShip:
		return iterateBurningShip
	case Tricorn:
		return iterateTricorn
	case Multibrot3:
		return iterateMultibrot3
	default:
		return iterateQuadratic
	}
}

var defaultPalette = palette.Default()

// EscapeTime colors every pixel of a w×h row-major buffer.
func EscapeTime(buf []uint32, w, h int, r viewport.Rect, maxIter int, p EscapeParams) error {
	return EscapeTimeTile(buf, w, h, r, maxIter, p, 0, 0, w, h)
}

// EscapeTimeTile colors only the pixels in [x0,x1)×[y0,y1). The result for a
// pixel does not depend on the tile it was computed in.
func EscapeTimeTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p EscapeParams, x0, y0, x1, y1 int) error {
	if len(buf) < w*h {
		return fmt.Errorf("%w: have %d, need %dx%d", ErrBufferSize, len(buf), w, h)
	}
	x0, y0, x1, y1 = clampTile(w, h, x0, y0, x1, y1)

	pal := p.Palette
	if pal == nil {
		pal = defaultPalette
	}
	iterate := p.Formula.iterator()
	julia := p.Formula == Julia
	kr, ki := real(p.K), imag(p.K)
	invMax := 1 / float64(maxIter)

	for y := y0; y < y1; y++ {
		row := buf[y*w : y*w+w]
		for x := x0; x < x1; x++ {
			pr, pi := PlaneCoord(x, y, w, h, r)

			var n int
			var mag2 float64
			if julia {
				n, mag2 = iterate(pr, pi, kr, ki, maxIter)
			} else {
				n, mag2 = iterate(0, 0, pr, pi, maxIter)
			}

			if n >= maxIter {
				row[x] = palette.Terminal
				continue
			}
			mu := float64(n)
			if p.Smooth {
				mu += 1 - math.Log2(0.5*math.Log(mag2))
			}
			row[x] = pal.ColorAt(float32(mu * invMax))
		}
	}
	return nil
}

func iterateQuadratic(zr, zi, cr, ci float64, maxIter int) (int, float64) {
	for n := 0; n < maxIter; n++ {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		if m := zr*zr + zi*zi; m > escapeRadius2 {
			return n, m
		}
	}
	return maxIter, 0
}

func iterateBurningShip(zr, zi, cr, ci float64, maxIter int) (int, float64) {
	for n := 0; n < maxIter; n++ {
		ar, ai := math.Abs(zr), math.Abs(zi)
		zr, zi = ar*ar-ai*ai+cr, 2*ar*ai+ci
		if m := zr*zr + zi*zi; m > escapeRadius2 {
			return n, m
		}
	}
	return maxIter, 0
}

func iterateTricorn(zr, zi, cr, ci float64, maxIter int) (int, float64) {
	for n := 0; n < maxIter; n++ {
		zr, zi = zr*zr-zi*zi+cr, -2*zr*zi+ci
		if m := zr*zr + zi*zi; m > escapeRadius2 {
			return n, m
		}
	}
	return maxIter, 0
}

func iterateMultibrot3(zr, zi, cr, ci float64, maxIter int) (int, float64) {
	for n := 0; n < maxIter; n++ {
		zr2, zi2 := zr*zr, zi*zi
		zr, zi = zr*(zr2-3*zi2)+cr, zi*(3*zr2-zi2)+ci
		if m := zr*zr + zi*zi; m > escapeRadius2 {
			return n, m
		}
	}
	return maxIter, 0
}
