package render

import (
	"math"

	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// shiftTolerance is how far from a whole pixel a pan may land and still be
// scrolled.
const shiftTolerance = 1e-6

// ScrollFunc renders d over next into a buffer that still holds the frame
// drawn for prev. When next is prev moved by whole pixels, the old pixels are
// scrolled into place and only the exposed strips are computed. Anything
// else, including trajectory fractals whose shading depends on the whole
// frame, gets a full draw.
func (s *Software) ScrollFunc(d *fractal.Descriptor, prev, next viewport.Rect) DrawFunc {
	return func(buf []uint32, w, h int) error {
		dx, dy, ok := PixelShift(prev, next, w, h)
		if !ok || d == nil || d.Kind != fractal.EscapeTime {
			return s.draw(d, next, buf, w, h, 0, 0, w, h)
		}
		scroll(buf, w, h, dx, dy)
		for _, t := range exposed(w, h, dx, dy) {
			if err := s.TileFunc(d, next, t[0], t[1], t[2], t[3])(buf, w, h); err != nil {
				return err
			}
		}
		return nil
	}
}

// PixelShift returns the whole-pixel drag that turns prev into next on a
// w×h surface, the inverse of Rect.Pan. ok is false for zooms, sub-pixel
// moves, moves of a full frame or more, and no move at all.
func PixelShift(prev, next viewport.Rect, w, h int) (dx, dy int, ok bool) {
	if w <= 0 || h <= 0 || !same(prev.Width(), next.Width()) || !same(prev.Height(), next.Height()) {
		return 0, 0, false
	}
	fx := (prev.Left - next.Left) / prev.Width() * float64(w)
	fy := (prev.Top - next.Top) / prev.Height() * float64(h)
	rx, ry := math.Round(fx), math.Round(fy)
	if math.Abs(fx-rx) > shiftTolerance || math.Abs(fy-ry) > shiftTolerance {
		return 0, 0, false
	}
	dx, dy = int(rx), int(ry)
	if dx == 0 && dy == 0 || abs(dx) >= w || abs(dy) >= h {
		return 0, 0, false
	}
	return dx, dy, true
}

func same(a, b float64) bool {
	return math.Abs(a-b) <= 1e-12*math.Max(math.Abs(a), math.Abs(b))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// scroll moves buf by (dx, dy) pixels in place. Exposed pixels keep stale
// values.
func scroll(buf []uint32, w, h, dx, dy int) {
	x0, x1 := max(dx, 0), min(w+dx, w)
	row := func(y int) {
		src := (y-dy)*w + x0 - dx
		copy(buf[y*w+x0:y*w+x1], buf[src:src+x1-x0])
	}
	// Walk away from the rows being read so none is overwritten early.
	if dy > 0 {
		for y := h - 1; y >= dy; y-- {
			row(y)
		}
		return
	}
	for y := 0; y < h+dy; y++ {
		row(y)
	}
}

// exposed lists the tiles uncovered by a scroll of (dx, dy).
func exposed(w, h, dx, dy int) [][4]int {
	var tiles [][4]int
	switch {
	case dx > 0:
		tiles = append(tiles, [4]int{0, 0, dx, h})
	case dx < 0:
		tiles = append(tiles, [4]int{w + dx, 0, w, h})
	}
	switch {
	case dy > 0:
		tiles = append(tiles, [4]int{0, 0, w, dy})
	case dy < 0:
		tiles = append(tiles, [4]int{0, h + dy, w, h})
	}
	return tiles
}
