package gui

import (
	"image"
	"image/color"
	"slices"

	"github.com/san-kum/fractalzoo/internal/render"
)

// toColors converts packed ARGB pixels into the texture upload format.
func toColors(dst []color.RGBA, buf []uint32) {
	for i, c := range buf {
		if i >= len(dst) {
			return
		}
		dst[i] = color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
	}
}

// previewRect is the destination rectangle showing a w×h frame under a
// running gesture, matching render.PreviewTransform.
func previewRect(w, h int, dx, dy, scale float64) (x, y, dw, dh float32) {
	if scale <= 0 {
		scale = 1
	}
	a := render.PreviewTransform(w, h, dx, dy, scale)
	return float32(a[2]), float32(a[5]), float32(float64(w) * a[0]), float32(float64(h) * a[4])
}

// paletteStrip lays colors out as an n×1 image for a sampler uniform.
func paletteStrip(colors []uint32) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(len(colors), 1), 1))
	render.ToRGBA(img, colors)
	return img
}

// flipRows mirrors img vertically in place. GL targets read back bottom up.
func flipRows(img *image.RGBA) {
	b := img.Bounds()
	row := b.Dx() * 4
	tmp := make([]byte, row)
	for top, bottom := b.Min.Y, b.Max.Y-1; top < bottom; top, bottom = top+1, bottom-1 {
		t := img.Pix[img.PixOffset(b.Min.X, top):][:row]
		u := img.Pix[img.PixOffset(b.Min.X, bottom):][:row]
		copy(tmp, t)
		copy(t, u)
		copy(u, tmp)
	}
}

// touchSet tracks which pointers are down between frames.
type touchSet map[int]pointer

type pointer struct{ x, y float64 }

// diff compares the pointers down this frame with the previous set and
// reports what went down, what moved and what was released.
func (prev touchSet) diff(now touchSet) (down, moved, up []int) {
	for id := range now {
		if p, ok := prev[id]; !ok {
			down = append(down, id)
		} else if p != now[id] {
			moved = append(moved, id)
		}
	}
	for id := range prev {
		if _, ok := now[id]; !ok {
			up = append(up, id)
		}
	}
	slices.Sort(down)
	slices.Sort(moved)
	slices.Sort(up)
	return down, moved, up
}
