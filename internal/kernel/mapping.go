package kernel

import (
	"math"

	"github.com/san-kum/fractalzoo/internal/viewport"
)

// PlaneCoord maps pixel (x, y) of a w×h buffer to plane coordinates by
// linear interpolation across r. Pixel (0, 0) maps exactly to (Left, Top).
func PlaneCoord(x, y, w, h int, r viewport.Rect) (re, im float64) {
	re = r.Left + float64(x)/float64(w)*(r.Right-r.Left)
	im = r.Top + float64(y)/float64(h)*(r.Bottom-r.Top)
	return re, im
}

// PixelOf is the inverse of PlaneCoord. ok is false when the point falls
// outside the buffer.
func PixelOf(re, im float64, w, h int, r viewport.Rect) (x, y int, ok bool) {
	fx := (re - r.Left) / (r.Right - r.Left) * float64(w)
	fy := (im - r.Top) / (r.Bottom - r.Top) * float64(h)
	if !(fx >= 0 && fx < float64(w) && fy >= 0 && fy < float64(h)) {
		return 0, 0, false
	}
	return int(math.Floor(fx)), int(math.Floor(fy)), true
}

// clampTile restricts [x0,x1)×[y0,y1) to the buffer.
func clampTile(w, h, x0, y0, x1, y1 int) (int, int, int, int) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, w), min(y1, h)
	return x0, y0, x1, y1
}
