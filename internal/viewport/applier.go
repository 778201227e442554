package viewport

import (
	"sync"

	"github.com/chewxy/math32"

	"github.com/san-kum/fractalzoo/internal/logging"
)

// PlaneApplier drives the software renderer. During a gesture it only
// reports a preview transform; the plane rectangle is recomputed at End.
type PlaneApplier struct {
	mu   sync.Mutex
	home Rect
	rect Rect
	old  *Rect
	w, h int

	dx, dy, scale float64

	// Preview shows the gesture as a transform of the last image.
	Preview func(dx, dy, scale float64)
	// Redraw requests a full render of the committed rectangle.
	Redraw func(r Rect)
}

func NewPlaneApplier(w, h int) *PlaneApplier {
	return &PlaneApplier{home: Canonical(), rect: Canonical(), w: w, h: h, scale: 1}
}

// SetHome sets the starting rectangle and jumps to it.
func (a *PlaneApplier) SetHome(r Rect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.home, a.rect, a.old = r, r, nil
	a.mu.Unlock()
	return nil
}

// Home returns to the starting rectangle.
func (a *PlaneApplier) Home() {
	a.mu.Lock()
	a.rect, a.old = a.home, nil
	a.mu.Unlock()
}

func (a *PlaneApplier) Rect() Rect {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rect
}

// SetRect replaces the committed rectangle. Degenerate rectangles are
// rejected.
func (a *PlaneApplier) SetRect(r Rect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	a.mu.Lock()
	a.rect = r
	a.mu.Unlock()
	return nil
}

// Resize records a new surface size. A changed size starts over from the
// home rectangle.
func (a *PlaneApplier) Resize(w, h int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if w == a.w && h == a.h {
		return
	}
	a.w, a.h = w, h
	a.rect = a.home
	a.old = nil
}

func (a *PlaneApplier) Size() (w, h int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w, a.h
}

// Pending returns the preview transform of the running gesture.
func (a *PlaneApplier) Pending() (dx, dy, scale float64, active bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dx, a.dy, a.scale, a.old != nil
}

// Begin snapshots the rectangle. Called again mid-gesture it discards the
// pending offset and scale.
func (a *PlaneApplier) Begin() {
	a.mu.Lock()
	restart := a.old != nil
	old := a.rect
	a.old = &old
	a.dx, a.dy, a.scale = 0, 0, 1
	a.mu.Unlock()
	if restart && a.Preview != nil {
		a.Preview(0, 0, 1)
	}
}

func (a *PlaneApplier) Translate(dx, dy float64) {
	a.mu.Lock()
	a.dx, a.dy = dx, dy
	scale := a.scale
	a.mu.Unlock()
	if a.Preview != nil {
		a.Preview(dx, dy, scale)
	}
}

func (a *PlaneApplier) Scale(ratio float64) {
	if ratio <= 0 {
		return
	}
	a.mu.Lock()
	a.scale *= ratio
	dx, dy, scale := a.dx, a.dy, a.scale
	a.mu.Unlock()
	if a.Preview != nil {
		a.Preview(dx, dy, scale)
	}
}

func (a *PlaneApplier) End() {
	a.mu.Lock()
	if a.old == nil {
		a.mu.Unlock()
		return
	}
	next := a.old.Pan(a.dx, a.dy, a.w, a.h).Zoom(a.scale)
	if next.Validate() == nil {
		a.rect = next
	} else {
		logging.Logger().Warn("gesture produced degenerate viewport", "rect", next)
	}
	a.old = nil
	a.dx, a.dy, a.scale = 0, 0, 1
	r := a.rect
	a.mu.Unlock()

	if a.Redraw != nil {
		a.Redraw(r)
	}
}

func (a *PlaneApplier) Cancel() {
	a.mu.Lock()
	active := a.old != nil
	a.old = nil
	a.dx, a.dy, a.scale = 0, 0, 1
	a.mu.Unlock()
	if active && a.Preview != nil {
		a.Preview(0, 0, 1)
	}
}

// ParamSetter is the parameter store of a shader fractal.
type ParamSetter interface {
	Update(name string, fn func(float32) float32) bool
}

// ParamApplier drives shader fractals by editing their centerX, centerY and
// scale parameters on every sample. The shader plane grows upward, so the
// vertical shift is inverted. Missing parameters disable their axis.
type ParamApplier struct {
	mu     sync.Mutex
	params ParamSetter
	w, h   int
	lastDX float64
	lastDY float64

	// Redraw requests a frame with the new parameter values.
	Redraw func()
}

func NewParamApplier(p ParamSetter, w, h int) *ParamApplier {
	return &ParamApplier{params: p, w: w, h: h}
}

func (a *ParamApplier) Resize(w, h int) {
	a.mu.Lock()
	a.w, a.h = w, h
	a.mu.Unlock()
}

// touchScale converts screen pixels to shader plane units.
func (a *ParamApplier) touchScale() float32 {
	return 1.5 / math32.Max(float32(min(a.w, a.h)), 1)
}

func (a *ParamApplier) Begin() {
	a.mu.Lock()
	a.lastDX, a.lastDY = 0, 0
	a.mu.Unlock()
}

func (a *ParamApplier) Translate(dx, dy float64) {
	a.mu.Lock()
	k := a.touchScale()
	sx := float32(dx-a.lastDX) * k
	sy := float32(dy-a.lastDY) * k
	a.lastDX, a.lastDY = dx, dy
	a.mu.Unlock()

	movedX := a.params.Update("centerX", func(v float32) float32 { return v + sx })
	movedY := a.params.Update("centerY", func(v float32) float32 { return v - sy })
	if !movedX && !movedY {
		logging.Logger().Debug("fractal has no movable center")
		return
	}
	a.redraw()
}

func (a *ParamApplier) Scale(ratio float64) {
	r := float32(ratio)
	ok := a.params.Update("scale", func(v float32) float32 {
		next := v * r
		if math32.IsNaN(next) || math32.IsInf(next, 0) || next == 0 {
			return v
		}
		return next
	})
	if !ok {
		logging.Logger().Debug("fractal is not scalable")
		return
	}
	a.redraw()
}

func (a *ParamApplier) End() { a.redraw() }

// Cancel keeps the parameters; shader gestures apply as they go.
func (a *ParamApplier) Cancel() {}

func (a *ParamApplier) redraw() {
	if a.Redraw != nil {
		a.Redraw()
	}
}
