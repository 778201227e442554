package viewport

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/fractalzoo/internal/logging"
)

// State is the phase of the gesture state machine.
type State uint8

const (
	Idle State = iota
	Tracking
	Pinching
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Tracking:
		return "tracking"
	case Pinching:
		return "pinching"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// WheelStep is the zoom ratio of one wheel notch.
const WheelStep = 1.1

// Point is the screen position of one pointer.
type Point struct {
	ID   int
	X, Y float64
}

// TapFunc receives taps, pointer releases with no movement in between.
type TapFunc func(x, y float64)

// Applier turns gesture deltas into view changes. The software renderer
// shifts a plane rectangle, the shader renderer edits parameters.
type Applier interface {
	// Begin starts a gesture and snapshots the current view.
	Begin()
	// Translate reports the pointer offset from the gesture origin.
	Translate(dx, dy float64)
	// Scale reports an incremental pinch ratio, >1 zooms in.
	Scale(ratio float64)
	// End commits the gesture and requests a full redraw.
	End()
	// Cancel drops the gesture without changing the view.
	Cancel()
}

// Engine is the pointer state machine shared by every renderer.
type Engine struct {
	mu      sync.Mutex
	applier Applier
	onTap   TapFunc

	// TapSlop is the distance in pixels a pointer may drift and still tap.
	TapSlop float64

	state    State
	pointers map[int]Point
	pinch    [2]int
	origin   Point
	moved    bool
	prevDist float64
}

func NewEngine(a Applier) *Engine {
	return &Engine{applier: a, pointers: make(map[int]Point)}
}

// SetApplier switches the renderer receiving updates. A running gesture is
// cancelled first.
func (e *Engine) SetApplier(a Applier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle && e.applier != nil {
		e.applier.Cancel()
	}
	e.reset()
	e.applier = a
}

func (e *Engine) OnTap(fn TapFunc) {
	e.mu.Lock()
	e.onTap = fn
	e.mu.Unlock()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) reset() {
	e.state = Idle
	clear(e.pointers)
	e.moved = false
	e.prevDist = 0
}

func (e *Engine) PointerDown(id int, x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.applier == nil {
		return
	}
	p := Point{ID: id, X: x, Y: y}
	e.pointers[id] = p

	switch e.state {
	case Idle:
		e.state = Tracking
		e.origin = p
		e.moved = false
		e.applier.Begin()
	case Tracking:
		e.state = Pinching
		e.moved = true
		e.pinch = [2]int{e.origin.ID, id}
		e.prevDist = e.distance()
		// The drag so far is dropped; the pinch starts from a fresh snapshot.
		e.applier.Begin()
		logging.Logger().Debug("pinch started", "baseline", e.prevDist)
	}
}

// PointerMove reports new positions for any subset of the active pointers.
func (e *Engine) PointerMove(points ...Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, p := range points {
		if _, ok := e.pointers[p.ID]; ok {
			e.pointers[p.ID] = p
		}
	}

	switch e.state {
	case Tracking:
		cur, ok := e.pointers[e.origin.ID]
		if !ok {
			return
		}
		dx, dy := cur.X-e.origin.X, cur.Y-e.origin.Y
		if math.Hypot(dx, dy) > e.TapSlop {
			e.moved = true
		}
		e.applier.Translate(dx, dy)
	case Pinching:
		d := e.distance()
		if e.prevDist == 0 || d == 0 {
			// Not measurable yet; use this sample as the baseline.
			e.prevDist = d
			return
		}
		e.applier.Scale(d / e.prevDist)
		e.prevDist = d
	}
}

func (e *Engine) PointerUp(id int, x, y float64) {
	e.mu.Lock()
	if _, ok := e.pointers[id]; !ok {
		e.mu.Unlock()
		return
	}
	delete(e.pointers, id)

	if e.state == Tracking && !e.moved {
		e.applier.Cancel()
		e.reset()
		tap := e.onTap
		e.mu.Unlock()
		logging.Logger().Debug("tap", "x", x, "y", y)
		if tap != nil {
			tap(x, y)
		}
		return
	}
	done := len(e.pointers) == 0
	e.mu.Unlock()

	if done {
		e.EndGesture()
	}
}

// EndGesture commits the running gesture. It is a no-op when idle.
func (e *Engine) EndGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Idle {
		return
	}
	e.reset()
	e.applier.End()
}

// Wheel performs a complete synthetic pinch of WheelStep^steps, for input
// devices without multi-touch. It is ignored during a pointer gesture.
func (e *Engine) Wheel(steps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Idle || e.applier == nil || steps == 0 {
		return
	}
	e.applier.Begin()
	e.applier.Scale(math.Pow(WheelStep, steps))
	e.applier.End()
}

// distance between the two pinch pointers, 0 if either is gone.
func (e *Engine) distance() float64 {
	a, okA := e.pointers[e.pinch[0]]
	b, okB := e.pointers[e.pinch[1]]
	if !okA || !okB {
		return 0
	}
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
