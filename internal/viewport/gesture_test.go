package viewport_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fractalzoo/internal/viewport"
)

type recordingApplier struct {
	begins, ends, cancels int
	dx, dy                float64
	ratios                []float64
}

func (r *recordingApplier) Begin()                   { r.begins++ }
func (r *recordingApplier) Translate(dx, dy float64) { r.dx, r.dy = dx, dy }
func (r *recordingApplier) Scale(ratio float64)      { r.ratios = append(r.ratios, ratio) }
func (r *recordingApplier) End()                     { r.ends++ }
func (r *recordingApplier) Cancel()                  { r.cancels++ }

type floatParams map[string]float32

func (p floatParams) Update(name string, fn func(float32) float32) bool {
	v, ok := p[name]
	if !ok {
		return false
	}
	p[name] = fn(v)
	return true
}

var _ = Describe("Engine", func() {
	var (
		rec    *recordingApplier
		engine *viewport.Engine
		taps   [][2]float64
	)

	BeforeEach(func() {
		rec = &recordingApplier{}
		engine = viewport.NewEngine(rec)
		taps = nil
		engine.OnTap(func(x, y float64) { taps = append(taps, [2]float64{x, y}) })
	})

	It("starts idle", func() {
		Expect(engine.State()).To(Equal(viewport.Idle))
	})

	It("tracks a single pointer and reports offsets from the origin", func() {
		engine.PointerDown(1, 10, 10)
		Expect(engine.State()).To(Equal(viewport.Tracking))
		Expect(rec.begins).To(Equal(1))

		engine.PointerMove(viewport.Point{ID: 1, X: 15, Y: 8})
		engine.PointerMove(viewport.Point{ID: 1, X: 30, Y: 4})
		Expect(rec.dx).To(Equal(20.0))
		Expect(rec.dy).To(Equal(-6.0))

		engine.PointerUp(1, 30, 4)
		Expect(engine.State()).To(Equal(viewport.Idle))
		Expect(rec.ends).To(Equal(1))
		Expect(taps).To(BeEmpty())
	})

	It("classifies a release without movement as a tap", func() {
		engine.PointerDown(1, 42, 7)
		engine.PointerUp(1, 42, 7)

		Expect(taps).To(Equal([][2]float64{{42, 7}}))
		Expect(rec.cancels).To(Equal(1))
		Expect(rec.ends).To(BeZero())
		Expect(engine.State()).To(Equal(viewport.Idle))
	})

	It("tolerates drift within the tap slop", func() {
		engine.TapSlop = 3
		engine.PointerDown(1, 0, 0)
		engine.PointerMove(viewport.Point{ID: 1, X: 1, Y: 1})
		engine.PointerUp(1, 1, 1)
		Expect(taps).To(HaveLen(1))
	})

	It("switches to pinching on a second pointer and reports distance ratios", func() {
		engine.PointerDown(1, 0, 0)
		engine.PointerDown(2, 100, 0)
		Expect(engine.State()).To(Equal(viewport.Pinching))
		Expect(rec.begins).To(Equal(2))

		engine.PointerMove(viewport.Point{ID: 2, X: 200, Y: 0})
		engine.PointerMove(viewport.Point{ID: 2, X: 100, Y: 0})
		Expect(rec.ratios).To(HaveLen(2))
		Expect(rec.ratios[0]).To(BeNumerically("~", 2.0, 1e-12))
		Expect(rec.ratios[1]).To(BeNumerically("~", 0.5, 1e-12))

		engine.PointerUp(2, 100, 0)
		Expect(engine.State()).To(Equal(viewport.Pinching))
		engine.PointerUp(1, 0, 0)
		Expect(engine.State()).To(Equal(viewport.Idle))
		Expect(rec.ends).To(Equal(1))
		Expect(taps).To(BeEmpty())
	})

	It("skips pinch samples with a zero baseline", func() {
		engine.PointerDown(1, 50, 50)
		engine.PointerDown(2, 50, 50)

		engine.PointerMove(viewport.Point{ID: 2, X: 60, Y: 50})
		Expect(rec.ratios).To(BeEmpty())

		engine.PointerMove(viewport.Point{ID: 2, X: 70, Y: 50})
		Expect(rec.ratios).To(HaveLen(1))
		Expect(rec.ratios[0]).To(BeNumerically("~", 2.0, 1e-12))
	})

	It("ignores moves of unknown pointers", func() {
		engine.PointerDown(1, 0, 0)
		engine.PointerMove(viewport.Point{ID: 9, X: 100, Y: 100})
		Expect(rec.dx).To(BeZero())
		Expect(rec.dy).To(BeZero())
	})

	It("turns a wheel notch into a complete pinch", func() {
		engine.Wheel(2)
		Expect(rec.begins).To(Equal(1))
		Expect(rec.ends).To(Equal(1))
		Expect(rec.ratios).To(HaveLen(1))
		Expect(rec.ratios[0]).To(BeNumerically("~", 1.21, 1e-12))
		Expect(engine.State()).To(Equal(viewport.Idle))
	})

	It("ignores the wheel while a pointer is down", func() {
		engine.PointerDown(1, 0, 0)
		engine.Wheel(1)
		Expect(rec.ratios).To(BeEmpty())
	})

	It("cancels a running gesture when the applier changes", func() {
		engine.PointerDown(1, 0, 0)
		other := &recordingApplier{}
		engine.SetApplier(other)
		Expect(rec.cancels).To(Equal(1))
		Expect(engine.State()).To(Equal(viewport.Idle))
	})

	It("treats EndGesture while idle as a no-op", func() {
		engine.EndGesture()
		Expect(rec.ends).To(BeZero())
	})
})

var _ = Describe("PlaneApplier", func() {
	var (
		plane    *viewport.PlaneApplier
		engine   *viewport.Engine
		redraws  []viewport.Rect
		previews [][3]float64
	)

	BeforeEach(func() {
		plane = viewport.NewPlaneApplier(400, 300)
		redraws, previews = nil, nil
		plane.Redraw = func(r viewport.Rect) { redraws = append(redraws, r) }
		plane.Preview = func(dx, dy, s float64) { previews = append(previews, [3]float64{dx, dy, s}) }
		engine = viewport.NewEngine(plane)
	})

	drag := func(dx, dy float64) {
		engine.PointerDown(1, 200, 150)
		engine.PointerMove(viewport.Point{ID: 1, X: 200 + dx, Y: 150 + dy})
		engine.PointerUp(1, 200+dx, 150+dy)
	}

	It("starts from the canonical rectangle", func() {
		Expect(plane.Rect()).To(Equal(viewport.Canonical()))
	})

	It("only previews while dragging and commits at the end", func() {
		engine.PointerDown(1, 200, 150)
		engine.PointerMove(viewport.Point{ID: 1, X: 240, Y: 150})
		Expect(plane.Rect()).To(Equal(viewport.Canonical()))
		Expect(previews).To(ContainElement([3]float64{40, 0, 1}))

		engine.PointerUp(1, 240, 150)
		Expect(redraws).To(HaveLen(1))

		c := viewport.Canonical()
		shift := 40.0 / 400 * c.Width()
		Expect(plane.Rect().Left).To(BeNumerically("~", c.Left-shift, 1e-12))
		Expect(plane.Rect().Right).To(BeNumerically("~", c.Right-shift, 1e-12))
		Expect(plane.Rect().Top).To(Equal(c.Top))
	})

	It("restores the viewport after a pan and its inverse", func() {
		start := plane.Rect()
		drag(37, -12)
		drag(-37, 12)

		end := plane.Rect()
		Expect(end.Left).To(BeNumerically("~", start.Left, 1e-12))
		Expect(end.Top).To(BeNumerically("~", start.Top, 1e-12))
		Expect(end.Right).To(BeNumerically("~", start.Right, 1e-12))
		Expect(end.Bottom).To(BeNumerically("~", start.Bottom, 1e-12))
	})

	It("zooms about the center on a pinch", func() {
		start := plane.Rect()
		engine.PointerDown(1, 100, 150)
		engine.PointerDown(2, 300, 150)
		engine.PointerMove(viewport.Point{ID: 1, X: 0, Y: 150}, viewport.Point{ID: 2, X: 400, Y: 150})
		engine.PointerUp(1, 0, 150)
		engine.PointerUp(2, 400, 150)

		r := plane.Rect()
		Expect(r.Width()).To(BeNumerically("~", start.Width()/2, 1e-12))
		Expect(r.Height()).To(BeNumerically("~", start.Height()/2, 1e-12))
		cx, cy := r.Center()
		sx, sy := start.Center()
		Expect(cx).To(BeNumerically("~", sx, 1e-12))
		Expect(cy).To(BeNumerically("~", sy, 1e-12))
	})

	It("drops the drag when a second pointer starts a pinch", func() {
		start := plane.Rect()
		engine.PointerDown(1, 150, 150)
		engine.PointerMove(viewport.Point{ID: 1, X: 200, Y: 150})
		engine.PointerDown(2, 300, 150)
		Expect(previews[len(previews)-1]).To(Equal([3]float64{0, 0, 1}))

		engine.PointerMove(viewport.Point{ID: 1, X: 100, Y: 150}, viewport.Point{ID: 2, X: 300, Y: 150})
		Expect(previews[len(previews)-1]).To(Equal([3]float64{0, 0, 2}))
		engine.PointerUp(1, 100, 150)
		engine.PointerUp(2, 300, 150)

		want := start.Zoom(2)
		r := plane.Rect()
		Expect(r.Left).To(BeNumerically("~", want.Left, 1e-12))
		Expect(r.Right).To(BeNumerically("~", want.Right, 1e-12))
		Expect(r.Top).To(BeNumerically("~", want.Top, 1e-12))
		Expect(r.Bottom).To(BeNumerically("~", want.Bottom, 1e-12))
		Expect(redraws).To(HaveLen(1))
	})

	It("leaves the viewport alone on a tap", func() {
		engine.PointerDown(1, 10, 10)
		engine.PointerUp(1, 10, 10)
		Expect(plane.Rect()).To(Equal(viewport.Canonical()))
		Expect(redraws).To(BeEmpty())
		_, _, _, active := plane.Pending()
		Expect(active).To(BeFalse())
	})

	It("resets to the canonical rectangle on a size change", func() {
		drag(50, 50)
		plane.Resize(400, 300)
		Expect(plane.Rect()).NotTo(Equal(viewport.Canonical()))
		plane.Resize(800, 600)
		Expect(plane.Rect()).To(Equal(viewport.Canonical()))
	})

	It("rejects degenerate rectangles", func() {
		err := plane.SetRect(viewport.Rect{Left: 1, Right: 1, Top: 0, Bottom: 1})
		Expect(err).To(MatchError(viewport.ErrDegenerate))
	})
})

var _ = Describe("ParamApplier", func() {
	var (
		params  floatParams
		engine  *viewport.Engine
		redraws int
	)

	BeforeEach(func() {
		params = floatParams{"centerX": 0, "centerY": 0, "scale": 1}
		pa := viewport.NewParamApplier(params, 300, 600)
		redraws = 0
		pa.Redraw = func() { redraws++ }
		engine = viewport.NewEngine(pa)
	})

	It("moves the center with an inverted vertical axis", func() {
		engine.PointerDown(1, 0, 0)
		engine.PointerMove(viewport.Point{ID: 1, X: 100, Y: 50})
		engine.PointerMove(viewport.Point{ID: 1, X: 200, Y: 100})

		k := 1.5 / 300.0
		Expect(float64(params["centerX"])).To(BeNumerically("~", 200*k, 1e-5))
		Expect(float64(params["centerY"])).To(BeNumerically("~", -100*k, 1e-5))
		Expect(redraws).To(Equal(2))
	})

	It("multiplies scale by the pinch ratio", func() {
		engine.PointerDown(1, 0, 0)
		engine.PointerDown(2, 10, 0)
		engine.PointerMove(viewport.Point{ID: 2, X: 30, Y: 0})
		Expect(float64(params["scale"])).To(BeNumerically("~", 3, 1e-5))
	})

	It("ignores axes the fractal does not have", func() {
		delete(params, "scale")
		delete(params, "centerY")
		engine.Wheel(3)
		_, has := params["scale"]
		Expect(has).To(BeFalse())

		engine.PointerDown(1, 0, 0)
		engine.PointerMove(viewport.Point{ID: 1, X: 0, Y: 80})
		Expect(params["centerX"]).To(BeZero())
		_, has = params["centerY"]
		Expect(has).To(BeFalse())
	})

	It("keeps scale finite", func() {
		engine.Wheel(math.Inf(1))
		Expect(float64(params["scale"])).To(Equal(1.0))
	})
})

var _ = Describe("PlaneApplier home", func() {
	It("returns to the home rectangle on resize and Home", func() {
		plane := viewport.NewPlaneApplier(100, 100)
		home := viewport.Rect{Left: -30, Top: 55, Right: 30, Bottom: -5}
		Expect(plane.SetHome(home)).To(Succeed())
		Expect(plane.Rect()).To(Equal(home))

		Expect(plane.SetRect(viewport.Canonical())).To(Succeed())
		plane.Home()
		Expect(plane.Rect()).To(Equal(home))

		Expect(plane.SetRect(viewport.Canonical())).To(Succeed())
		plane.Resize(50, 50)
		Expect(plane.Rect()).To(Equal(home))
		w, h := plane.Size()
		Expect([]int{w, h}).To(Equal([]int{50, 50}))
	})
})
