package render_test

import (
	"context"
	"testing/fstest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/fractalzoo/internal/compute"
	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/palette"
	"github.com/san-kum/fractalzoo/internal/render"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

func testRegistry() *fractal.Registry {
	shaders := fstest.MapFS{
		"shaders/default_vertex.glsl":      {Data: []byte("void main() {}\n")},
		"shaders/mandelbrot_fragment.glsl": {Data: []byte("void main() {}\n")},
	}
	reg := fractal.NewRegistry("")
	err := reg.Init([]fractal.RawDescriptor{
		{Name: "Mandelbrot", Class: "mandelbrot", Parameters: fractal.ParamList{{Name: "maxIter", Value: 40}}},
		{Name: "Lorenz", Class: "lorenz", Parameters: fractal.ParamList{{Name: "maxIter", Value: 3000}}},
		{Name: "GL Mandelbrot", Class: "glsl", Shaders: "mandelbrot", Palette: "grayscale",
			Parameters: fractal.ParamList{{Name: "centerX", Value: -0.5}, {Name: "scale", Value: 2}, {Name: "unused", Value: 7}}},
	}, shaders)
	Expect(err).NotTo(HaveOccurred())
	return reg
}

var _ = Describe("Software", func() {
	var (
		reg *fractal.Registry
		sw  *render.Software
		s   *render.Synchronizer
	)

	BeforeEach(func() {
		reg = testRegistry()
		sw = render.NewSoftware(compute.NewCPUBackend(2, 8), 100)
		s = render.NewSynchronizer(nil)
	})

	It("renders escape-time fractals like the reference kernel", func() {
		d, _ := reg.Get("Mandelbrot")
		r := viewport.Canonical()
		Expect(s.Draw(context.Background(), 30, 20, sw.DrawFunc(d, r))).To(Succeed())

		want := make([]uint32, 30*20)
		Expect(kernel.EscapeTime(want, 30, 20, r, 40, d.EscapeParams())).To(Succeed())
		got, _, _ := s.Snapshot()
		Expect(got).To(Equal(want))
	})

	It("renders a tile on top of the previous frame", func() {
		d, _ := reg.Get("Mandelbrot")
		r := viewport.Canonical()
		Expect(s.Draw(context.Background(), 16, 16, func(buf []uint32, w, h int) error {
			for i := range buf {
				buf[i] = 1
			}
			return nil
		})).To(Succeed())
		Expect(s.Draw(context.Background(), 16, 16, sw.TileFunc(d, r, 0, 0, 8, 8))).To(Succeed())

		got, _, _ := s.Snapshot()
		Expect(got[15*16+15]).To(Equal(uint32(1)))
		Expect(got[0]).NotTo(Equal(uint32(1)))
	})

	It("renders trajectory fractals", func() {
		d, _ := reg.Get("Lorenz")
		r := viewport.Rect{Left: -25, Top: 50, Right: 25, Bottom: 0}
		Expect(s.Draw(context.Background(), 32, 32, sw.DrawFunc(d, r))).To(Succeed())
		got, _, _ := s.Snapshot()
		Expect(got).To(ContainElement(Not(Equal(palette.Terminal))))
	})

	It("refuses shader fractals", func() {
		d, _ := reg.Get("GL Mandelbrot")
		err := s.Draw(context.Background(), 4, 4, sw.DrawFunc(d, viewport.Canonical()))
		Expect(err).To(MatchError(render.ErrNotSoftware))
	})
})

type fakeProgram struct {
	locations map[string]int32
	floats    map[int32]float32
	vec2      map[int32][2]float32
	palette   []uint32
}

func newFakeProgram(uniforms ...string) *fakeProgram {
	p := &fakeProgram{
		locations: make(map[string]int32),
		floats:    make(map[int32]float32),
		vec2:      make(map[int32][2]float32),
	}
	for i, u := range uniforms {
		p.locations[u] = int32(i)
	}
	return p
}

func (p *fakeProgram) UniformLocation(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

func (p *fakeProgram) SetFloat(loc int32, v float32)         { p.floats[loc] = v }
func (p *fakeProgram) SetVec2(loc int32, x, y float32)       { p.vec2[loc] = [2]float32{x, y} }
func (p *fakeProgram) SetPalette(loc int32, colors []uint32) { p.palette = colors }

var _ = Describe("FeedUniforms", func() {
	var d *fractal.Descriptor

	BeforeEach(func() {
		d, _ = testRegistry().Get("GL Mandelbrot")
	})

	It("feeds parameters, a square resolution and the palette", func() {
		p := newFakeProgram("centerX", "scale", "resolution", "palette")
		Expect(render.FeedUniforms(p, d, 800, 600)).To(Succeed())

		Expect(p.floats[p.locations["centerX"]]).To(Equal(float32(-0.5)))
		Expect(p.floats[p.locations["scale"]]).To(Equal(float32(2)))
		Expect(p.vec2[p.locations["resolution"]]).To(Equal([2]float32{600, 600}))
		Expect(p.palette).To(HaveLen(palette.DefaultSize))
	})

	It("skips the palette when the program does not sample one", func() {
		p := newFakeProgram("resolution")
		Expect(render.FeedUniforms(p, d, 10, 10)).To(Succeed())
		Expect(p.palette).To(BeNil())
		Expect(p.floats).To(BeEmpty())
	})

	It("reports a missing resolution uniform", func() {
		p := newFakeProgram("centerX")
		Expect(render.FeedUniforms(p, d, 10, 10)).To(MatchError(render.ErrNoResolution))
	})
})

var _ = Describe("PaletteImage", func() {
	It("lays colors out in one row", func() {
		img := render.PaletteImage(palette.Table{0xffff0000, 0xff00ff00})
		Expect(img.Bounds().Dx()).To(Equal(2))
		Expect(img.Bounds().Dy()).To(Equal(1))
		Expect(img.Pix[4:8]).To(Equal([]uint8{0, 0xff, 0, 0xff}))
	})
})

var _ = Describe("ScrollFunc", func() {
	const w, h = 32, 24
	var (
		reg *fractal.Registry
		sw  *render.Software
		s   *render.Synchronizer
		r   viewport.Rect
	)

	BeforeEach(func() {
		reg = testRegistry()
		sw = render.NewSoftware(compute.NewCPUBackend(2, 8), 100)
		s = render.NewSynchronizer(nil)
		r = viewport.Canonical()
	})

	reference := func(d *fractal.Descriptor, view viewport.Rect) []uint32 {
		buf := make([]uint32, w*h)
		Expect(sw.DrawFunc(d, view)(buf, w, h)).To(Succeed())
		return buf
	}

	It("scrolls the old frame and computes only the exposed strips", func() {
		d, _ := reg.Get("Mandelbrot")
		Expect(s.Draw(context.Background(), w, h, sw.DrawFunc(d, r))).To(Succeed())
		old, _, _ := s.Snapshot()

		next := r.Pan(5, -3, w, h)
		Expect(s.Draw(context.Background(), w, h, sw.ScrollFunc(d, r, next))).To(Succeed())
		got, _, _ := s.Snapshot()
		want := reference(d, next)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if x < 5 || y >= h-3 {
					Expect(got[i]).To(Equal(want[i]), "exposed pixel %d,%d", x, y)
				} else {
					Expect(got[i]).To(Equal(old[(y+3)*w+x-5]), "scrolled pixel %d,%d", x, y)
				}
			}
		}
	})

	It("falls back to a full draw on a zoom", func() {
		d, _ := reg.Get("Mandelbrot")
		Expect(s.Draw(context.Background(), w, h, sw.DrawFunc(d, r))).To(Succeed())
		next := r.Zoom(2)
		Expect(s.Draw(context.Background(), w, h, sw.ScrollFunc(d, r, next))).To(Succeed())
		got, _, _ := s.Snapshot()
		Expect(got).To(Equal(reference(d, next)))
	})

	It("redraws trajectory fractals in full", func() {
		d, _ := reg.Get("Lorenz")
		view := viewport.Rect{Left: -25, Top: 50, Right: 25, Bottom: 0}
		Expect(s.Draw(context.Background(), w, h, sw.DrawFunc(d, view))).To(Succeed())
		next := view.Pan(4, 0, w, h)
		Expect(s.Draw(context.Background(), w, h, sw.ScrollFunc(d, view, next))).To(Succeed())
		got, _, _ := s.Snapshot()
		Expect(got).To(Equal(reference(d, next)))
	})

	DescribeTable("PixelShift",
		func(next viewport.Rect, dx, dy int, ok bool) {
			gx, gy, gok := render.PixelShift(r, next, w, h)
			Expect(gok).To(Equal(ok))
			if ok {
				Expect([2]int{gx, gy}).To(Equal([2]int{dx, dy}))
			}
		},
		Entry("whole pixels", viewport.Canonical().Pan(-7, 2, w, h), -7, 2, true),
		Entry("sub-pixel", viewport.Canonical().Pan(0.5, 0, w, h), 0, 0, false),
		Entry("no move", viewport.Canonical(), 0, 0, false),
		Entry("a full frame", viewport.Canonical().Pan(w, 0, w, h), 0, 0, false),
		Entry("zoom", viewport.Canonical().Zoom(1.5), 0, 0, false),
	)
})
