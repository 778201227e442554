package fractal

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/fractalzoo/internal/integrators"
	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

var testShaders = fstest.MapFS{
	"shaders/default_vertex.glsl":      {Data: []byte("// default vertex\n")},
	"shaders/mandelbrot_fragment.glsl": {Data: []byte("// mandelbrot fragment\n")},
	"shaders/mandelbrot_vertex.glsl":   {Data: []byte("// mandelbrot vertex\n")},
	"shaders/julia_fragment.glsl":      {Data: []byte("// julia fragment\n")},
	"custom/dir/star_fragment.glsl":    {Data: []byte("// star fragment\n")},
}

const testCatalog = `[
  {"path": "Escape time|Mandelbrot family", "name": "Mandelbrot", "class": "mandelbrot",
   "parameters": {"maxIter": 200, "smooth": 1}, "thumbnail": "mandelbrot.png", "palette": "copper"},
  {"path": "Escape time|Mandelbrot family", "name": "Burning Ship", "class": "burning_ship"},
  {"path": "Escape time|Julia", "name": "Julia", "class": "julia",
   "parameters": {"cRe": -0.8, "cIm": 0.156, "maxIter": 300}},
  {"path": "Attractors", "name": "Lorenz", "class": "lorenz",
   "parameters": {"rho": 28, "sigma": 10, "dt": 0.005}},
  {"path": "GPU", "name": "GL Mandelbrot", "class": "com.draabek.fractal.gl.GLSLFractal",
   "shaders": "mandelbrot", "parameters": {"centerX": 0, "centerY": 0, "scale": 1}},
  {"path": "GPU", "name": "GL Julia", "class": "glsl", "shaders": "julia"},
  {"path": "GPU", "name": "Broken", "class": "glsl", "shaders": "nothere"},
  {"path": "Other", "name": "Mystery", "class": "com.example.Nope"}
]`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	raws, err := DecodeCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)
	require.Len(t, raws, 8)

	r := NewRegistry("")
	err = r.Init(raws, testShaders)
	require.Error(t, err)
	return r
}

func TestDecodeCatalogKeepsParameterOrder(t *testing.T) {
	raws, err := DecodeCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)

	lorenz := raws[3]
	require.Len(t, lorenz.Parameters, 3)
	assert.Equal(t, "rho", lorenz.Parameters[0].Name)
	assert.Equal(t, "sigma", lorenz.Parameters[1].Name)
	assert.Equal(t, "dt", lorenz.Parameters[2].Name)
	assert.InDelta(t, 0.005, lorenz.Parameters[2].Value, 1e-9)
}

func TestDecodeCatalogSkipsMalformedEntries(t *testing.T) {
	raws, err := DecodeCatalog(strings.NewReader(`[
  {"name": "Good", "class": "mandelbrot"},
  {"name": "Bad", "class": "mandelbrot", "parameters": {"maxIter": "lots"}}
]`))
	require.NoError(t, err)
	require.Len(t, raws, 1)
	assert.Equal(t, "Good", raws[0].Name)

	_, err = DecodeCatalog(strings.NewReader(`{"name": "x"}`))
	assert.ErrorIs(t, err, ErrNotSequence)
}

func TestInitDropsUnresolvableEntries(t *testing.T) {
	r := loadTestRegistry(t)

	assert.Equal(t, []string{"Mandelbrot", "Burning Ship", "Julia", "Lorenz", "GL Mandelbrot", "GL Julia"}, r.Names())

	_, ok := r.Get("Broken")
	assert.False(t, ok)
	_, ok = r.Get("Mystery")
	assert.False(t, ok)
}

func TestInitReportsEntryErrors(t *testing.T) {
	raws, err := DecodeCatalog(strings.NewReader(testCatalog))
	require.NoError(t, err)

	err = NewRegistry("").Init(raws, testShaders)
	assert.ErrorIs(t, err, ErrMissingShaders)
	assert.ErrorIs(t, err, ErrUnknownVariant)

	var entry *EntryError
	require.True(t, errors.As(err, &entry))
	assert.Equal(t, "Broken", entry.Name)
	assert.Contains(t, err.Error(), `"com.example.Nope", known: burning_ship, glsl, julia`)
}

func TestInitTwiceIsNoop(t *testing.T) {
	r := loadTestRegistry(t)
	before := r.Names()

	err := r.Init([]RawDescriptor{{Name: "Other", Class: "tricorn"}}, nil)
	assert.NoError(t, err)
	assert.Equal(t, before, r.Names())
	_, ok := r.Get("Other")
	assert.False(t, ok)
}

func TestGetMissingIsAbsence(t *testing.T) {
	r := loadTestRegistry(t)
	d, ok := r.Get("Nonexistent")
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestDescriptorFields(t *testing.T) {
	r := loadTestRegistry(t)

	m, ok := r.Get("Mandelbrot")
	require.True(t, ok)
	assert.Equal(t, EscapeTime, m.Kind)
	assert.Equal(t, kernel.Mandelbrot, m.Variant.Formula)
	assert.Equal(t, "thumbs/mandelbrot.png", m.ThumbnailRef)
	assert.Equal(t, []string{"maxIter", "smooth"}, m.Params.Names())
	assert.Equal(t, 200, m.MaxIter(50))
	assert.NotNil(t, m.Palette)
	assert.Equal(t, []string{"Escape time", "Mandelbrot family"}, m.Path)

	ship, _ := r.Get("Burning Ship")
	assert.Nil(t, ship.Palette)
	assert.NotNil(t, ship.PaletteOrDefault())
	assert.Equal(t, 50, ship.MaxIter(50))
}

func TestShaderResolution(t *testing.T) {
	r := loadTestRegistry(t)

	gl, ok := r.Get("GL Mandelbrot")
	require.True(t, ok)
	assert.Equal(t, ShaderBased, gl.Kind)
	require.NotNil(t, gl.Shaders)
	assert.Contains(t, gl.Shaders.Vertex, "mandelbrot vertex")
	assert.Contains(t, gl.Shaders.Fragment, "mandelbrot fragment")

	julia, ok := r.Get("GL Julia")
	require.True(t, ok)
	assert.Contains(t, julia.Shaders.Vertex, "default vertex")

	pair, err := loadShaders(testShaders, "custom/dir/star")
	require.NoError(t, err)
	assert.Contains(t, pair.Fragment, "star fragment")
}

func TestChildren(t *testing.T) {
	r := loadTestRegistry(t)

	top, ok := r.Children(nil)
	require.True(t, ok)
	assert.Equal(t, []string{"Escape time", "Attractors", "GPU"}, top)

	fam, ok := r.Children([]string{"Escape time", "Mandelbrot family"})
	require.True(t, ok)
	assert.Equal(t, []string{"Mandelbrot", "Burning Ship"}, fam)

	_, ok = r.Children([]string{"Escape time", "Nope"})
	assert.False(t, ok)
}

func TestCurrentAndDefault(t *testing.T) {
	r := loadTestRegistry(t)
	assert.Nil(t, r.Current())

	def := r.MustDefault()
	require.NotNil(t, def)
	assert.Equal(t, "Mandelbrot", def.Name)

	julia, _ := r.Get("Julia")
	r.SetCurrent(julia)
	assert.Equal(t, "Julia", r.Current().Name)

	other := NewRegistry("Missing")
	require.Error(t, other.Init([]RawDescriptor{{Name: "Only", Class: "tricorn"}, {Name: "", Class: "julia"}}, nil))
	assert.Equal(t, "Only", other.MustDefault().Name)

	assert.Nil(t, NewRegistry("").MustDefault())
}

func TestFallbackFrom(t *testing.T) {
	r := loadTestRegistry(t)

	fb := r.FallbackFrom("GL Julia")
	require.NotNil(t, fb)
	assert.Equal(t, "Mandelbrot", fb.Name)

	// The default itself failing must not hand back a shader fractal.
	fb = r.FallbackFrom("Mandelbrot")
	require.NotNil(t, fb)
	assert.Equal(t, "Burning Ship", fb.Name)
	assert.NotEqual(t, ShaderBased, fb.Kind)
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitPath("A|B"))
	assert.Equal(t, []string{"A"}, SplitPath("A||"))
	assert.Equal(t, []string{"A"}, SplitPath(RootLabel+"|A"))
	assert.Empty(t, SplitPath(""))
}

func TestParamsConcurrentUpdates(t *testing.T) {
	p := NewParams()
	p.put("centerX", 0)
	p.put("scale", 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				p.Update("centerX", func(v float32) float32 { return v + 1 })
				_, _ = p.Get("scale")
			}
		}()
	}
	wg.Wait()

	v, ok := p.Get("centerX")
	require.True(t, ok)
	assert.Equal(t, float32(8000), v)
}

func TestParamsRejectUnknownKeys(t *testing.T) {
	p := NewParams()
	p.put("a", 1)
	assert.False(t, p.Set("b", 2))
	assert.False(t, p.Update("b", func(v float32) float32 { return v }))
	assert.True(t, p.Set("a", 3))
	assert.Equal(t, map[string]float32{"a": 3}, p.Snapshot())

	var nilParams *Params
	_, ok := nilParams.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, nilParams.Len())
}

func TestTrajectoryParamsApplySystemCoefficients(t *testing.T) {
	r := loadTestRegistry(t)
	lorenz, ok := r.Get("Lorenz")
	require.True(t, ok)

	tp := lorenz.TrajectoryParams()
	require.NotNil(t, tp.System)
	assert.Equal(t, [2]int{0, 2}, tp.Axes)
	assert.InDelta(t, 0.005, tp.Dt, 1e-9)
	assert.Nil(t, tp.Start, "without x0/y0/z0 the system's default start is used")

	julia, _ := r.Get("Julia")
	ep := julia.EscapeParams()
	assert.Equal(t, kernel.Julia, ep.Formula)
	assert.InDelta(t, -0.8, real(ep.K), 1e-6)
}

func TestTrajectoryParamsStartOverride(t *testing.T) {
	v, ok := LookupVariant("rossler")
	require.True(t, ok)
	p := NewParams()
	p.put("y0", 4)
	d := &Descriptor{Name: "Rossler", Kind: Trajectory, Variant: v, Params: p}

	start := d.TrajectoryParams().Start
	require.Len(t, start, 3)
	assert.Equal(t, 1.0, start[0], "unset components keep the default state")
	assert.Equal(t, 4.0, start[1])
	assert.Equal(t, 1.0, start[2])
}

func TestTrajectoryParamsEulerStepper(t *testing.T) {
	v, ok := LookupVariant("lorenz")
	require.True(t, ok)
	p := NewParams()
	p.put("euler", 1)
	d := &Descriptor{Name: "Lorenz (Euler)", Kind: Trajectory, Variant: v, Params: p}
	assert.IsType(t, &integrators.Euler{}, d.TrajectoryParams().Stepper)

	lorenz, _ := loadTestRegistry(t).Get("Lorenz")
	assert.Nil(t, lorenz.TrajectoryParams().Stepper, "RK4 is the kernel default")
}

func TestHomeViewOverride(t *testing.T) {
	r := loadTestRegistry(t)
	override := &viewport.Rect{Left: -1, Top: -1, Right: 1, Bottom: 1}

	m, _ := r.Get("Mandelbrot")
	assert.Equal(t, *override, m.HomeView(override))
	assert.Equal(t, viewport.Canonical(), m.HomeView(nil))

	l, _ := r.Get("Lorenz")
	assert.Equal(t, l.StartView(), l.HomeView(override), "trajectories keep their own view")
}

func TestStartView(t *testing.T) {
	r := loadTestRegistry(t)

	m, _ := r.Get("Mandelbrot")
	assert.Equal(t, viewport.Canonical(), m.StartView())

	l, _ := r.Get("Lorenz")
	assert.Equal(t, 55.0, l.StartView().Top)
	assert.NoError(t, l.StartView().Validate())
}
