package gui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fractalzoo/internal/compute"
	"github.com/san-kum/fractalzoo/internal/config"
	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/logging"
	"github.com/san-kum/fractalzoo/internal/metrics"
	"github.com/san-kum/fractalzoo/internal/render"
	"github.com/san-kum/fractalzoo/internal/storage"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

var (
	ColBg      = rl.NewColor(10, 10, 10, 255)
	ColAccent  = rl.NewColor(180, 180, 180, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 140, 140, 255)
	ColTextDim = rl.NewColor(60, 60, 60, 255)
	ColPanel   = rl.NewColor(0, 0, 0, 160)
)

// Options configures the window explorer.
type Options struct {
	Registry *fractal.Registry
	Backend  compute.Backend
	MaxIter  int
	Width    int
	Height   int
	Store    *storage.Store
	Format   string
	// Budget is the per-frame render budget shown in the HUD.
	Budget time.Duration
	// Start opens this fractal directly instead of the catalog.
	Start string
	// StartView overrides the home view of escape-time fractals.
	StartView *viewport.Rect
}

type App struct {
	reg    *fractal.Registry
	sw     *render.Software
	sync   *render.Synchronizer
	timer  *metrics.RenderTimer
	budget *metrics.FrameBudget
	store  *storage.Store
	format string

	startView *viewport.Rect

	engine *viewport.Engine
	plane  *viewport.PlaneApplier
	params *viewport.ParamApplier

	current *fractal.Descriptor
	initial map[string]float32
	gl      *glRenderer
	w, h    int

	// software path
	tex    rl.Texture2D
	pixels []color.RGBA
	done   chan error
	dirty  bool

	inMenu   bool
	path     []string
	items    []string
	selected int
	paramSel int
	preset   int
	touches  touchSet
	status   string
}

func initWindow(w, h int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.InitWindow(int32(w), int32(h), "fractalzoo")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// Run opens the window and blocks until it is closed.
func Run(opts Options) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = config.DefaultWidth, config.DefaultHeight
	}
	initWindow(opts.Width, opts.Height)
	defer rl.CloseWindow()
	app := NewApp(opts)
	defer app.Close()
	app.RunLoop()
}

// NewApp builds the explorer. The window must already be open.
func NewApp(opts Options) *App {
	timer := metrics.NewRenderTimer(metrics.DefaultHistory)
	if opts.Budget <= 0 {
		opts.Budget = config.DefaultBudgetMs * time.Millisecond
	}
	budget := metrics.NewFrameBudget(opts.Budget)
	a := &App{
		reg:     opts.Registry,
		sw:      render.NewSoftware(opts.Backend, opts.MaxIter),
		sync:    render.NewSynchronizer(render.Listeners{timer, budget}),
		timer:   timer,
		budget:  budget,
		store:   opts.Store,
		format:  opts.Format,
		done:    make(chan error, 1),
		inMenu:  true,
		preset:  -1,
		touches: touchSet{},

		startView: opts.StartView,
	}
	if a.format == "" {
		a.format = "png"
	}
	a.w, a.h = rl.GetScreenWidth(), rl.GetScreenHeight()
	a.plane = viewport.NewPlaneApplier(a.w, a.h)
	a.plane.Redraw = func(viewport.Rect) { a.dirty = true }
	a.engine = viewport.NewEngine(a.plane)
	a.engine.TapSlop = 4
	a.engine.OnTap(a.tap)
	a.list()

	if opts.Start != "" {
		if d, ok := a.reg.Get(opts.Start); ok {
			a.open(d)
		} else {
			logging.Logger().Warn("unknown start fractal", "name", opts.Start)
		}
	}
	return a
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if a.Update() {
			return
		}
		a.Draw()
	}
}

// Close frees GPU resources. A draw still running only touches CPU
// buffers and is abandoned.
func (a *App) Close() {
	a.dropGL()
	if a.tex.ID != 0 {
		rl.UnloadTexture(a.tex)
	}
}

// Update handles one frame of input. It reports whether to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return true
	}
	if rl.IsWindowResized() {
		a.resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	}
	a.collect()

	if a.inMenu {
		a.menuKeys()
		return false
	}
	a.exploreKeys()
	a.pointers()
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.engine.Wheel(float64(wheel))
	}
	a.schedule()
	return false
}

func (a *App) resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.w, a.h = w, h
	a.plane.Resize(w, h)
	if a.params != nil {
		a.params.Resize(w, h)
	}
	if a.gl != nil {
		a.gl.resize(w, h)
	}
	a.dirty = true
}

// list loads the catalog entries at the current path.
func (a *App) list() {
	items, ok := a.reg.Children(a.path)
	if !ok {
		a.path = nil
		items, _ = a.reg.Children(nil)
	}
	a.items = items
	a.selected = min(a.selected, max(len(items)-1, 0))
}

func (a *App) isLeaf(label string) bool {
	kids, ok := a.reg.Children(append(a.path[:len(a.path):len(a.path)], label))
	return ok && len(kids) == 0
}

func (a *App) menuKeys() {
	if len(a.items) == 0 {
		return
	}
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.selected = (a.selected + 1) % len(a.items)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.selected = (a.selected - 1 + len(a.items)) % len(a.items)
	}
	if (rl.IsKeyPressed(rl.KeyBackspace) || rl.IsKeyPressed(rl.KeyEscape)) && len(a.path) > 0 {
		a.path = a.path[:len(a.path)-1]
		a.selected = 0
		a.list()
		return
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		label := a.items[a.selected]
		if !a.isLeaf(label) {
			a.path = append(a.path, label)
			a.selected = 0
			a.list()
			return
		}
		if d, ok := a.reg.Get(label); ok {
			a.open(d)
		}
	}
}

// open switches to d. Shader fractals that cannot be linked are replaced
// by the registry fallback.
func (a *App) open(d *fractal.Descriptor) {
	a.engine.EndGesture()
	a.dropGL()
	a.params = nil
	status := d.Name

	if d.Kind == fractal.ShaderBased {
		gl, err := newGLRenderer(d, a.w, a.h, render.Listeners{a.timer, a.budget})
		if err != nil {
			logging.Logger().Error("shader fractal unusable", "name", d.Name, "err", err)
			fb := a.reg.FallbackFrom(d.Name)
			if fb == nil || fb.Kind == fractal.ShaderBased {
				a.status = "no fallback for " + d.Name
				a.inMenu = true
				return
			}
			status = fmt.Sprintf("%s failed, showing %s", d.Name, fb.Name)
			d = fb
		} else {
			a.gl = gl
		}
	}

	a.current = d
	a.initial = d.Params.Snapshot()
	a.reg.SetCurrent(d)
	a.preset = -1
	a.paramSel = 0
	if d.UsesParamGestures() && a.gl != nil {
		a.params = viewport.NewParamApplier(d.Params, a.w, a.h)
		a.params.Redraw = func() { a.dirty = true }
		a.engine.SetApplier(a.params)
	} else {
		if err := a.plane.SetHome(d.HomeView(a.startView)); err != nil {
			logging.Logger().Warn("invalid start view", "fractal", d.Name, "err", err)
		}
		a.engine.SetApplier(a.plane)
	}
	a.inMenu = false
	a.dirty = true
	a.status = status
	logging.Logger().Info("fractal selected", "name", d.Name, "kind", d.Kind)
}

func (a *App) dropGL() {
	if a.gl != nil {
		a.gl.unload()
		a.gl = nil
	}
}

func (a *App) exploreKeys() {
	if rl.IsKeyPressed(rl.KeyEscape) {
		a.engine.EndGesture()
		a.inMenu = true
		a.status = ""
		return
	}
	if rl.IsKeyPressed(rl.KeyR) {
		a.home()
	}
	if rl.IsKeyPressed(rl.KeyN) {
		a.nextPreset()
	}
	if rl.IsKeyPressed(rl.KeyE) {
		a.export()
	}

	names := a.current.Params.Names()
	if len(names) == 0 {
		return
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		a.paramSel = (a.paramSel + 1) % len(names)
	}
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		a.paramSel = (a.paramSel - 1 + len(names)) % len(names)
	}
	step := float32(0.01)
	if rl.IsKeyDown(rl.KeyLeftShift) {
		step = 0.1
	}
	name := names[a.paramSel%len(names)]
	if rl.IsKeyPressed(rl.KeyEqual) {
		a.current.Params.Update(name, func(v float32) float32 { return v + step*max(abs32(v), 1) })
		a.dirty = true
	}
	if rl.IsKeyPressed(rl.KeyMinus) {
		a.current.Params.Update(name, func(v float32) float32 { return v - step*max(abs32(v), 1) })
		a.dirty = true
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// home resets the view and the parameters to what they were on open.
func (a *App) home() {
	for name, v := range a.initial {
		a.current.Params.Set(name, v)
	}
	a.plane.Home()
	a.dirty = true
}

func (a *App) nextPreset() {
	names := config.ListPresets(a.current.Name)
	if len(names) == 0 {
		a.status = "no presets for " + a.current.Name
		return
	}
	a.preset = (a.preset + 1) % len(names)
	p := config.GetPreset(a.current.Name, names[a.preset])
	if a.gl == nil {
		if err := a.plane.SetRect(p.View); err != nil {
			a.status = err.Error()
			return
		}
	}
	p.Apply(a.current.Params)
	a.status = "preset " + names[a.preset]
	a.dirty = true
}

// pointers feeds touch points, or the left mouse button when there are
// none, into the gesture engine.
func (a *App) pointers() {
	now := touchSet{}
	if n := rl.GetTouchPointCount(); n > 0 {
		for i := int32(0); i < n; i++ {
			p := rl.GetTouchPosition(i)
			now[int(rl.GetTouchPointId(i))] = pointer{float64(p.X), float64(p.Y)}
		}
	} else if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		p := rl.GetMousePosition()
		now[-1] = pointer{float64(p.X), float64(p.Y)}
	}

	down, moved, up := a.touches.diff(now)
	for _, id := range up {
		p := a.touches[id]
		a.engine.PointerUp(id, p.x, p.y)
	}
	for _, id := range down {
		p := now[id]
		a.engine.PointerDown(id, p.x, p.y)
	}
	if len(moved) > 0 {
		pts := make([]viewport.Point, 0, len(now))
		for id, p := range now {
			pts = append(pts, viewport.Point{ID: id, X: p.x, Y: p.y})
		}
		a.engine.PointerMove(pts...)
	}
	a.touches = now
}

func (a *App) tap(x, y float64) {
	if a.gl != nil {
		logging.Logger().Info("tap", "x", x, "y", y)
		return
	}
	re, im := kernel.PlaneCoord(int(x), int(y), a.w, a.h, a.plane.Rect())
	a.status = fmt.Sprintf("%.8g %+.8gi", re, im)
	logging.Logger().Info("tap", "x", x, "y", y, "re", re, "im", im)
}

// collect picks up a finished software draw.
func (a *App) collect() {
	select {
	case err := <-a.done:
		if err != nil && !errors.Is(err, render.ErrRenderInFlight) {
			a.status = err.Error()
			logging.Logger().Warn("render failed", "fractal", a.current, "err", err)
			return
		}
		a.upload()
	default:
	}
}

// schedule starts a draw when the view changed and no gesture is running.
func (a *App) schedule() {
	if a.gl != nil {
		if a.dirty || a.gl.continuous() {
			a.dirty = false
			if err := a.gl.draw(); err != nil {
				logging.Logger().Error("shader draw failed", "err", err)
				a.status = err.Error()
			}
		}
		return
	}
	if !a.dirty || a.sync.InFlight() || a.engine.State() != viewport.Idle {
		return
	}
	a.dirty = false
	fn := a.sw.DrawFunc(a.current, a.plane.Rect())
	w, h := a.w, a.h
	go func() {
		a.done <- a.sync.Draw(context.Background(), w, h, fn)
	}()
}

// upload copies the published frame into the display texture.
func (a *App) upload() {
	a.sync.Read(func(buf []uint32, w, h int) {
		if w == 0 || h == 0 {
			return
		}
		if a.tex.ID == 0 || int(a.tex.Width) != w || int(a.tex.Height) != h {
			if a.tex.ID != 0 {
				rl.UnloadTexture(a.tex)
			}
			img := rl.GenImageColor(w, h, rl.Black)
			a.tex = rl.LoadTextureFromImage(img)
			rl.UnloadImage(img)
			a.pixels = make([]color.RGBA, w*h)
		}
		toColors(a.pixels, buf)
		rl.UpdateTexture(a.tex, a.pixels)
	})
}

func (a *App) export() {
	if a.store == nil {
		a.status = "export disabled"
		return
	}
	var img image.Image
	w, h := a.w, a.h
	if a.gl != nil {
		rimg := rl.LoadImageFromTexture(a.gl.texture())
		rgba, ok := rimg.ToImage().(*image.RGBA)
		rl.UnloadImage(rimg)
		if !ok {
			a.status = "export failed: unexpected texture format"
			return
		}
		flipRows(rgba)
		img = rgba
	} else {
		if img = a.sync.Image(); img == nil {
			a.status = "nothing to export yet"
			return
		}
		w, h = a.sync.Size()
	}
	last := time.Duration(a.timer.Stats().LastMs * float64(time.Millisecond))
	id, err := a.store.Save(img, storage.Describe(a.current, a.plane.Rect(), w, h, last), a.format)
	if err != nil {
		a.status = "export failed: " + err.Error()
		logging.Logger().Error("export failed", "err", err)
		return
	}
	a.status = "saved " + id
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)
	if a.inMenu {
		a.drawMenu()
	} else {
		a.drawFractal()
		a.drawHUD()
	}
	rl.EndDrawing()
}

func (a *App) drawFractal() {
	if a.gl != nil {
		t := a.gl.texture()
		src := rl.NewRectangle(0, 0, float32(t.Width), -float32(t.Height))
		rl.DrawTextureRec(t, src, rl.NewVector2(0, 0), rl.White)
		return
	}
	if a.tex.ID == 0 {
		return
	}
	dx, dy, scale, active := a.plane.Pending()
	if !active {
		rl.DrawTexture(a.tex, 0, 0, rl.White)
		return
	}
	x, y, w, h := previewRect(int(a.tex.Width), int(a.tex.Height), dx, dy, scale)
	src := rl.NewRectangle(0, 0, float32(a.tex.Width), float32(a.tex.Height))
	rl.DrawTexturePro(a.tex, src, rl.NewRectangle(x, y, w, h), rl.NewVector2(0, 0), 0, rl.White)
}

func (a *App) drawMenu() {
	rl.DrawText("fractalzoo", 40, 40, 32, ColSelect)
	rl.DrawText(strings.Join(append([]string{fractal.RootLabel}, a.path...), "  >  "), 40, 84, 16, ColText)
	for i, label := range a.items {
		y := int32(130 + i*28)
		col, prefix := ColText, "  "
		if i == a.selected {
			col, prefix = ColSelect, "> "
		}
		suffix := ""
		if !a.isLeaf(label) {
			suffix = "  ..."
		} else if d, ok := a.reg.Get(label); ok {
			suffix = "  " + d.Kind.String()
		}
		rl.DrawText(prefix+label, 40, y, 20, col)
		rl.DrawText(suffix, 360, y+4, 14, ColTextDim)
	}
	hy := int32(a.h - 40)
	rl.DrawText("[UP/DOWN] SELECT  [ENTER] OPEN  [BACKSPACE] UP  [Q] QUIT", 40, hy, 14, ColTextDim)
	if a.status != "" {
		rl.DrawText(a.status, 40, hy-24, 14, ColAccent)
	}
}

func (a *App) drawHUD() {
	rl.DrawRectangle(0, 0, int32(a.w), 56, ColPanel)
	rl.DrawText(a.current.Name, 20, 12, 24, ColSelect)

	var info string
	if a.gl != nil {
		var parts []string
		a.current.Params.Each(func(name string, v float32) {
			parts = append(parts, fmt.Sprintf("%s %.4g", name, v))
		})
		info = strings.Join(parts, "  ")
	} else {
		r := a.plane.Rect()
		cx, cy := r.Center()
		info = fmt.Sprintf("center %.10g %+.10gi  width %.4g", cx, cy, r.Width())
	}
	rl.DrawText(info, 20, 38, 14, ColText)

	if names := a.current.Params.Names(); len(names) > 0 {
		name := names[a.paramSel%len(names)]
		v, _ := a.current.Params.Get(name)
		rl.DrawText(fmt.Sprintf("[%s] = %.5g", name, v), int32(a.w-260), 14, 16, ColAccent)
	}

	stats := a.timer.Stats()
	foot := fmt.Sprintf("%.1f ms  (mean %.1f, over budget %.0f%%)", stats.LastMs, stats.MeanMs, a.budget.Value()*100)
	rl.DrawRectangle(0, int32(a.h-32), int32(a.w), 32, ColPanel)
	rl.DrawText(foot, 20, int32(a.h-24), 14, ColText)
	rl.DrawText(a.status, 320, int32(a.h-24), 14, ColAccent)
	rl.DrawText("[R] HOME  [N] PRESET  [ [ ] ] PARAM  [-/=] ADJUST  [E] EXPORT  [ESC] MENU", int32(a.w-620), int32(a.h-24), 14, ColTextDim)
	rl.DrawFPS(int32(a.w-90), 36)
}
