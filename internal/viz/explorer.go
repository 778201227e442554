package viz

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

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

type state int

const (
	stateBrowse state = iota
	stateParams
	stateExplore
)

// Rows taken by the header and footer around the canvas.
const (
	chromeRows = 2
	graphRows  = 6
)

// Options configures an Explorer.
type Options struct {
	Registry *fractal.Registry
	Backend  compute.Backend
	MaxIter  int
	// Store receives exported frames. Export is disabled when nil.
	Store  *storage.Store
	Format string
	Theme  string
	// Start opens this fractal directly instead of the catalog.
	Start string
	// StartView overrides the home view of escape-time fractals.
	StartView *viewport.Rect
}

type renderDoneMsg struct {
	err   error
	frame frame
}

// frame records what the published buffer shows, so a later pan can scroll
// it instead of rendering from scratch.
type frame struct {
	d      *fractal.Descriptor
	rect   viewport.Rect
	w, h   int
	params map[string]float32
}

// scrollable reports whether f is still a valid base for drawing d at w×h.
func (f frame) scrollable(d *fractal.Descriptor, w, h int) bool {
	return f.d != nil && f.d == d && f.w == w && f.h == h && maps.Equal(f.params, d.Params.Snapshot())
}

// Explorer is the Bubble Tea model of the terminal explorer.
type Explorer struct {
	reg    *fractal.Registry
	sw     *render.Software
	sync   *render.Synchronizer
	timer  *metrics.RenderTimer
	plane  *viewport.PlaneApplier
	engine *viewport.Engine
	canvas *Canvas
	store  *storage.Store
	format string
	theme  int

	startView *viewport.Rect

	state   state
	path    []string
	items   []string
	cursor  int
	current *fractal.Descriptor

	paramCursor int
	editing     bool
	editBuf     string

	width, height int
	rendering     bool
	dirty         bool
	previewing    bool
	pdx, pdy, ps  float64
	showGraph     bool
	preset        int
	status        string
	failed        bool
	shown         frame
}

func NewExplorer(opts Options) *Explorer {
	timer := metrics.NewRenderTimer(metrics.DefaultHistory)
	m := &Explorer{
		reg:    opts.Registry,
		sw:     render.NewSoftware(opts.Backend, opts.MaxIter),
		sync:   render.NewSynchronizer(timer),
		timer:  timer,
		plane:  viewport.NewPlaneApplier(1, 1),
		canvas: NewCanvas(80, 24),
		store:  opts.Store,
		format: opts.Format,
		ps:     1,
		preset: -1,

		startView: opts.StartView,
	}
	if m.format == "" {
		m.format = "png"
	}
	for i, t := range Themes {
		if t.Name == opts.Theme {
			m.theme = i
		}
	}
	m.plane.Resize(m.canvas.PixelSize())
	m.engine = viewport.NewEngine(m.plane)
	m.plane.Preview = func(dx, dy, scale float64) {
		m.previewing = dx != 0 || dy != 0 || scale != 1
		m.pdx, m.pdy, m.ps = dx, dy, scale
	}
	m.plane.Redraw = func(viewport.Rect) { m.dirty = true }
	m.engine.OnTap(m.probe)
	m.list()

	if opts.Start != "" {
		if d, ok := m.reg.Get(opts.Start); ok && d.Kind != fractal.ShaderBased {
			m.open(d)
		}
	}
	return m
}

// Run starts the explorer on the terminal and blocks until it quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(NewExplorer(opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

func (m *Explorer) Init() tea.Cmd { return nil }

func (m *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			return m, cmd
		}
	case tea.MouseMsg:
		if m.state == stateExplore {
			m.handleMouse(msg)
		}
	case renderDoneMsg:
		m.rendering = false
		m.failed = msg.err != nil
		m.shown = msg.frame
		if msg.err != nil {
			m.status = msg.err.Error()
			logging.Logger().Warn("terminal render failed", "fractal", m.current, "err", msg.err)
		}
		if m.engine.State() == viewport.Idle {
			m.previewing = false
		}
	}
	return m, m.maybeRender()
}

// layout fits the canvas and plane to the terminal size.
func (m *Explorer) layout() {
	rows := m.height - chromeRows
	if m.showGraph {
		rows -= graphRows
	}
	m.canvas.Resize(m.width, rows)
	w, h := m.canvas.PixelSize()
	m.plane.Resize(w, h)
	m.dirty = true
}

// maybeRender starts a draw when one is wanted and none is running.
func (m *Explorer) maybeRender() tea.Cmd {
	if m.state != stateExplore || m.current == nil || !m.dirty || m.rendering {
		return nil
	}
	if m.engine.State() != viewport.Idle {
		return nil
	}
	m.dirty = false
	m.rendering = true
	w, h := m.canvas.PixelSize()
	f := frame{d: m.current, rect: m.plane.Rect(), w: w, h: h, params: m.current.Params.Snapshot()}
	fn := m.sw.DrawFunc(f.d, f.rect)
	if bw, bh := m.sync.Size(); bw == w && bh == h && m.shown.scrollable(f.d, w, h) {
		fn = m.sw.ScrollFunc(f.d, m.shown.rect, f.rect)
	}
	sync := m.sync
	return func() tea.Msg {
		if err := sync.Draw(context.Background(), w, h, fn); err != nil {
			return renderDoneMsg{err: err}
		}
		return renderDoneMsg{frame: f}
	}
}

func (m *Explorer) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+c" || (key == "q" && !m.editing) {
		return tea.Quit
	}
	if key == "t" && !m.editing {
		m.theme = (m.theme + 1) % len(Themes)
		m.status = "theme " + Themes[m.theme].Name
		return nil
	}
	switch m.state {
	case stateBrowse:
		m.browseKey(key)
	case stateParams:
		m.paramKey(key)
	case stateExplore:
		m.exploreKey(key)
	}
	return nil
}

// list loads the catalog entries at the current path.
func (m *Explorer) list() {
	items, ok := m.reg.Children(m.path)
	if !ok {
		m.path = nil
		items, _ = m.reg.Children(nil)
	}
	m.items = items
	m.cursor = min(m.cursor, max(len(items)-1, 0))
}

// isLeaf reports whether label under the current path is a fractal.
func (m *Explorer) isLeaf(label string) bool {
	kids, ok := m.reg.Children(append(m.path[:len(m.path):len(m.path)], label))
	return ok && len(kids) == 0
}

func (m *Explorer) browseKey(key string) {
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "esc", "backspace", "left", "h":
		if len(m.path) > 0 {
			last := m.path[len(m.path)-1]
			m.path = m.path[:len(m.path)-1]
			m.list()
			m.cursor = max(indexOf(m.items, last), 0)
		}
	case "enter", "right", "l":
		if len(m.items) == 0 {
			return
		}
		label := m.items[m.cursor]
		if !m.isLeaf(label) {
			m.path = append(m.path, label)
			m.cursor = 0
			m.list()
			return
		}
		d, ok := m.reg.Get(label)
		if !ok {
			return
		}
		if d.Kind == fractal.ShaderBased {
			m.status = d.Name + " needs the window explorer"
			return
		}
		m.open(d)
	}
}

// open shows d from its home view.
func (m *Explorer) open(d *fractal.Descriptor) {
	m.engine.EndGesture()
	m.reg.SetCurrent(d)
	m.current = d
	m.preset = -1
	if err := m.plane.SetHome(d.HomeView(m.startView)); err != nil {
		logging.Logger().Warn("invalid start view", "fractal", d.Name, "err", err)
	}
	m.state = stateExplore
	m.previewing = false
	m.status = d.Name
	m.dirty = true
	logging.Logger().Info("fractal selected", "name", d.Name, "kind", d.Kind)
}

func (m *Explorer) exploreKey(key string) {
	w, h := m.canvas.PixelSize()
	stepX, stepY := float64(max(w/8, 1)), float64(max(h/8, 1))
	switch key {
	case "esc":
		m.engine.EndGesture()
		m.state = stateBrowse
		m.status = ""
	case "left", "h":
		m.pan(stepX, 0)
	case "right", "l":
		m.pan(-stepX, 0)
	case "up", "k":
		m.pan(0, stepY)
	case "down", "j":
		m.pan(0, -stepY)
	case "+", "=":
		m.engine.Wheel(1)
	case "-", "_":
		m.engine.Wheel(-1)
	case "r":
		m.plane.Home()
		m.dirty = true
	case "n":
		m.nextPreset()
	case "p":
		if m.current.Params.Len() > 0 {
			m.state = stateParams
			m.paramCursor = 0
		}
	case "g":
		m.showGraph = !m.showGraph
		m.layout()
	case "e":
		m.export()
	}
}

// pan shifts the view the way a drag of (dx, dy) pixels would.
func (m *Explorer) pan(dx, dy float64) {
	if m.engine.State() != viewport.Idle {
		return
	}
	m.plane.Begin()
	m.plane.Translate(dx, dy)
	m.plane.End()
}

func (m *Explorer) nextPreset() {
	names := config.ListPresets(m.current.Name)
	if len(names) == 0 {
		m.status = "no presets for " + m.current.Name
		return
	}
	m.preset = (m.preset + 1) % len(names)
	p := config.GetPreset(m.current.Name, names[m.preset])
	if err := m.plane.SetRect(p.View); err != nil {
		m.status = err.Error()
		return
	}
	if skipped := p.Apply(m.current.Params); len(skipped) > 0 {
		logging.Logger().Debug("preset parameters skipped", "preset", names[m.preset], "params", skipped)
	}
	m.status = "preset " + names[m.preset]
	m.dirty = true
}

func (m *Explorer) export() {
	if m.store == nil {
		m.status = "export disabled"
		return
	}
	img := m.sync.Image()
	if img == nil {
		m.status = "nothing to export yet"
		return
	}
	w, h := m.sync.Size()
	last := time.Duration(m.timer.Stats().LastMs * float64(time.Millisecond))
	id, err := m.store.Save(img, storage.Describe(m.current, m.plane.Rect(), w, h, last), m.format)
	if err != nil {
		m.status = "export failed: " + err.Error()
		logging.Logger().Error("export failed", "err", err)
		return
	}
	m.status = "saved " + id
}

func (m *Explorer) paramKey(key string) {
	names := m.current.Params.Names()
	if len(names) == 0 {
		m.state = stateExplore
		return
	}
	name := names[min(m.paramCursor, len(names)-1)]
	if m.editing {
		switch key {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 32); err == nil {
				m.current.Params.Set(name, float32(v))
				m.dirty = true
			} else {
				m.status = "not a number: " + m.editBuf
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(key) == 1 && strings.ContainsAny(key, "0123456789.-e") {
				m.editBuf += key
			}
		}
		return
	}
	switch key {
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(names)-1 {
			m.paramCursor++
		}
	case "left", "h":
		m.current.Params.Update(name, func(v float32) float32 { return v - paramStep(v) })
		m.dirty = true
	case "right", "l":
		m.current.Params.Update(name, func(v float32) float32 { return v + paramStep(v) })
		m.dirty = true
	case "enter":
		m.editing = true
	case "esc", "p":
		m.state = stateExplore
	}
}

// paramStep is a tenth of the magnitude of v, at least 0.01.
func paramStep(v float32) float32 {
	if v < 0 {
		v = -v
	}
	return max(v/10, 0.01)
}

func (m *Explorer) handleMouse(msg tea.MouseMsg) {
	x, y := m.canvas.Pixel(msg.X, msg.Y-1)
	fx, fy := float64(x), float64(y)
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.engine.Wheel(1)
		return
	case tea.MouseButtonWheelDown:
		m.engine.Wheel(-1)
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.engine.PointerDown(0, fx, fy)
		}
	case tea.MouseActionMotion:
		if m.engine.State() != viewport.Idle {
			m.engine.PointerMove(viewport.Point{ID: 0, X: fx, Y: fy})
		}
	case tea.MouseActionRelease:
		m.engine.PointerUp(0, fx, fy)
	}
}

// probe reports the plane coordinate under a tap.
func (m *Explorer) probe(x, y float64) {
	w, h := m.canvas.PixelSize()
	re, im := kernel.PlaneCoord(int(x), int(y), w, h, m.plane.Rect())
	m.status = fmt.Sprintf("%.6g %+.6gi", re, im)
	logging.Logger().Info("tap", "x", x, "y", y, "re", re, "im", im)
}

func (m *Explorer) View() string {
	switch m.state {
	case stateBrowse:
		return m.viewBrowse()
	case stateParams:
		return m.viewParams()
	case stateExplore:
		return m.viewExplore()
	}
	return ""
}

func (m *Explorer) viewBrowse() string {
	st := Themes[m.theme].styles()
	var b strings.Builder
	b.WriteString("\n\n    " + st.title.Render("FRACTAL ZOO") + "\n    ")
	b.WriteString(st.subtle.Render(strings.Join(append([]string{fractal.RootLabel}, m.path...), " › ")) + "\n")
	b.WriteString("    " + st.subtle.Render("─────────────────────────") + "\n\n")
	for i, label := range m.items {
		desc := ""
		if m.isLeaf(label) {
			if d, ok := m.reg.Get(label); ok {
				desc = d.Kind.String()
			}
		} else {
			desc = "›"
		}
		name := fmt.Sprintf("%-20s", truncate(label, 20))
		if i == m.cursor {
			b.WriteString("    " + st.key.Render("▸") + " " + st.selected.Render(name) + "  " + st.value.Render(desc) + "\n")
		} else {
			b.WriteString("      " + st.item.Render(name) + "  " + st.subtle.Render(desc) + "\n")
		}
	}
	b.WriteString("\n    " + keyHints(st, "j/k", "navigate", "enter", "open", "esc", "up", "t", "theme", "q", "quit") + "\n")
	if m.status != "" {
		b.WriteString("\n    " + st.warn.Render(m.status) + "\n")
	}
	return b.String()
}

func (m *Explorer) viewParams() string {
	st := Themes[m.theme].styles()
	var b strings.Builder
	b.WriteString("\n\n    " + st.title.Render(strings.ToUpper(m.current.Name)) + "\n    ")
	b.WriteString(st.subtle.Render(m.current.Kind.String()) + "\n    " + st.subtle.Render("─────────────────────────") + "\n\n")
	i := 0
	m.current.Params.Each(func(name string, v float32) {
		defer func() { i++ }()
		val := fmt.Sprintf("%10.4f", v)
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			b.WriteString("    " + st.key.Render("▸") + " " + st.selected.Render(fmt.Sprintf("%-12s", name)) + " " + st.value.Render(val) + "\n")
		} else {
			b.WriteString("      " + st.item.Render(fmt.Sprintf("%-12s", name)) + " " + st.subtle.Render(val) + "\n")
		}
	})
	b.WriteString("\n    " + keyHints(st, "j/k", "select", "h/l", "adjust", "enter", "edit", "esc", "back") + "\n")
	return b.String()
}

func (m *Explorer) viewExplore() string {
	st := Themes[m.theme].styles()
	r := m.plane.Rect()
	cx, cy := r.Center()
	header := st.title.Render(m.current.Name) + "  " +
		st.label.Render("center ") + st.value.Render(fmt.Sprintf("%.6g %+.6gi", cx, cy)) + "  " +
		st.label.Render("width ") + st.value.Render(fmt.Sprintf("%.3g", r.Width()))
	if m.rendering {
		header += "  " + st.warn.Render("rendering")
	}

	img := m.sync.Image()
	if m.previewing {
		img = m.sync.Preview(m.pdx, m.pdy, m.ps)
	}
	parts := []string{truncateLine(header, m.width), m.canvas.Render(img)}

	if m.showGraph {
		parts = append(parts, m.viewGraph(st))
	}

	stats := m.timer.Stats()
	status := st.status.Render(m.status)
	if m.failed {
		status = st.err.Render(m.status)
	}
	footer := st.label.Render("render ") + st.value.Render(fmt.Sprintf("%.1fms", stats.LastMs)) + " " +
		SparklineChart(m.timer.History(), 16) + "  " + status + "  " +
		keyHints(st, "drag", "pan", "wheel", "zoom", "n", "preset", "p", "params", "e", "export", "esc", "back")
	parts = append(parts, truncateLine(footer, m.width))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Explorer) viewGraph(st styles) string {
	history := m.timer.History()
	if len(history) < 2 {
		return st.subtle.Render(strings.Repeat("\n", graphRows-1) + "waiting for renders")
	}
	graph := asciigraph.Plot(history,
		asciigraph.Height(graphRows-2),
		asciigraph.Width(max(m.width-12, 10)),
		asciigraph.Caption("render time (ms)"),
	)
	return st.subtle.Render(graph)
}

// truncateLine clips a styled line to width cells.
func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}

func indexOf(items []string, s string) int {
	for i, it := range items {
		if it == s {
			return i
		}
	}
	return -1
}
