package gui

import (
	"errors"
	"fmt"
	"slices"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/fractalzoo/internal/fractal"
	"github.com/san-kum/fractalzoo/internal/render"
)

// ErrLinkFailed is returned when raylib rejects a shader pair.
var ErrLinkFailed = errors.New("gui: shader failed to compile or link")

// program adapts a raylib shader to render.Program.
type program struct {
	shader rl.Shader

	paletteLoc    int32
	paletteTex    rl.Texture2D
	paletteColors []uint32
}

var _ render.Program = (*program)(nil)

func loadProgram(d *fractal.Descriptor) (*program, error) {
	if d.Shaders == nil {
		return nil, fmt.Errorf("%s: %w", d.Name, fractal.ErrMissingShaders)
	}
	shader := rl.LoadShaderFromMemory(d.Shaders.Vertex, d.Shaders.Fragment)
	if !rl.IsShaderValid(shader) {
		return nil, fmt.Errorf("%s: %w", d.Name, ErrLinkFailed)
	}
	return &program{shader: shader, paletteLoc: -1}, nil
}

func (p *program) UniformLocation(name string) int32 {
	return rl.GetShaderLocation(p.shader, name)
}

func (p *program) SetFloat(loc int32, v float32) {
	rl.SetShaderValue(p.shader, loc, []float32{v}, rl.ShaderUniformFloat)
}

func (p *program) SetVec2(loc int32, x, y float32) {
	rl.SetShaderValue(p.shader, loc, []float32{x, y}, rl.ShaderUniformVec2)
}

// SetPalette uploads the palette strip once and keeps it until the colors
// change. The sampler is bound per draw in bind.
func (p *program) SetPalette(loc int32, colors []uint32) {
	p.paletteLoc = loc
	if p.paletteTex.ID != 0 && slices.Equal(colors, p.paletteColors) {
		return
	}
	if p.paletteTex.ID != 0 {
		rl.UnloadTexture(p.paletteTex)
	}
	img := rl.NewImageFromImage(paletteStrip(colors))
	p.paletteTex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.SetTextureFilter(p.paletteTex, rl.FilterBilinear)
	rl.SetTextureWrap(p.paletteTex, rl.WrapClamp)
	p.paletteColors = slices.Clone(colors)
}

// bind attaches textures; call between BeginShaderMode and EndShaderMode.
func (p *program) bind() {
	if p.paletteLoc >= 0 && p.paletteTex.ID != 0 {
		rl.SetShaderValueTexture(p.shader, p.paletteLoc, p.paletteTex)
	}
}

func (p *program) unload() {
	if p.paletteTex.ID != 0 {
		rl.UnloadTexture(p.paletteTex)
	}
	rl.UnloadShader(p.shader)
}

// glRenderer draws a shader fractal into offscreen targets. Feedback
// fractals sample the previous frame as texture0, so two targets are kept
// and swapped every draw.
type glRenderer struct {
	d        *fractal.Descriptor
	prog     *program
	targets  [2]rl.RenderTexture2D
	front    int
	w, h     int
	listener render.Listener
}

// newGLRenderer links d's program and checks it against the uniform
// contract. Any error means the caller should fall back.
func newGLRenderer(d *fractal.Descriptor, w, h int, l render.Listener) (*glRenderer, error) {
	prog, err := loadProgram(d)
	if err != nil {
		return nil, err
	}
	if err := render.FeedUniforms(prog, d, w, h); err != nil {
		prog.unload()
		return nil, err
	}
	g := &glRenderer{d: d, prog: prog, listener: l}
	g.resize(w, h)
	return g, nil
}

func (g *glRenderer) resize(w, h int) {
	if w == g.w && h == g.h {
		return
	}
	g.unloadTargets()
	g.w, g.h = w, h
	for i := range g.targets {
		g.targets[i] = rl.LoadRenderTexture(int32(w), int32(h))
		rl.BeginTextureMode(g.targets[i])
		rl.ClearBackground(rl.Black)
		rl.EndTextureMode()
	}
}

// draw renders one frame into the back target and makes it the front.
func (g *glRenderer) draw() error {
	g.listener.OnRenderRequested()
	start := time.Now()

	if err := render.FeedUniforms(g.prog, g.d, g.w, g.h); err != nil {
		g.listener.OnRenderComplete(time.Since(start))
		return err
	}
	back := 1 - g.front
	prev := g.targets[g.front].Texture
	src := rl.NewRectangle(0, 0, float32(g.w), -float32(g.h))

	rl.BeginTextureMode(g.targets[back])
	rl.ClearBackground(rl.Black)
	rl.BeginShaderMode(g.prog.shader)
	g.prog.bind()
	rl.DrawTextureRec(prev, src, rl.NewVector2(0, 0), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()
	g.front = back

	g.listener.OnRenderComplete(time.Since(start))
	return nil
}

// texture is the last completed frame, stored bottom up.
func (g *glRenderer) texture() rl.Texture2D {
	return g.targets[g.front].Texture
}

// continuous reports whether the fractal animates on its own.
func (g *glRenderer) continuous() bool {
	return g.d.NeedsOffscreen()
}

func (g *glRenderer) unloadTargets() {
	for i := range g.targets {
		if g.targets[i].ID != 0 {
			rl.UnloadRenderTexture(g.targets[i])
			g.targets[i] = rl.RenderTexture2D{}
		}
	}
}

func (g *glRenderer) unload() {
	g.unloadTargets()
	g.prog.unload()
}
