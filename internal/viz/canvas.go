package viz

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// halfBlock paints the top pixel as foreground and the bottom one as
// background.
const halfBlock = "▀"

// maxCachedStyles bounds the style cache; deep zooms touch many colors.
const maxCachedStyles = 8192

// Canvas renders a pixel surface as half-block cells. A Width×Height cell
// canvas shows a Width×2·Height pixel surface.
type Canvas struct {
	Width, Height int
	cache         map[[2]uint32]lipgloss.Style
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{cache: make(map[[2]uint32]lipgloss.Style)}
	c.Resize(w, h)
	return c
}

// Resize sets the cell size. Non-positive sizes become one cell.
func (c *Canvas) Resize(w, h int) {
	c.Width, c.Height = max(w, 1), max(h, 1)
}

// PixelSize is the surface size the canvas expects.
func (c *Canvas) PixelSize() (w, h int) {
	return c.Width, c.Height * 2
}

// Cell maps a pixel to the cell showing it.
func (c *Canvas) Cell(x, y int) (col, row int) {
	return x, y / 2
}

// Pixel maps a cell to the top pixel it shows.
func (c *Canvas) Pixel(col, row int) (x, y int) {
	return col, row * 2
}

func (c *Canvas) style(top, bottom uint32) lipgloss.Style {
	key := [2]uint32{top, bottom}
	if s, ok := c.cache[key]; ok {
		return s
	}
	if len(c.cache) >= maxCachedStyles {
		clear(c.cache)
	}
	s := lipgloss.NewStyle().
		Foreground(lipgloss.Color(hex(top))).
		Background(lipgloss.Color(hex(bottom)))
	c.cache[key] = s
	return s
}

// Render draws img, scaled by nearest neighbour when its size differs
// from the canvas. A nil image renders blank cells.
func (c *Canvas) Render(img *image.RGBA) string {
	pw, ph := c.PixelSize()
	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		if img == nil {
			b.WriteString(strings.Repeat(" ", c.Width))
			continue
		}
		for col := 0; col < c.Width; col++ {
			top := sample(img, col, row*2, pw, ph)
			bottom := sample(img, col, row*2+1, pw, ph)
			b.WriteString(c.style(top, bottom).Render(halfBlock))
		}
	}
	return b.String()
}

// sample reads the packed color of surface pixel (x, y) from img.
func sample(img *image.RGBA, x, y, pw, ph int) uint32 {
	bounds := img.Bounds()
	if bounds.Dx() != pw || bounds.Dy() != ph {
		x = x * bounds.Dx() / pw
		y = y * bounds.Dy() / ph
	}
	x += bounds.Min.X
	y += bounds.Min.Y
	if !(image.Point{X: x, Y: y}).In(bounds) {
		return 0xff000000
	}
	i := img.PixOffset(x, y)
	p := img.Pix[i : i+4 : i+4]
	return 0xff000000 | uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
}

func hex(c uint32) string {
	return fmt.Sprintf("#%06x", c&0xffffff)
}
