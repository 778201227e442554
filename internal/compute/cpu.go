package compute

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// DefaultTileSize is the edge of the square tiles handed to workers.
const DefaultTileSize = 64

// CPUBackend splits the buffer into tiles and renders them on a bounded
// number of goroutines. Tiles never overlap, so workers share the buffer
// without locking.
type CPUBackend struct {
	workers  int
	tileSize int
}

func NewCPUBackend(workers, tileSize int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if tileSize <= 0 {
		tileSize = DefaultTileSize
	}
	return &CPUBackend{workers: workers, tileSize: tileSize}
}

func (c *CPUBackend) Name() string    { return fmt.Sprintf("cpu (%d workers)", c.workers) }
func (c *CPUBackend) Available() bool { return true }
func (c *CPUBackend) Cleanup()        {}

// Tile is a pixel rectangle [X0,X1)×[Y0,Y1).
type Tile struct{ X0, Y0, X1, Y1 int }

// Tiles covers [x0,x1)×[y0,y1) with non-overlapping tiles of at most
// size×size pixels, row by row.
func Tiles(x0, y0, x1, y1, size int) []Tile {
	if size <= 0 {
		size = DefaultTileSize
	}
	var out []Tile
	for y := y0; y < y1; y += size {
		for x := x0; x < x1; x += size {
			out = append(out, Tile{x, y, min(x+size, x1), min(y+size, y1)})
		}
	}
	return out
}

func (c *CPUBackend) forTiles(x0, y0, x1, y1 int, fn func(t Tile) error) error {
	var g errgroup.Group
	g.SetLimit(c.workers)
	for _, t := range Tiles(x0, y0, x1, y1, c.tileSize) {
		g.Go(func() error { return fn(t) })
	}
	return g.Wait()
}

func (c *CPUBackend) EscapeTime(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.EscapeParams) error {
	return c.EscapeTimeTile(buf, w, h, r, maxIter, p, 0, 0, w, h)
}

func (c *CPUBackend) EscapeTimeTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.EscapeParams, x0, y0, x1, y1 int) error {
	if len(buf) < w*h {
		return fmt.Errorf("%w: have %d, need %dx%d", kernel.ErrBufferSize, len(buf), w, h)
	}
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, w), min(y1, h)
	return c.forTiles(x0, y0, x1, y1, func(t Tile) error {
		return kernel.EscapeTimeTile(buf, w, h, r, maxIter, p, t.X0, t.Y0, t.X1, t.Y1)
	})
}

// Trajectory integrates once and shades tiles in parallel.
func (c *CPUBackend) Trajectory(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.TrajectoryParams) error {
	return c.TrajectoryTile(buf, w, h, r, maxIter, p, 0, 0, w, h)
}

func (c *CPUBackend) TrajectoryTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.TrajectoryParams, x0, y0, x1, y1 int) error {
	if len(buf) < w*h {
		return fmt.Errorf("%w: have %d, need %dx%d", kernel.ErrBufferSize, len(buf), w, h)
	}
	d, err := kernel.Accumulate(w, h, r, maxIter, p)
	if err != nil {
		return err
	}
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, w), min(y1, h)
	return c.forTiles(x0, y0, x1, y1, func(t Tile) error {
		return d.ShadeTile(buf, p.Palette, t.X0, t.Y0, t.X1, t.Y1)
	})
}
