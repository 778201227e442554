package compute

import (
	"runtime"

	"github.com/san-kum/fractalzoo/internal/kernel"
	"github.com/san-kum/fractalzoo/internal/viewport"
)

// Backend exposes the kernel entry points to renderers. Implementations must
// produce the same pixels as the reference kernels in package kernel.
type Backend interface {
	Name() string
	Available() bool
	EscapeTime(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.EscapeParams) error
	EscapeTimeTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.EscapeParams, x0, y0, x1, y1 int) error
	Trajectory(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.TrajectoryParams) error
	TrajectoryTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.TrajectoryParams, x0, y0, x1, y1 int) error
	Cleanup()
}

// AutoSelectBackend picks the tiled parallel backend when more than one
// worker is available, else the serial one. workers <= 0 means one per CPU.
func AutoSelectBackend(workers, tileSize int) Backend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 {
		return NewSerialBackend()
	}
	return NewCPUBackend(workers, tileSize)
}

// ByName builds a backend from its name, falling back to auto selection.
func ByName(name string, workers, tileSize int) Backend {
	switch name {
	case "serial":
		return NewSerialBackend()
	case "cpu":
		return NewCPUBackend(workers, tileSize)
	}
	return AutoSelectBackend(workers, tileSize)
}

// SerialBackend calls the kernels directly on the caller's goroutine.
type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (SerialBackend) Name() string    { return "serial" }
func (SerialBackend) Available() bool { return true }
func (SerialBackend) Cleanup()        {}

func (SerialBackend) EscapeTime(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.EscapeParams) error {
	return kernel.EscapeTime(buf, w, h, r, maxIter, p)
}

func (SerialBackend) EscapeTimeTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.EscapeParams, x0, y0, x1, y1 int) error {
	return kernel.EscapeTimeTile(buf, w, h, r, maxIter, p, x0, y0, x1, y1)
}

func (SerialBackend) Trajectory(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.TrajectoryParams) error {
	return kernel.Trajectory(buf, w, h, r, maxIter, p)
}

func (SerialBackend) TrajectoryTile(buf []uint32, w, h int, r viewport.Rect, maxIter int, p kernel.TrajectoryParams, x0, y0, x1, y1 int) error {
	return kernel.TrajectoryTile(buf, w, h, r, maxIter, p, x0, y0, x1, y1)
}
