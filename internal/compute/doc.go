// Package compute provides the backends that run the fractal kernels.
//
// Two backends exist:
//
//   - cpu: splits the buffer into square tiles rendered by a bounded pool
//     of goroutines
//   - serial: runs the kernel directly on the calling goroutine
//
// Both produce identical pixels; the tiled path only changes wall time.
//
//	backend := compute.AutoSelectBackend(cfg.Workers, cfg.TileSize)
//	err := backend.EscapeTime(buf, w, h, rect, maxIter, d.EscapeParams())
package compute
