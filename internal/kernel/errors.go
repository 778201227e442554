package kernel

import "errors"

var (
	// ErrBufferSize indicates a pixel buffer shorter than width*height.
	ErrBufferSize = errors.New("kernel: buffer smaller than width*height")

	// ErrNoSystem indicates a trajectory request without a system to integrate.
	ErrNoSystem = errors.New("kernel: trajectory has no system")
)
