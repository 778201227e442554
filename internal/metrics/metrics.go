package metrics

import "time"

// Metric is a named aggregate over observed render cycles.
type Metric interface {
	Name() string
	Value() float64
	Reset()
}

// Observer receives the lifecycle hooks of a render synchronizer.
type Observer interface {
	Metric
	OnRenderRequested()
	OnRenderComplete(elapsed time.Duration)
}

func ms(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }
