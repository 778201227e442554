package metrics

import (
	"math"
	"sync"
	"time"
)

// DefaultHistory is the number of cycles a RenderTimer remembers.
const DefaultHistory = 120

// RenderTimer records render durations. Value is the mean in milliseconds.
type RenderTimer struct {
	mu        sync.Mutex
	name      string
	requested int
	history   []float64
	next      int
	full      bool
	total     float64
	samples   int
	last      float64
	min, max  float64
}

func NewRenderTimer(history int) *RenderTimer {
	if history <= 0 {
		history = DefaultHistory
	}
	t := &RenderTimer{name: "render_time_ms", history: make([]float64, history)}
	t.Reset()
	return t
}

func (t *RenderTimer) Name() string { return t.name }

func (t *RenderTimer) OnRenderRequested() {
	t.mu.Lock()
	t.requested++
	t.mu.Unlock()
}

func (t *RenderTimer) OnRenderComplete(elapsed time.Duration) {
	v := ms(elapsed)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history[t.next] = v
	t.next = (t.next + 1) % len(t.history)
	if t.next == 0 {
		t.full = true
	}
	t.total += v
	t.samples++
	t.last = v
	t.min = math.Min(t.min, v)
	t.max = math.Max(t.max, v)
}

func (t *RenderTimer) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.samples == 0 {
		return 0
	}
	return t.total / float64(t.samples)
}

// Stats summarizes every cycle since the last Reset.
type Stats struct {
	Requested int
	Completed int
	LastMs    float64
	MinMs     float64
	MaxMs     float64
	MeanMs    float64
}

func (t *RenderTimer) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{Requested: t.requested, Completed: t.samples, LastMs: t.last}
	if t.samples > 0 {
		s.MinMs, s.MaxMs = t.min, t.max
		s.MeanMs = t.total / float64(t.samples)
	}
	return s
}

// History returns the remembered durations in milliseconds, oldest first.
func (t *RenderTimer) History() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return append([]float64(nil), t.history[:t.next]...)
	}
	out := make([]float64, 0, len(t.history))
	out = append(out, t.history[t.next:]...)
	return append(out, t.history[:t.next]...)
}

func (t *RenderTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requested = 0
	t.next = 0
	t.full = false
	t.total = 0
	t.samples = 0
	t.last = 0
	t.min = math.Inf(1)
	t.max = math.Inf(-1)
}
