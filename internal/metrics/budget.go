package metrics

import (
	"sync"
	"time"
)

// FrameBudget counts render cycles slower than a time budget. Value is the
// fraction of cycles over budget.
type FrameBudget struct {
	mu         sync.Mutex
	name       string
	budget     time.Duration
	violations int
	samples    int
}

func NewFrameBudget(budget time.Duration) *FrameBudget {
	return &FrameBudget{name: "over_budget", budget: budget}
}

func (b *FrameBudget) Name() string { return b.name }

func (b *FrameBudget) OnRenderRequested() {}

func (b *FrameBudget) OnRenderComplete(elapsed time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples++
	if elapsed > b.budget {
		b.violations++
	}
}

func (b *FrameBudget) Value() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.samples == 0 {
		return 0
	}
	return float64(b.violations) / float64(b.samples)
}

func (b *FrameBudget) Violations() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.violations
}

func (b *FrameBudget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.violations = 0
	b.samples = 0
}
