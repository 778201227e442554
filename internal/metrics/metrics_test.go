package metrics

import (
	"math"
	"reflect"
	"testing"
	"time"
)

var (
	_ Observer = (*RenderTimer)(nil)
	_ Observer = (*FrameBudget)(nil)
)

func TestRenderTimerStats(t *testing.T) {
	m := NewRenderTimer(8)
	if m.Value() != 0 {
		t.Errorf("empty timer value = %v", m.Value())
	}

	for _, d := range []time.Duration{10, 30, 20} {
		m.OnRenderRequested()
		m.OnRenderComplete(d * time.Millisecond)
	}

	s := m.Stats()
	if s.Requested != 3 || s.Completed != 3 {
		t.Errorf("counts = %d/%d, want 3/3", s.Requested, s.Completed)
	}
	if s.MinMs != 10 || s.MaxMs != 30 || s.LastMs != 20 {
		t.Errorf("min/max/last = %v/%v/%v", s.MinMs, s.MaxMs, s.LastMs)
	}
	if math.Abs(m.Value()-20) > 1e-9 {
		t.Errorf("mean = %v, want 20", m.Value())
	}
}

func TestRenderTimerHistoryWraps(t *testing.T) {
	m := NewRenderTimer(3)
	for i := 1; i <= 5; i++ {
		m.OnRenderComplete(time.Duration(i) * time.Millisecond)
	}
	if got := m.History(); !reflect.DeepEqual(got, []float64{3, 4, 5}) {
		t.Errorf("history = %v, want [3 4 5]", got)
	}

	m.Reset()
	if got := m.History(); len(got) != 0 {
		t.Errorf("history after reset = %v", got)
	}
	if s := m.Stats(); s.Completed != 0 || s.MinMs != 0 {
		t.Errorf("stats after reset = %+v", s)
	}
}

func TestFrameBudget(t *testing.T) {
	b := NewFrameBudget(16 * time.Millisecond)
	b.OnRenderComplete(10 * time.Millisecond)
	b.OnRenderComplete(40 * time.Millisecond)
	b.OnRenderComplete(16 * time.Millisecond)
	b.OnRenderComplete(17 * time.Millisecond)

	if b.Violations() != 2 {
		t.Errorf("violations = %d, want 2", b.Violations())
	}
	if b.Value() != 0.5 {
		t.Errorf("value = %v, want 0.5", b.Value())
	}
	b.Reset()
	if b.Value() != 0 {
		t.Errorf("value after reset = %v", b.Value())
	}
}
