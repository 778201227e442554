package fractal

import (
	"math"
	"sync/atomic"
)

// Params is an ordered set of named float32 parameters. The key set is
// fixed once the descriptor is loaded; values are stored as float32 bits in
// one atomic word per key, so a gesture may write while a draw reads.
// Readers see some recent value per key; there is no cross-key consistency.
type Params struct {
	names []string
	index map[string]int
	vals  []*atomic.Uint32
}

func NewParams() *Params {
	return &Params{index: make(map[string]int)}
}

// put appends or overwrites a parameter. Load time only.
func (p *Params) put(name string, v float32) {
	if i, ok := p.index[name]; ok {
		p.vals[i].Store(math.Float32bits(v))
		return
	}
	u := new(atomic.Uint32)
	u.Store(math.Float32bits(v))
	p.index[name] = len(p.names)
	p.names = append(p.names, name)
	p.vals = append(p.vals, u)
}

func (p *Params) Get(name string) (float32, bool) {
	if p == nil {
		return 0, false
	}
	i, ok := p.index[name]
	if !ok {
		return 0, false
	}
	return math.Float32frombits(p.vals[i].Load()), true
}

// GetOr returns the value of name or def when it is absent.
func (p *Params) GetOr(name string, def float32) float32 {
	if v, ok := p.Get(name); ok {
		return v
	}
	return def
}

// Set stores v under an existing key. Unknown keys are rejected.
func (p *Params) Set(name string, v float32) bool {
	if p == nil {
		return false
	}
	i, ok := p.index[name]
	if !ok {
		return false
	}
	p.vals[i].Store(math.Float32bits(v))
	return true
}

// Update applies fn to the current value of name with a compare-and-swap
// loop, so concurrent updates of the same key are not lost.
func (p *Params) Update(name string, fn func(float32) float32) bool {
	if p == nil {
		return false
	}
	i, ok := p.index[name]
	if !ok {
		return false
	}
	u := p.vals[i]
	for {
		old := u.Load()
		next := math.Float32bits(fn(math.Float32frombits(old)))
		if u.CompareAndSwap(old, next) {
			return true
		}
	}
}

// Names returns the keys in insertion order.
func (p *Params) Names() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Each visits the parameters in insertion order.
func (p *Params) Each(fn func(name string, v float32)) {
	if p == nil {
		return
	}
	for i, n := range p.names {
		fn(n, math.Float32frombits(p.vals[i].Load()))
	}
}

// Snapshot copies the current values.
func (p *Params) Snapshot() map[string]float32 {
	out := make(map[string]float32, p.Len())
	p.Each(func(n string, v float32) { out[n] = v })
	return out
}
