package render

import "time"

// Listener observes draw cycles. Both methods fire exactly once per cycle
// that was not dropped.
type Listener interface {
	OnRenderRequested()
	OnRenderComplete(elapsed time.Duration)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Requested func()
	Complete  func(elapsed time.Duration)
}

func (f ListenerFuncs) OnRenderRequested() {
	if f.Requested != nil {
		f.Requested()
	}
}

func (f ListenerFuncs) OnRenderComplete(elapsed time.Duration) {
	if f.Complete != nil {
		f.Complete(elapsed)
	}
}

// Listeners fans one cycle out to several observers in order.
type Listeners []Listener

func (ls Listeners) OnRenderRequested() {
	for _, l := range ls {
		l.OnRenderRequested()
	}
}

func (ls Listeners) OnRenderComplete(elapsed time.Duration) {
	for _, l := range ls {
		l.OnRenderComplete(elapsed)
	}
}
