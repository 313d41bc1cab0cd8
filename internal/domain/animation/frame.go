package animation

import (
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
)

// DefaultFrameInterval is roughly 60 frames per second
const DefaultFrameInterval = 16 * time.Millisecond

// FrameLoop posts Engine.Tick onto the shell executor at a fixed interval
// while frames are requested. At most one frame is outstanding.
type FrameLoop struct {
	exec     executor.Executor
	engine   *Engine
	interval time.Duration
	pending  atomic.Bool
}

// NewFrameLoop attaches a frame loop to engine
func NewFrameLoop(exec executor.Executor, engine *Engine, interval time.Duration) *FrameLoop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	f := &FrameLoop{exec: exec, engine: engine, interval: interval}
	engine.SetFrameRequester(f)
	return f
}

// RequestFrame implements FrameRequester
func (f *FrameLoop) RequestFrame() {
	if !f.pending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(f.interval, func() {
		f.exec.Execute(func() {
			f.pending.Store(false)
			f.engine.Tick(f.engine.clock.Now())
		})
	})
}
