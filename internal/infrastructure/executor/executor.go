package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrStopped is returned by Call once the executor no longer runs work
var ErrStopped = errors.New("executor stopped")

// Executor runs closures on some execution context
type Executor interface {
	Execute(fn func())
}

// Func adapts a plain function to Executor
type Func func(fn func())

// Execute implements Executor
func (f Func) Execute(fn func()) { f(fn) }

// Immediate runs every closure inline on the caller's goroutine
type Immediate struct{}

// Execute implements Executor
func (Immediate) Execute(fn func()) { fn() }

// Serial is the shell execution context: one goroutine draining an
// unbounded FIFO. Closures run to completion one at a time, so state owned
// by the shell needs no locks. Closures may enqueue more work on the same
// executor without deadlocking.
type Serial struct {
	logger *zap.Logger

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	stopped bool
	after   []func()

	done chan struct{}
}

// NewSerial creates a stopped-until-Run serial executor
func NewSerial(logger *zap.Logger) *Serial {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Serial{
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// AfterEach registers a hook that runs on the shell context after every
// closure. Hooks are how end-of-dispatch work (queue flushes) is drained.
// Must be called before Run.
func (s *Serial) AfterEach(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.after = append(s.after, fn)
}

// Execute enqueues fn. Work submitted after Stop is dropped.
func (s *Serial) Execute(fn func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Debug("Dropping work submitted after stop")
		return
	}
	s.pending = append(s.pending, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Call runs fn on the shell context and waits for it to finish
func (s *Serial) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.mu.Unlock()

	s.Execute(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-s.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains work until ctx is canceled or Stop is called
func (s *Serial) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		batch := s.take()
		for _, fn := range batch {
			s.run(fn)
		}
		if len(batch) > 0 {
			continue
		}

		s.mu.Lock()
		stopped := s.stopped
		s.mu.Unlock()
		if stopped {
			return nil
		}

		select {
		case <-ctx.Done():
			s.Stop()
			// drain whatever was queued before cancellation
			for _, fn := range s.take() {
				s.run(fn)
			}
			return ctx.Err()
		case <-s.wake:
		}
	}
}

// Stop prevents new work from being accepted. Already queued work still runs.
func (s *Serial) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Done is closed once Run returns
func (s *Serial) Done() <-chan struct{} {
	return s.done
}

func (s *Serial) take() []func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.pending
	s.pending = nil
	return batch
}

// run executes one closure plus the after-hooks
func (s *Serial) run(fn func()) {
	s.protect(fn)
	for _, hook := range s.after {
		s.protect(hook)
	}
}

// protect keeps a panic from escaping the shell context
func (s *Serial) protect(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered panic on shell executor", zap.String("panic", fmt.Sprint(r)), zap.Stack("stack"))
		}
	}()
	fn()
}
