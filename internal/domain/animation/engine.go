package animation

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
)

// FrameRequester schedules a future Tick while animators are running
type FrameRequester interface {
	RequestFrame()
}

// Engine owns every region animator. At most one animator exists per region
// token. Not safe for concurrent use; lives on the shell executor.
type Engine struct {
	queue   *transaction.Queue
	clock   Clock
	frames  FrameRequester
	logger  *zap.Logger
	metrics *monitoring.Metrics

	animators map[id.Token]*Animator
	tracked   map[id.Token]id.SurfaceID
	listeners []Listener
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the frame clock
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithMetrics attaches metrics
func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine committing frames through queue
func NewEngine(queue *transaction.Queue, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		queue:     queue,
		clock:     SystemClock{},
		logger:    logger,
		animators: make(map[id.Token]*Animator),
		tracked:   make(map[id.Token]id.SurfaceID),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetFrameRequester attaches the frame scheduler
func (e *Engine) SetFrameRequester(f FrameRequester) {
	e.frames = f
}

// AddListener subscribes to animator events
func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Track records a region surface so ResetOffsets can restore it
func (e *Engine) Track(token id.Token, surface id.SurfaceID) {
	e.tracked[token] = surface
}

// Untrack forgets a region surface and cancels its animator
func (e *Engine) Untrack(token id.Token) {
	e.Cancel(token)
	delete(e.tracked, token)
}

// Animate starts or retargets the animator for req.Token.
//
// A running animator moving in the same direction keeps its start and clock
// and only receives the new end value. A running animator moving the other
// way is canceled and replaced by one that starts from its current value.
// Zero-duration requests jump straight to the end and complete before
// Animate returns.
func (e *Engine) Animate(req Request) State {
	now := e.clock.Now()
	from := req.From

	if prev, ok := e.animators[req.Token]; ok && prev.status == StatusRunning {
		if prev.req.Direction == req.Direction && req.Duration > 0 {
			prev.end = req.To
			e.logger.Debug("Retargeted animator",
				zap.String("token", req.Token.String()),
				zap.Float64("end", req.To))
			return prev.state()
		}
		from = prev.current
		e.cancel(prev)
	}

	a := newAnimator(req, from, now)
	e.animators[req.Token] = a
	e.metrics.RecordAnimation("started", len(e.animators))
	e.logger.Debug("Animator started",
		zap.String("token", req.Token.String()),
		zap.String("direction", req.Direction.String()),
		zap.Float64("from", from),
		zap.Float64("to", req.To),
		zap.Duration("duration", req.Duration))

	// first frame pins the surface at the start position
	tx := transaction.New()
	e.frame(tx, a, from)
	e.queue.Queue(tx)
	e.emit(EventStarted, a)

	if req.Duration <= 0 {
		e.Tick(now)
		return a.state()
	}
	e.requestFrame()
	return a.state()
}

// Tick advances every running animator to now and commits all of their
// frames in one transaction.
func (e *Engine) Tick(now time.Time) {
	if len(e.animators) == 0 {
		return
	}

	tokens := e.sortedTokens()
	tx := transaction.New()
	var updated, finished []*Animator
	for _, tok := range tokens {
		a := e.animators[tok]
		f := a.fraction(now)
		a.current = a.valueAt(f)
		e.frame(tx, a, a.current)
		if f >= 1 {
			a.status = StatusCompleted
			finished = append(finished, a)
			continue
		}
		updated = append(updated, a)
	}
	e.queue.Apply(tx)

	for _, a := range updated {
		e.emit(EventUpdated, a)
	}
	for _, a := range finished {
		// may have been replaced by an earlier listener
		if e.animators[a.req.Token] == a {
			delete(e.animators, a.req.Token)
		}
		e.metrics.RecordAnimation("ended", len(e.animators))
		e.emit(EventEnded, a)
	}

	if len(e.animators) > 0 {
		e.requestFrame()
	}
}

// Cancel stops the animator for token without committing its end value
func (e *Engine) Cancel(token id.Token) {
	if a, ok := e.animators[token]; ok {
		e.cancel(a)
	}
}

// ResetOffsets cancels every animator and restores every tracked surface to
// position zero, no crop and no rounding, in a single transaction.
func (e *Engine) ResetOffsets() {
	for _, tok := range e.sortedTokens() {
		e.cancel(e.animators[tok])
	}

	tx := transaction.New()
	for _, surface := range e.tracked {
		tx.SetPosition(surface, 0, 0).
			ClearCrop(surface).
			ClearCornerRadius(surface)
	}
	e.queue.Apply(tx)
	e.logger.Debug("Offsets reset", zap.Int("surfaces", len(e.tracked)))
}

// Running returns the number of live animators
func (e *Engine) Running() int {
	return len(e.animators)
}

// Active reports whether token has a live animator
func (e *Engine) Active(token id.Token) bool {
	_, ok := e.animators[token]
	return ok
}

// Animator returns a copy of token's animator
func (e *Engine) Animator(token id.Token) (State, bool) {
	a, ok := e.animators[token]
	if !ok {
		return State{}, false
	}
	return a.state(), true
}

// Snapshot returns copies of all live animators in token order
func (e *Engine) Snapshot() []State {
	out := make([]State, 0, len(e.animators))
	for _, tok := range e.sortedTokens() {
		out = append(out, e.animators[tok].state())
	}
	return out
}

func (e *Engine) cancel(a *Animator) {
	a.status = StatusCanceled
	if e.animators[a.req.Token] == a {
		delete(e.animators, a.req.Token)
	}
	e.metrics.RecordAnimation("canceled", len(e.animators))
	e.logger.Debug("Animator canceled",
		zap.String("token", a.req.Token.String()),
		zap.Float64("at", a.current))
	e.emit(EventCanceled, a)
}

// frame writes the surface state for vertical position v
func (e *Engine) frame(tx *transaction.Transaction, a *Animator, v float64) {
	s := a.req.Surface
	tx.SetCrop(s, a.crop(v))
	if a.req.Radius > 0 {
		tx.SetCornerRadius(s, a.req.Radius)
	} else {
		tx.ClearCornerRadius(s)
	}
	tx.SetPosition(s, float64(a.req.Bounds.Left), v)
}

func (e *Engine) emit(kind EventKind, a *Animator) {
	ev := Event{Kind: kind, Animator: a.state()}
	for _, l := range e.listeners {
		l(ev)
	}
}

func (e *Engine) requestFrame() {
	if e.frames != nil {
		e.frames.RequestFrame()
	}
}

func (e *Engine) sortedTokens() []id.Token {
	tokens := make([]id.Token, 0, len(e.animators))
	for tok := range e.animators {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i] < tokens[j] })
	return tokens
}
