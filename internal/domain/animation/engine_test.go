package animation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recorder struct{ batches [][]transaction.Op }

func (r *recorder) Apply(tx *transaction.Transaction) error {
	r.batches = append(r.batches, tx.Ops())
	return nil
}

func (r *recorder) last() []transaction.Op {
	if len(r.batches) == 0 {
		return nil
	}
	return r.batches[len(r.batches)-1]
}

type fixture struct {
	engine *Engine
	queue  *transaction.Queue
	rec    *recorder
	clock  *fakeClock
	events []Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{rec: &recorder{}, clock: &fakeClock{now: time.Unix(1000, 0)}}
	f.queue = transaction.NewQueue(f.rec, zap.NewNop(), nil)
	f.engine = NewEngine(f.queue, zap.NewNop(), WithClock(f.clock))
	f.engine.AddListener(func(ev Event) { f.events = append(f.events, ev) })
	return f
}

func (f *fixture) kinds() []EventKind {
	out := make([]EventKind, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Kind)
	}
	return out
}

func slide(tok id.Token, from, to float64, dir Direction) Request {
	return Request{
		Token:     tok,
		Surface:   id.SurfaceID("srf_" + string(tok)),
		From:      from,
		To:        to,
		Duration:  300 * time.Millisecond,
		Direction: dir,
		Bounds:    types.NewRect(0, 0, 800, 200),
	}
}

func TestEaseCurve(t *testing.T) {
	assert.InDelta(t, 0, Ease(0), 1e-9)
	assert.InDelta(t, 1, Ease(1), 1e-3)

	prev := Ease(0)
	for i := 1; i <= 100; i++ {
		v := Ease(float64(i) / 100)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestAnimateRunsToCompletion(t *testing.T) {
	f := newFixture(t)

	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	require.True(t, f.engine.Active("fg"))

	f.clock.Advance(150 * time.Millisecond)
	f.engine.Tick(f.clock.Now())
	st, ok := f.engine.Animator("fg")
	require.True(t, ok)
	assert.Less(t, st.Current, 480.0)
	assert.Greater(t, st.Current, 80.0)

	f.clock.Advance(150 * time.Millisecond)
	f.engine.Tick(f.clock.Now())
	assert.False(t, f.engine.Active("fg"))
	assert.Zero(t, f.engine.Running())
	assert.Equal(t, []EventKind{EventStarted, EventUpdated, EventEnded}, f.kinds())
	assert.Equal(t, 80.0, f.events[2].Animator.Current)

	var final transaction.Op
	for _, op := range f.rec.last() {
		if op.Kind == transaction.KindPosition {
			final = op
		}
	}
	assert.Equal(t, 80.0, final.Y)
}

func TestSameDirectionRetargetsInPlace(t *testing.T) {
	f := newFixture(t)

	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	f.clock.Advance(100 * time.Millisecond)
	f.engine.Animate(slide("fg", 480, 60, DirectionTrigger))

	assert.Equal(t, 1, f.engine.Running())
	st, _ := f.engine.Animator("fg")
	assert.Equal(t, 480.0, st.Start)
	assert.Equal(t, 60.0, st.End)
	assert.Equal(t, []EventKind{EventStarted}, f.kinds(), "retarget must not restart")
}

func TestOppositeDirectionReplacesFromCurrent(t *testing.T) {
	f := newFixture(t)

	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	f.clock.Advance(100 * time.Millisecond)
	f.engine.Tick(f.clock.Now())
	mid, _ := f.engine.Animator("fg")

	f.engine.Animate(slide("fg", 80, 480, DirectionExit))

	assert.Equal(t, 1, f.engine.Running())
	st, _ := f.engine.Animator("fg")
	assert.Equal(t, mid.Current, st.Start)
	assert.Equal(t, DirectionExit, st.Direction)
	assert.Equal(t, []EventKind{EventStarted, EventUpdated, EventCanceled, EventStarted}, f.kinds())
}

func TestZeroDurationCompletesSynchronously(t *testing.T) {
	f := newFixture(t)

	req := slide("fg", 480, 300, DirectionNone)
	req.Duration = 0
	f.engine.Animate(req)

	assert.Zero(t, f.engine.Running())
	assert.Equal(t, []EventKind{EventStarted, EventEnded}, f.kinds())
	require.Len(t, f.rec.batches, 1, "start frame and end frame share one commit")
}

func TestEndedRemovesAnimatorBeforeListeners(t *testing.T) {
	f := newFixture(t)
	var activeAtEnd, runningAtEnd = true, -1
	f.engine.AddListener(func(ev Event) {
		if ev.Kind == EventEnded {
			activeAtEnd = f.engine.Active(ev.Animator.Token)
			runningAtEnd = f.engine.Running()
		}
	})

	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	f.clock.Advance(time.Second)
	f.engine.Tick(f.clock.Now())

	assert.False(t, activeAtEnd)
	assert.Zero(t, runningAtEnd)
}

func TestTickCommitsAllAnimatorsTogether(t *testing.T) {
	f := newFixture(t)
	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	f.engine.Animate(slide("tb", 440, 40, DirectionTrigger))
	f.queue.Flush()
	before := len(f.rec.batches)

	f.clock.Advance(50 * time.Millisecond)
	f.engine.Tick(f.clock.Now())

	require.Len(t, f.rec.batches, before+1)
	targets := map[string]bool{}
	for _, op := range f.rec.last() {
		targets[op.Target()] = true
	}
	assert.True(t, targets["srf_fg"])
	assert.True(t, targets["srf_tb"])
}

func TestResetOffsetsCancelsAndRestoresIdentity(t *testing.T) {
	f := newFixture(t)
	f.engine.Track("fg", "srf_fg")
	f.engine.Track("tb", "srf_tb")
	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	f.engine.Animate(slide("tb", 440, 40, DirectionTrigger))
	f.clock.Advance(50 * time.Millisecond)
	f.engine.Tick(f.clock.Now())
	f.events = nil
	before := len(f.rec.batches)

	f.engine.ResetOffsets()

	assert.Zero(t, f.engine.Running())
	assert.Equal(t, []EventKind{EventCanceled, EventCanceled}, f.kinds())
	require.Len(t, f.rec.batches, before+1, "identity restored in one transaction")

	for _, op := range f.rec.last() {
		switch op.Kind {
		case transaction.KindPosition:
			assert.Zero(t, op.X)
			assert.Zero(t, op.Y)
		case transaction.KindCrop, transaction.KindCornerRadius:
			assert.True(t, op.Clear)
		}
	}
	assert.Len(t, f.rec.last(), 6)
}

func TestCropClippedToDisplay(t *testing.T) {
	a := newAnimator(Request{
		Bounds:  types.NewRect(0, 200, 800, 400),
		Display: types.NewRect(0, 0, 800, 480),
	}, 0, time.Now())

	assert.Equal(t, types.NewRect(0, 0, 800, 200), a.crop(100))
	assert.Equal(t, types.NewRect(0, 0, 800, 50), a.crop(430))
	assert.Equal(t, types.Rect{}, a.crop(600))
}

func TestCancelDoesNotCommitEnd(t *testing.T) {
	f := newFixture(t)
	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	f.queue.Flush()
	before := len(f.rec.batches)

	f.engine.Cancel("fg")

	assert.False(t, f.engine.Active("fg"))
	assert.Len(t, f.rec.batches, before)
	assert.Equal(t, EventCanceled, f.events[len(f.events)-1].Kind)
}

type countingFrames struct{ n int }

func (c *countingFrames) RequestFrame() { c.n++ }

func TestFramesRequestedWhileRunning(t *testing.T) {
	f := newFixture(t)
	frames := &countingFrames{}
	f.engine.SetFrameRequester(frames)

	f.engine.Animate(slide("fg", 480, 80, DirectionTrigger))
	assert.Equal(t, 1, frames.n)

	f.clock.Advance(100 * time.Millisecond)
	f.engine.Tick(f.clock.Now())
	assert.Equal(t, 2, frames.n)

	f.clock.Advance(time.Second)
	f.engine.Tick(f.clock.Now())
	assert.Equal(t, 2, frames.n, "no frames after the last animator ends")
}
