package animation

import (
	"math"
	"time"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Direction tells listeners which way a region is moving
type Direction int

const (
	DirectionNone Direction = iota
	// DirectionTrigger opens a region
	DirectionTrigger
	// DirectionExit closes a region
	DirectionExit
)

// String returns the string representation of the direction
func (d Direction) String() string {
	switch d {
	case DirectionTrigger:
		return "trigger"
	case DirectionExit:
		return "exit"
	default:
		return "none"
	}
}

// Status of an animator
type Status int

const (
	StatusRunning Status = iota
	StatusCanceled
	StatusCompleted
)

// String returns the string representation of the status
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusCanceled:
		return "canceled"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Request describes one vertical slide of a region surface
type Request struct {
	Token     id.Token
	Surface   id.SurfaceID
	From      float64
	To        float64
	Duration  time.Duration
	Direction Direction

	// Bounds is the region's rest rectangle; only its size and left edge are
	// used while animating.
	Bounds types.Rect
	// Display clips the visible part of the surface. Empty means no clipping.
	Display types.Rect
	// Radius rounds the corners while moving; zero disables rounding.
	Radius float64
}

// Animator drives one region surface between two vertical positions
type Animator struct {
	req       Request
	start     float64
	end       float64
	current   float64
	startedAt time.Time
	status    Status
}

func newAnimator(req Request, from float64, now time.Time) *Animator {
	return &Animator{
		req:       req,
		start:     from,
		end:       req.To,
		current:   from,
		startedAt: now,
		status:    StatusRunning,
	}
}

// State is a copy of an animator for diagnostics and listeners
type State struct {
	Token     id.Token      `json:"token"`
	Surface   id.SurfaceID  `json:"surface"`
	Direction Direction     `json:"direction"`
	Start     float64       `json:"start"`
	End       float64       `json:"end"`
	Current   float64       `json:"current"`
	Duration  time.Duration `json:"duration"`
	Status    Status        `json:"status"`
}

func (a *Animator) state() State {
	return State{
		Token:     a.req.Token,
		Surface:   a.req.Surface,
		Direction: a.req.Direction,
		Start:     a.start,
		End:       a.end,
		Current:   a.current,
		Duration:  a.req.Duration,
		Status:    a.status,
	}
}

// fraction returns elapsed/duration clamped to [0, 1]
func (a *Animator) fraction(now time.Time) float64 {
	if a.req.Duration <= 0 {
		return 1
	}
	f := float64(now.Sub(a.startedAt)) / float64(a.req.Duration)
	return math.Max(0, math.Min(1, f))
}

// valueAt returns the eased position for a fraction. The final frame lands
// exactly on the end value.
func (a *Animator) valueAt(f float64) float64 {
	if f >= 1 {
		return a.end
	}
	return math.Round(lerp(a.start, a.end, Ease(f)))
}

// crop returns the visible part of the surface at vertical position v, in
// surface coordinates. Always derived from the rest bounds, never from the
// previous frame.
func (a *Animator) crop(v float64) types.Rect {
	b := a.req.Bounds
	local := types.NewRect(0, 0, b.Width(), b.Height())
	if a.req.Display.Empty() {
		return local
	}
	top := int(math.Round(v))
	onScreen := types.NewRect(b.Left, top, b.Right, top+b.Height())
	visible, ok := onScreen.Intersect(a.req.Display)
	if !ok {
		return types.Rect{}
	}
	return visible.Offset(-b.Left, -top)
}
