package layout

import (
	"math"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/animation"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// HandleDrag dispatches one point of a title bar drag
func (c *Controller) HandleDrag(ev types.Drag) {
	switch ev.Phase {
	case types.DragStart:
		c.DragStart(ev.Y)
	case types.DragMove:
		c.DragMove(ev.Y)
	case types.DragEnd:
		c.DragEnd(ev.Y)
	}
}

// DragStart begins dragging the open foreground region
func (c *Controller) DragStart(y float64) {
	if !c.registered || !c.hostingVisible {
		return
	}
	c.dragging = true
	c.logger.Debug("Drag started", zap.Float64("y", y))
}

// DragMove follows the pointer. The region never moves above its default top.
func (c *Controller) DragMove(y float64) {
	if !c.dragging || y <= c.defaultTop() {
		return
	}
	c.slide(y, y, 0, animation.DirectionNone)
}

// DragEnd snaps to CONTROL_BAR when the region was pulled down at least the
// threshold, otherwise back to DEFAULT.
func (c *Controller) DragEnd(y float64) {
	if !c.dragging {
		return
	}
	c.dragging = false
	from := math.Max(y, c.defaultTop())
	if from-c.defaultTop() >= float64(c.cfg.DragThreshold) {
		c.transition(types.StateControlBar, from, c.cfg.AnimationDuration)
		return
	}
	c.transition(types.StateDefault, from, c.cfg.AnimationDuration)
}
