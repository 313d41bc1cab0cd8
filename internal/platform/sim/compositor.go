package sim

import (
	"fmt"
	"sync"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// SurfaceState is the composited state of one surface
type SurfaceState struct {
	X       float64    `json:"x"`
	Y       float64    `json:"y"`
	Crop    types.Rect `json:"crop"`
	Cropped bool       `json:"cropped"`
	Radius  float64    `json:"radius"`
	Layer   int        `json:"layer"`
	Visible bool       `json:"visible"`
}

// ContainerState is the configuration of one window container
type ContainerState struct {
	Bounds         types.Rect `json:"bounds"`
	ScreenWidthDp  int        `json:"screen_width_dp"`
	ScreenHeightDp int        `json:"screen_height_dp"`
	Hidden         bool       `json:"hidden"`
	OnTop          bool       `json:"on_top"`
	Insets         types.Rect `json:"insets"`
}

// Compositor applies transactions to in-memory surface and container state.
// A transaction is validated first and then applied whole, so a rejected
// batch leaves no trace.
type Compositor struct {
	mu         sync.RWMutex
	surfaces   map[id.SurfaceID]*SurfaceState
	containers map[id.Token]*ContainerState
	frames     int
	fail       error
}

var _ transaction.Compositor = (*Compositor)(nil)

// NewCompositor creates an empty compositor
func NewCompositor() *Compositor {
	return &Compositor{
		surfaces:   make(map[id.SurfaceID]*SurfaceState),
		containers: make(map[id.Token]*ContainerState),
	}
}

// FailNext makes the next Apply return err without applying anything
func (c *Compositor) FailNext(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

// Apply implements transaction.Compositor
func (c *Compositor) Apply(tx *transaction.Transaction) error {
	ops := tx.Ops()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.fail; err != nil {
		c.fail = nil
		return err
	}
	for _, op := range ops {
		if op.Target() == "" {
			return fmt.Errorf("%s op without target", op.Kind)
		}
	}

	for _, op := range ops {
		if op.Kind.IsSurface() {
			c.applySurface(op)
		} else {
			c.applyContainer(op)
		}
	}
	c.frames++
	return nil
}

func (c *Compositor) applySurface(op transaction.Op) {
	s, ok := c.surfaces[op.Surface]
	if !ok {
		s = &SurfaceState{}
		c.surfaces[op.Surface] = s
	}
	switch op.Kind {
	case transaction.KindPosition:
		s.X, s.Y = op.X, op.Y
	case transaction.KindCrop:
		s.Crop = op.Rect
		s.Cropped = !op.Clear
	case transaction.KindCornerRadius:
		s.Radius = op.Radius
		if op.Clear {
			s.Radius = 0
		}
	case transaction.KindLayer:
		s.Layer = op.Layer
	case transaction.KindVisibility:
		s.Visible = op.Flag
	}
}

func (c *Compositor) applyContainer(op transaction.Op) {
	s, ok := c.containers[op.Container]
	if !ok {
		s = &ContainerState{}
		c.containers[op.Container] = s
	}
	switch op.Kind {
	case transaction.KindBounds:
		s.Bounds = op.Rect
	case transaction.KindScreenSizeDp:
		s.ScreenWidthDp, s.ScreenHeightDp = op.Width, op.Height
	case transaction.KindHidden:
		s.Hidden = op.Flag
	case transaction.KindReorder:
		s.OnTop = op.Flag
	case transaction.KindInsets:
		s.Insets = op.Rect
	}
}

// Surface returns a copy of a surface's state
func (c *Compositor) Surface(s id.SurfaceID) (SurfaceState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.surfaces[s]
	if !ok {
		return SurfaceState{}, false
	}
	return *st, true
}

// Container returns a copy of a container's state
func (c *Compositor) Container(t id.Token) (ContainerState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.containers[t]
	if !ok {
		return ContainerState{}, false
	}
	return *st, true
}

// Frames returns how many transactions were committed
func (c *Compositor) Frames() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frames
}
