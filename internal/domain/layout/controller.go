package layout

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/animation"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/region"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Config tunes the controller
type Config struct {
	Geometry          Geometry
	AnimationDuration time.Duration
	// DragThreshold is how far below the default top a released drag must
	// be to close the foreground region.
	DragThreshold int
	CornerRadius  float64

	// ForegroundComponents are component patterns that toggle the
	// foreground region when launched twice in a row.
	ForegroundComponents []string
	// IgnoreOpening are component patterns that never open the foreground
	// region.
	IgnoreOpening         []string
	VoiceOverlayComponent types.Component
	ControlBarComponent   types.Component
}

// VisibilityListener receives foreground open/close broadcasts
type VisibilityListener func(types.VisibilityChanged)

// Status is a copy of the controller state for diagnostics
type Status struct {
	State     types.LayoutState `json:"state"`
	Visible   bool              `json:"visible"`
	Animating bool              `json:"animating"`
	Dragging  bool              `json:"dragging"`
	Bounds    Snapshot          `json:"bounds"`
}

// Controller moves the regions between layout states. Not safe for
// concurrent use; lives on the shell executor.
type Controller struct {
	cfg     Config
	org     *region.Organizer
	engine  *animation.Engine
	queue   *transaction.Queue
	logger  *zap.Logger
	metrics *monitoring.Metrics

	snapshots map[types.LayoutState]Snapshot
	listeners []VisibilityListener

	registered      bool
	state           types.LayoutState
	hostingVisible  bool
	foregroundShown bool
	voiceShown      bool
	dragging        bool
	atRest          bool
	foregroundOnTop map[string]bool
}

// NewController creates a controller. Call Register once regions exist.
func NewController(cfg Config, org *region.Organizer, engine *animation.Engine, queue *transaction.Queue, logger *zap.Logger, metrics *monitoring.Metrics) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		cfg:             cfg,
		org:             org,
		engine:          engine,
		queue:           queue,
		logger:          logger,
		metrics:         metrics,
		state:           types.StateControlBar,
		foregroundOnTop: make(map[string]bool),
	}
	for _, pattern := range cfg.ForegroundComponents {
		c.foregroundOnTop[pattern] = false
	}
	c.recompute()
	engine.AddListener(c.onAnimationEvent)
	org.AddObserver(c)
	return c
}

// AddVisibilityListener subscribes to visibility broadcasts
func (c *Controller) AddVisibilityListener(l VisibilityListener) {
	c.listeners = append(c.listeners, l)
}

// Register places every region for CONTROL_BAR in one transaction and hides
// the foreground and voice overlay.
func (c *Controller) Register() {
	c.recompute()
	c.state = types.StateControlBar
	tx := transaction.New()
	c.placeAll(tx)
	c.org.SetVisible(tx, types.RegionForeground, false)
	c.org.SetVisible(tx, types.RegionVoiceOverlay, false)
	c.org.SetVisible(tx, types.RegionTitleBar, true)
	c.org.SetVisible(tx, types.RegionBackground, true)
	c.org.SetVisible(tx, types.RegionControlBar, true)
	c.org.SetVisible(tx, types.RegionIME, true)
	c.queue.Queue(tx)

	c.registered = true
	c.atRest = true
	c.hostingVisible = false
	c.foregroundShown = false
	c.voiceShown = false
	c.logger.Info("Layout registered",
		zap.Int("width", c.cfg.Geometry.Width),
		zap.Int("height", c.cfg.Geometry.Height),
		zap.String("nav", c.cfg.Geometry.NavPosition.String()))
}

// Unregister stops reacting to signals
func (c *Controller) Unregister() {
	c.registered = false
	c.dragging = false
}

// StartAnimation moves the layout toward target. FULL is accepted and
// logged but performs no transition.
func (c *Controller) StartAnimation(target types.LayoutState) {
	from := c.parkedTop()
	if target == types.StateControlBar {
		from = c.defaultTop()
	}
	c.transition(target, from, c.cfg.AnimationDuration)
}

func (c *Controller) transition(target types.LayoutState, from float64, d time.Duration) {
	if !c.registered {
		c.logger.Debug("Ignoring transition before registration", zap.String("to", target.String()))
		return
	}
	c.metrics.RecordTransition(target.String())
	settled := c.state == target && c.atRest

	switch target {
	case types.StateFull:
		c.logger.Info("Full layout requested; not supported, keeping current state",
			zap.String("state", c.state.String()))
		return

	case types.StateDefault:
		if !c.foregroundShown {
			tx := transaction.New()
			c.org.SetVisible(tx, types.RegionForeground, true)
			c.queue.Queue(tx)
			c.foregroundShown = true
		}
		c.state = types.StateDefault
		c.hostingVisible = true
		if !settled {
			c.slide(from, c.defaultTop(), d, animation.DirectionTrigger)
		}

	default:
		c.state = types.StateControlBar
		c.hostingVisible = false
		if !settled {
			c.slide(from, c.parkedTop(), d, animation.DirectionExit)
		}
	}

	c.logger.Debug("Layout transition started", zap.String("to", c.state.String()))
	c.broadcast()
}

// slide animates the foreground and the title bar riding on top of it
func (c *Controller) slide(from, to float64, d time.Duration, dir animation.Direction) {
	c.atRest = false
	display := c.cfg.Geometry.Usable()
	rest := c.snapshots[types.StateDefault]
	title := float64(c.cfg.Geometry.TitleBarHeight)

	if fg, ok := c.org.Lookup(types.RegionForeground); ok && fg.Surface != "" {
		c.engine.Animate(animation.Request{
			Token:     fg.Token,
			Surface:   fg.Surface,
			From:      from,
			To:        to,
			Duration:  d,
			Direction: dir,
			Bounds:    rest.Foreground,
			Display:   display,
			Radius:    c.cfg.CornerRadius,
		})
	}
	if tb, ok := c.org.Lookup(types.RegionTitleBar); ok && tb.Surface != "" {
		c.engine.Animate(animation.Request{
			Token:     tb.Token,
			Surface:   tb.Surface,
			From:      from - title,
			To:        to - title,
			Duration:  d,
			Direction: dir,
			Bounds:    rest.TitleBar,
			Display:   display,
		})
	}
}

// onAnimationEvent commits the non-animated regions for the current state
// once the last animator ends. Cancellation never commits.
func (c *Controller) onAnimationEvent(ev animation.Event) {
	if ev.Kind != animation.EventEnded || c.dragging || !c.registered {
		return
	}
	if c.engine.Running() > 0 {
		return
	}
	c.atRest = true
	tx := transaction.New()
	c.placeStatic(tx, c.snapshots[c.state])
	c.queue.Queue(tx)
	c.logger.Debug("Layout settled", zap.String("state", c.state.String()))
}

// OnTaskEvent opens the foreground region when a task shows up in it
func (c *Controller) OnTaskEvent(ev types.TaskEvent) {
	if !c.registered {
		return
	}
	switch ev.(type) {
	case types.TaskAppeared, types.TaskInfoChanged:
	default:
		return
	}
	task := ev.TaskInfo()
	if !c.isForegroundTask(task) {
		return
	}
	if c.hostingVisible || c.matches(c.cfg.IgnoreOpening, task.BaseIntent.Component) {
		return
	}
	c.StartAnimation(types.StateDefault)
}

// UpdateForegroundVisibility reacts to a component being launched or
// relaunched. Ignored while the foreground is animating or being dragged.
func (c *Controller) UpdateForegroundVisibility(comp types.Component) {
	if !c.registered || comp.IsZero() || c.engine.Running() > 0 || c.dragging {
		return
	}
	if comp == c.cfg.VoiceOverlayComponent {
		c.setVoiceOverlay(true)
		return
	}
	if c.org.IsBackgroundPackage(comp.Package) {
		return
	}
	c.setVoiceOverlay(false)

	key := c.foregroundKey(comp)
	ignored := c.matches(c.cfg.IgnoreOpening, comp)
	if c.hostingVisible {
		if key != "" && c.foregroundOnTop[key] {
			c.StartAnimation(types.StateControlBar)
		}
	} else if !ignored {
		c.StartAnimation(types.StateDefault)
	}

	if ignored || comp == c.cfg.ControlBarComponent {
		return
	}
	for k := range c.foregroundOnTop {
		c.foregroundOnTop[k] = k == key
	}
}

// OnDisplayChanged recomputes bounds for a new screen size and recommits the
// current state.
func (c *Controller) OnDisplayChanged(ev types.DisplayChanged) {
	if ev.Width <= 0 || ev.Height <= 0 {
		return
	}
	g := c.cfg.Geometry
	if g.Width == ev.Width && g.Height == ev.Height {
		return
	}
	g.Width, g.Height = ev.Width, ev.Height
	if err := g.Validate(); err != nil {
		c.logger.Warn("Ignoring display size", zap.Int("width", ev.Width), zap.Int("height", ev.Height), zap.Error(err))
		return
	}
	c.cfg.Geometry = g
	c.recompute()
	if !c.registered {
		return
	}

	for _, rid := range []types.RegionID{types.RegionForeground, types.RegionTitleBar} {
		if r, ok := c.org.Lookup(rid); ok {
			c.engine.Cancel(r.Token)
		}
	}
	tx := transaction.New()
	c.placeAll(tx)
	if c.state == types.StateDefault {
		c.placeSlider(tx, c.defaultTop())
	}
	c.atRest = true
	c.queue.Queue(tx)
	c.logger.Info("Display size changed", zap.Int("width", ev.Width), zap.Int("height", ev.Height))
}

// IsHostingDefaultVisible reports whether the foreground region is open
func (c *Controller) IsHostingDefaultVisible() bool {
	return c.hostingVisible
}

// State returns the current layout state
func (c *Controller) State() types.LayoutState {
	return c.state
}

// Status returns a copy of the controller state
func (c *Controller) Status() Status {
	return Status{
		State:     c.state,
		Visible:   c.hostingVisible,
		Animating: c.engine.Running() > 0,
		Dragging:  c.dragging,
		Bounds:    c.snapshots[c.state],
	}
}

// Bounds returns the precomputed snapshot for a state
func (c *Controller) Bounds(state types.LayoutState) Snapshot {
	return c.snapshots[state]
}

func (c *Controller) recompute() {
	c.snapshots = make(map[types.LayoutState]Snapshot, 3)
	for _, s := range types.AllStates() {
		c.snapshots[s] = ComputeBounds(c.cfg.Geometry, s)
	}
}

// placeAll writes container bounds for every region. The foreground and
// title bar containers keep their DEFAULT size and are moved by position.
func (c *Controller) placeAll(tx *transaction.Transaction) {
	rest := c.snapshots[types.StateDefault]
	c.place(tx, types.RegionForeground, rest.Foreground)
	c.place(tx, types.RegionTitleBar, rest.TitleBar)
	c.placeStatic(tx, c.snapshots[c.state])
	c.placeSlider(tx, c.parkedTop())
}

// placeStatic writes the regions that never animate
func (c *Controller) placeStatic(tx *transaction.Transaction, s Snapshot) {
	c.place(tx, types.RegionBackground, s.Background)
	c.place(tx, types.RegionIME, s.IME)
	c.place(tx, types.RegionControlBar, s.ControlBar)
	c.place(tx, types.RegionVoiceOverlay, s.VoiceOverlay)
}

// placeSlider positions the foreground and title bar surfaces at top
func (c *Controller) placeSlider(tx *transaction.Transaction, top float64) {
	left := float64(c.cfg.Geometry.Usable().Left)
	if fg, ok := c.org.Lookup(types.RegionForeground); ok && fg.Surface != "" {
		tx.SetPosition(fg.Surface, left, top)
	}
	if tb, ok := c.org.Lookup(types.RegionTitleBar); ok && tb.Surface != "" {
		tx.SetPosition(tb.Surface, left, top-float64(c.cfg.Geometry.TitleBarHeight))
	}
}

func (c *Controller) place(tx *transaction.Transaction, rid types.RegionID, r types.Rect) {
	reg, ok := c.org.Lookup(rid)
	if !ok || reg.Surface == "" {
		return
	}
	c.org.SetBounds(tx, rid, r)
	g := c.cfg.Geometry
	tx.SetScreenSizeDp(reg.Token, g.Dp(r.Width()), g.Dp(r.Height()))
	tx.SetPosition(reg.Surface, float64(r.Left), float64(r.Top))
}

func (c *Controller) setVoiceOverlay(shown bool) {
	if c.voiceShown == shown {
		return
	}
	tx := transaction.New()
	c.org.SetVisible(tx, types.RegionVoiceOverlay, shown)
	c.queue.Queue(tx)
	c.voiceShown = shown
}

func (c *Controller) broadcast() {
	ev := types.VisibilityChanged{Visible: c.hostingVisible, State: c.state}
	for _, l := range c.listeners {
		l(ev)
	}
}

func (c *Controller) defaultTop() float64 {
	return float64(c.snapshots[types.StateDefault].Foreground.Top)
}

func (c *Controller) parkedTop() float64 {
	return float64(c.snapshots[types.StateControlBar].Foreground.Top)
}

func (c *Controller) isForegroundTask(task types.TaskInfo) bool {
	return task.Feature == c.org.Feature(types.RegionForeground) ||
		task.Feature == types.FeatureDefaultTaskContainer
}

// foregroundKey returns the configured pattern comp matches, if any
func (c *Controller) foregroundKey(comp types.Component) string {
	for _, pattern := range c.cfg.ForegroundComponents {
		if match(pattern, comp) {
			return pattern
		}
	}
	return ""
}

func (c *Controller) matches(patterns []string, comp types.Component) bool {
	for _, p := range patterns {
		if match(p, comp) {
			return true
		}
	}
	return false
}

// match compares in both the short and the fully qualified component form
func match(pattern string, comp types.Component) bool {
	if ok, _ := doublestar.Match(pattern, comp.String()); ok {
		return true
	}
	ok, _ := doublestar.Match(pattern, comp.Package+"/"+comp.Class)
	return ok
}
