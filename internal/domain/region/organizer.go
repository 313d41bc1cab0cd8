package region

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/animation"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Claimer takes ownership of task events for tasks it embeds. ClaimTask
// returns false for tasks it does not own.
type Claimer interface {
	ClaimTask(ev types.TaskEvent) bool
}

// TaskObserver is notified of task events nobody claimed
type TaskObserver interface {
	OnTaskEvent(ev types.TaskEvent)
}

// Config holds the region tables
type Config struct {
	Features map[types.RegionID]types.FeatureID
	Layers   map[types.RegionID]int

	// AutoStart is launched into AutoStartRegion each time that region appears
	AutoStartRegion types.RegionID
	AutoStartIntent types.Intent

	// BackgroundPackages are package patterns that always run in the
	// background region
	BackgroundPackages []string
}

// DefaultConfig returns the stock feature and layer tables
func DefaultConfig() Config {
	return Config{
		Features:        types.DefaultFeatures(),
		Layers:          types.DefaultLayers(),
		AutoStartRegion: types.RegionBackground,
	}
}

// Deps are the organizer's collaborators
type Deps struct {
	Regions platform.RegionService
	Starter platform.ActivityStarter
	Tracker platform.ActivityTracker
	Engine  *animation.Engine
	Queue   *transaction.Queue
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	// Context scopes platform calls made from event handlers
	Context context.Context
}

type entry struct {
	id         types.RegionID
	feature    types.FeatureID
	info       types.RegionInfo
	surface    id.SurfaceID
	live       bool
	bounds     types.Rect
	visible    bool
	autoLaunch bool
}

// Organizer owns the set of registered regions. At most one live entry exists
// per region identifier. Not safe for concurrent use; lives on the shell
// executor.
type Organizer struct {
	cfg     Config
	regions platform.RegionService
	starter platform.ActivityStarter
	tracker platform.ActivityTracker
	engine  *animation.Engine
	queue   *transaction.Queue
	logger  *zap.Logger
	metrics *monitoring.Metrics
	ctx     context.Context

	entries   map[types.RegionID]*entry
	byFeature map[types.FeatureID]types.RegionID
	claimers  []Claimer
	observers []TaskObserver

	unregistering bool
}

// NewOrganizer creates an organizer with no registered regions
func NewOrganizer(cfg Config, deps Deps) *Organizer {
	if cfg.Features == nil {
		cfg.Features = types.DefaultFeatures()
	}
	if cfg.Layers == nil {
		cfg.Layers = types.DefaultLayers()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Organizer{
		cfg:       cfg,
		regions:   deps.Regions,
		starter:   deps.Starter,
		tracker:   deps.Tracker,
		engine:    deps.Engine,
		queue:     deps.Queue,
		logger:    logger,
		metrics:   deps.Metrics,
		ctx:       ctx,
		entries:   make(map[types.RegionID]*entry),
		byFeature: make(map[types.FeatureID]types.RegionID),
	}
}

// AddClaimer appends a task claimer. Claimers are consulted in the order
// they were added.
func (o *Organizer) AddClaimer(c Claimer) {
	o.claimers = append(o.claimers, c)
}

// AddObserver subscribes to unclaimed task events
func (o *Organizer) AddObserver(obs TaskObserver) {
	o.observers = append(o.observers, obs)
}

// RegisterRegion starts organizing a region. Registering an already
// registered region returns the existing entry.
func (o *Organizer) RegisterRegion(ctx context.Context, rid types.RegionID) (types.Region, error) {
	if e, ok := o.entries[rid]; ok {
		return o.snapshot(e), nil
	}
	feature, ok := o.cfg.Features[rid]
	if !ok {
		return types.Region{}, fmt.Errorf("%w: %s", ErrUnknownRegion, rid)
	}

	appeared, err := o.regions.RegisterFeature(ctx, feature)
	if err != nil {
		return types.Region{}, fmt.Errorf("register %s: %w", rid, err)
	}

	var match []types.AppearedRegion
	for _, a := range appeared {
		if a.Info.Feature != feature {
			continue
		}
		// the input method area exists once per display hierarchy; only the
		// root one is ours
		if !rid.Required() && a.Info.RootFeature != types.FeatureRoot {
			continue
		}
		match = append(match, a)
	}

	if rid.Required() {
		switch {
		case len(match) == 0:
			o.releaseFeature(ctx, feature)
			return types.Region{}, fmt.Errorf("%w: %s (feature %d)", ErrRegionNotFound, rid, feature)
		case len(match) > 1:
			o.releaseFeature(ctx, feature)
			return types.Region{}, fmt.Errorf("%w: %s has %d areas", ErrAmbiguousRegion, rid, len(match))
		}
	}

	e := &entry{id: rid, feature: feature}
	o.entries[rid] = e
	o.byFeature[feature] = rid
	o.metrics.RecordRegionEvent(rid.String(), "registered")
	o.logger.Info("Region registered", zap.String("region", rid.String()), zap.Int("feature", int(feature)))

	if len(match) > 0 {
		o.OnRegionAppeared(match[0].Info, match[0].Surface)
	} else {
		o.logger.Warn("Optional region has no root area", zap.String("region", rid.String()))
	}
	return o.snapshot(e), nil
}

// HandleRegionEvent is the tagged entry point for platform area events
func (o *Organizer) HandleRegionEvent(ev types.RegionEvent) {
	switch e := ev.(type) {
	case types.RegionAppeared:
		o.OnRegionAppeared(e.Info, e.Surface)
	case types.RegionVanished:
		o.OnRegionVanished(e.Info)
	}
}

// OnRegionAppeared binds a platform area to its registered region
func (o *Organizer) OnRegionAppeared(info types.RegionInfo, surface id.SurfaceID) {
	rid, ok := o.byFeature[info.Feature]
	if !ok {
		o.logger.Debug("Ignoring area for unregistered feature", zap.Int("feature", int(info.Feature)))
		return
	}
	e := o.entries[rid]
	if !rid.Required() && info.RootFeature != types.FeatureRoot {
		return
	}

	if e.live && e.info.Token != info.Token {
		o.engine.Untrack(e.info.Token)
	}
	e.info = info
	e.surface = surface
	e.live = true

	layer := o.cfg.Layers[rid]
	o.queue.Queue(transaction.New().SetLayer(surface, layer))
	o.engine.Track(info.Token, surface)

	o.metrics.RecordRegionEvent(rid.String(), "appeared")
	o.metrics.SetRegionLayer(rid.String(), layer)
	o.metrics.SetRegionsLive(o.liveCount())
	o.logger.Debug("Region appeared",
		zap.String("region", rid.String()),
		zap.String("token", info.Token.String()),
		zap.Int("layer", layer))

	if rid == o.cfg.AutoStartRegion && !e.autoLaunch && !o.cfg.AutoStartIntent.Component.IsZero() {
		e.autoLaunch = true
		o.launchInto(o.cfg.AutoStartIntent, e)
	}
}

// OnRegionVanished drops a region's surface binding. Vanish events that
// arrive while unregistering, or for areas never registered, are ignored.
func (o *Organizer) OnRegionVanished(info types.RegionInfo) {
	if o.unregistering {
		return
	}
	rid, ok := o.byFeature[info.Feature]
	if !ok {
		return
	}
	e := o.entries[rid]
	if !e.live || e.info.Token != info.Token {
		return
	}

	o.engine.Untrack(info.Token)
	e.live = false
	e.surface = ""
	e.visible = false
	e.autoLaunch = false

	o.metrics.RecordRegionEvent(rid.String(), "vanished")
	o.metrics.SetRegionsLive(o.liveCount())
	o.logger.Info("Region vanished", zap.String("region", rid.String()))
}

// Unregister resets every region surface and releases all platform
// registrations. Safe to call twice.
func (o *Organizer) Unregister(ctx context.Context) {
	if o.unregistering || len(o.entries) == 0 {
		return
	}
	o.unregistering = true
	defer func() { o.unregistering = false }()

	o.engine.ResetOffsets()
	for _, rid := range types.AllRegions() {
		e, ok := o.entries[rid]
		if !ok {
			continue
		}
		if e.live {
			o.engine.Untrack(e.info.Token)
		}
		o.releaseFeature(ctx, e.feature)
	}
	o.entries = make(map[types.RegionID]*entry)
	o.byFeature = make(map[types.FeatureID]types.RegionID)
	o.metrics.SetRegionsLive(0)
	o.logger.Info("Regions unregistered")
}

// HandleTaskEvent routes a task event to the first claimer that owns the
// task. Unclaimed events get the default policy: the surface is shown, the
// activity tracker is informed and observers are notified.
func (o *Organizer) HandleTaskEvent(ev types.TaskEvent) {
	for _, c := range o.claimers {
		if c.ClaimTask(ev) {
			return
		}
	}

	task := ev.TaskInfo()
	if appeared, ok := ev.(types.TaskAppeared); ok {
		if appeared.Surface != "" {
			o.queue.Queue(transaction.New().Show(appeared.Surface))
		}
		if o.RedirectToBackground(task) {
			return
		}
	}

	if o.tracker != nil {
		o.tracker.ReportTaskEvent(ev)
	}
	for _, obs := range o.observers {
		obs.OnTaskEvent(ev)
	}
}

// RedirectToBackground relaunches a task whose package belongs in the
// background region. Returns true when a relaunch was issued.
func (o *Organizer) RedirectToBackground(task types.TaskInfo) bool {
	pkg := task.BaseActivity.Package
	if pkg == "" || !o.IsBackgroundPackage(pkg) {
		return false
	}
	e, ok := o.entries[types.RegionBackground]
	if !ok || !e.live || task.Feature == e.feature {
		return false
	}
	o.logger.Info("Redirecting task to background region",
		zap.Int("task", int(task.TaskID)),
		zap.String("package", pkg))
	o.launchInto(task.BaseIntent, e)
	return true
}

// IsBackgroundPackage matches pkg against the background package patterns
func (o *Organizer) IsBackgroundPackage(pkg string) bool {
	for _, pattern := range o.cfg.BackgroundPackages {
		if ok, _ := doublestar.Match(pattern, pkg); ok {
			return true
		}
	}
	return false
}

// Lookup returns a snapshot of a registered region
func (o *Organizer) Lookup(rid types.RegionID) (types.Region, bool) {
	e, ok := o.entries[rid]
	if !ok {
		return types.Region{}, false
	}
	return o.snapshot(e), true
}

// Live reports whether a region is registered and has a surface
func (o *Organizer) Live(rid types.RegionID) bool {
	e, ok := o.entries[rid]
	return ok && e.live
}

// Feature returns the platform feature id configured for a region
func (o *Organizer) Feature(rid types.RegionID) types.FeatureID {
	return o.cfg.Features[rid]
}

// SetBounds records new bounds for a region and writes them into tx
func (o *Organizer) SetBounds(tx *transaction.Transaction, rid types.RegionID, r types.Rect) {
	e, ok := o.entries[rid]
	if !ok || !e.live {
		return
	}
	e.bounds = r
	tx.SetBounds(e.info.Token, r)
}

// SetVisible records a region's visibility and writes it into tx
func (o *Organizer) SetVisible(tx *transaction.Transaction, rid types.RegionID, visible bool) {
	e, ok := o.entries[rid]
	if !ok || !e.live {
		return
	}
	e.visible = visible
	if visible {
		tx.Show(e.surface)
	} else {
		tx.Hide(e.surface)
	}
}

// Regions returns copies of every registered region in registration order
func (o *Organizer) Regions() []types.Region {
	out := make([]types.Region, 0, len(o.entries))
	for _, rid := range types.AllRegions() {
		if e, ok := o.entries[rid]; ok {
			out = append(out, o.snapshot(e))
		}
	}
	return out
}

func (o *Organizer) snapshot(e *entry) types.Region {
	r := types.Region{
		ID:      e.id,
		Bounds:  e.bounds,
		Visible: e.visible,
	}
	if e.live {
		r.Token = e.info.Token
		r.Surface = e.surface
		r.Layer = o.cfg.Layers[e.id]
	}
	return r
}

func (o *Organizer) launchInto(intent types.Intent, e *entry) {
	opts := types.LaunchOptions{Target: e.info.Token, NoAnimation: true}
	if err := o.starter.StartActivity(o.ctx, intent, opts); err != nil {
		o.logger.Warn("Failed to launch into region",
			zap.String("region", e.id.String()),
			zap.String("component", intent.Component.String()),
			zap.Error(err))
	}
}

func (o *Organizer) releaseFeature(ctx context.Context, feature types.FeatureID) {
	if err := o.regions.UnregisterFeature(ctx, feature); err != nil {
		o.logger.Debug("Feature already released", zap.Int("feature", int(feature)), zap.Error(err))
	}
}

func (o *Organizer) liveCount() int {
	n := 0
	for _, e := range o.entries {
		if e.live {
			n++
		}
	}
	return n
}
