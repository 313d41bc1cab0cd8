package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// ErrUnknownTarget is returned for a launch into a container that does not exist
var ErrUnknownTarget = errors.New("unknown launch target")

// maxReported bounds the tracker history
const maxReported = 256

// Sink receives every event the platform emits
type Sink func(types.Event)

// Options configure the simulated device
type Options struct {
	Features map[types.RegionID]types.FeatureID
	// Extra adds areas beyond one per feature, e.g. a duplicate to exercise
	// ambiguity handling
	Extra     []types.AppearedRegion
	UserID    int
	Width     int
	Height    int
	Installed []string
}

type area struct {
	region types.AppearedRegion
	gone   bool
}

type task struct {
	info    types.TaskInfo
	surface id.SurfaceID
}

// Platform is an in-memory device: screen areas, a task stack, an activity
// starter and a compositor. Safe for concurrent use. Events are delivered to
// the sink outside the platform lock.
type Platform struct {
	logger *zap.Logger

	mu         sync.Mutex
	sink       Sink
	areas      []*area
	organized  map[types.FeatureID]bool
	tasks      map[types.TaskID]*task
	nextTaskID types.TaskID
	installed  map[string]bool
	unlocked   map[int]bool
	user       int
	display    types.DisplayState
	width      int
	height     int
	reported   []types.TaskEvent

	comp *Compositor
}

var (
	_ platform.RegionService   = (*Platform)(nil)
	_ platform.TaskService     = (*Platform)(nil)
	_ platform.ActivityStarter = (*Platform)(nil)
	_ platform.ActivityTracker = (*Platform)(nil)
	_ platform.UserService     = (*Platform)(nil)
	_ platform.DisplayService  = (*Platform)(nil)
)

// New creates a device with one root-attached area per feature plus the
// default task container. The display starts on and the user unlocked.
func New(opts Options, logger *zap.Logger) *Platform {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Features == nil {
		opts.Features = types.DefaultFeatures()
	}
	p := &Platform{
		logger:     logger,
		organized:  make(map[types.FeatureID]bool),
		tasks:      make(map[types.TaskID]*task),
		nextTaskID: 1000,
		unlocked:   map[int]bool{opts.UserID: true},
		user:       opts.UserID,
		display:    types.DisplayOn,
		width:      opts.Width,
		height:     opts.Height,
		comp:       NewCompositor(),
	}
	if len(opts.Installed) > 0 {
		p.installed = make(map[string]bool, len(opts.Installed))
		for _, pkg := range opts.Installed {
			p.installed[pkg] = true
		}
	}

	features := []types.FeatureID{types.FeatureDefaultTaskContainer}
	for _, rid := range types.AllRegions() {
		if f, ok := opts.Features[rid]; ok {
			features = append(features, f)
		}
	}
	for _, f := range features {
		p.areas = append(p.areas, &area{region: types.AppearedRegion{
			Info: types.RegionInfo{
				Feature:     f,
				RootFeature: types.FeatureRoot,
				Token:       id.NewToken(),
			},
			Surface: id.NewSurfaceID(),
		}})
	}
	for _, extra := range opts.Extra {
		p.areas = append(p.areas, &area{region: extra})
	}
	return p
}

// SetSink installs the event receiver. Events emitted before a sink is set
// are dropped.
func (p *Platform) SetSink(s Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = s
}

// Compositor returns the device compositor
func (p *Platform) Compositor() *Compositor { return p.comp }

func (p *Platform) emit(events ...types.Event) {
	p.mu.Lock()
	sink := p.sink
	p.mu.Unlock()
	if sink == nil {
		return
	}
	for _, ev := range events {
		sink(ev)
	}
}

// ============================================================================
// RegionService
// ============================================================================

// RegisterFeature implements platform.RegionService
func (p *Platform) RegisterFeature(ctx context.Context, feature types.FeatureID) ([]types.AppearedRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.organized[feature] = true
	var out []types.AppearedRegion
	for _, a := range p.areas {
		if !a.gone && a.region.Info.Feature == feature {
			out = append(out, a.region)
		}
	}
	return out, nil
}

// UnregisterFeature implements platform.RegionService
func (p *Platform) UnregisterFeature(_ context.Context, feature types.FeatureID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.organized[feature] {
		return fmt.Errorf("feature %d not organized", feature)
	}
	delete(p.organized, feature)
	return nil
}

// VanishArea removes the first area with feature and reports it to the
// organizer when the feature is organized.
func (p *Platform) VanishArea(feature types.FeatureID) bool {
	p.mu.Lock()
	var ev types.Event
	for _, a := range p.areas {
		if a.gone || a.region.Info.Feature != feature {
			continue
		}
		a.gone = true
		if p.organized[feature] {
			ev = types.RegionVanished{Info: a.region.Info}
		}
		break
	}
	p.mu.Unlock()
	if ev == nil {
		return false
	}
	p.emit(ev)
	return true
}

// RestoreArea brings a vanished area back with a fresh token and surface
func (p *Platform) RestoreArea(feature types.FeatureID) bool {
	p.mu.Lock()
	var ev types.Event
	for _, a := range p.areas {
		if !a.gone || a.region.Info.Feature != feature {
			continue
		}
		a.gone = false
		a.region.Info.Token = id.NewToken()
		a.region.Surface = id.NewSurfaceID()
		if p.organized[feature] {
			ev = types.RegionAppeared{Info: a.region.Info, Surface: a.region.Surface}
		}
		break
	}
	p.mu.Unlock()
	if ev == nil {
		return false
	}
	p.emit(ev)
	return true
}

// ============================================================================
// TaskService and ActivityStarter
// ============================================================================

// RegisterTaskOrganizer implements platform.TaskService
func (p *Platform) RegisterTaskOrganizer(ctx context.Context) ([]types.TaskInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.Tasks(), nil
}

// CreateRootTask implements platform.TaskService
func (p *Platform) CreateRootTask(ctx context.Context, target id.Token, cookie id.EmbeddingID) (types.TaskInfo, error) {
	if err := ctx.Err(); err != nil {
		return types.TaskInfo{}, err
	}
	p.mu.Lock()
	feature, ok := p.featureOf(target)
	if !ok {
		p.mu.Unlock()
		return types.TaskInfo{}, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
	t := p.newTask(types.TaskInfo{
		Feature:       feature,
		WindowingMode: types.WindowingMultiWindow,
		LaunchCookie:  cookie,
		ParentTaskID:  types.InvalidTaskID,
	})
	p.mu.Unlock()

	p.emit(types.TaskAppeared{Task: t.info, Surface: t.surface})
	return t.info, nil
}

// RemoveTask implements platform.TaskService
func (p *Platform) RemoveTask(_ context.Context, taskID types.TaskID) error {
	return p.vanish(taskID, types.VanishFinished)
}

// StartActivity implements platform.ActivityStarter. A launch with no
// target lands in the default task container. Launches carrying a cookie
// belong to an embedder and do not report TaskCreated.
func (p *Platform) StartActivity(ctx context.Context, intent types.Intent, opts types.LaunchOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	if p.installed != nil && !p.installed[intent.Component.Package] {
		p.mu.Unlock()
		return fmt.Errorf("%w: %s", platform.ErrActivityNotFound, intent.Component)
	}

	info := types.TaskInfo{
		BaseIntent:    intent,
		BaseActivity:  intent.Component,
		TopActivity:   intent.Component,
		WindowingMode: types.WindowingFullscreen,
		LaunchCookie:  opts.Cookie,
		ParentTaskID:  types.InvalidTaskID,
	}
	switch {
	case opts.Target == "":
		info.Feature = types.FeatureDefaultTaskContainer
	default:
		if feature, ok := p.featureOf(opts.Target); ok {
			info.Feature = feature
			info.WindowingMode = types.WindowingMultiWindow
			break
		}
		parent := p.taskByToken(opts.Target)
		if parent == nil {
			p.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownTarget, opts.Target)
		}
		info.Feature = parent.info.Feature
		info.ParentTaskID = parent.info.TaskID
		info.WindowingMode = types.WindowingMultiWindow
	}
	t := p.newTask(info)
	p.mu.Unlock()

	p.logger.Debug("Activity started",
		zap.String("component", intent.Component.String()),
		zap.Int("task", int(t.info.TaskID)),
		zap.Int("feature", int(t.info.Feature)))
	if opts.Cookie == "" {
		p.emit(types.TaskCreated{TaskID: t.info.TaskID, Component: intent.Component})
	}
	p.emit(types.TaskAppeared{Task: t.info, Surface: t.surface})
	return nil
}

// ReportTaskEvent implements platform.ActivityTracker
func (p *Platform) ReportTaskEvent(ev types.TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reported = append(p.reported, ev)
	if len(p.reported) > maxReported {
		p.reported = p.reported[len(p.reported)-maxReported:]
	}
}

// Reported returns the task events the shell did not claim
func (p *Platform) Reported() []types.TaskEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.TaskEvent(nil), p.reported...)
}

// Tasks returns every live task ordered by id
func (p *Platform) Tasks() []types.TaskInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.TaskInfo, 0, len(p.tasks))
	for _, t := range p.tasks {
		out = append(out, t.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out
}

// Task returns one live task
func (p *Platform) Task(taskID types.TaskID) (types.TaskInfo, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.tasks[taskID]
	if !ok {
		return types.TaskInfo{}, false
	}
	return t.info, true
}

// CrashTask kills a task's process
func (p *Platform) CrashTask(taskID types.TaskID) error {
	return p.vanish(taskID, types.VanishCrashed)
}

// EvictTask removes a task to reclaim memory
func (p *Platform) EvictTask(taskID types.TaskID) error {
	return p.vanish(taskID, types.VanishEvicted)
}

// FocusTask moves focus to a task
func (p *Platform) FocusTask(taskID types.TaskID) {
	p.emit(types.TaskFocusChanged{TaskID: taskID, Focused: true})
}

func (p *Platform) vanish(taskID types.TaskID, reason types.VanishReason) error {
	p.mu.Lock()
	t, ok := p.tasks[taskID]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("%w: %d", platform.ErrUnknownTask, taskID)
	}
	delete(p.tasks, taskID)
	p.mu.Unlock()

	p.emit(types.TaskVanished{Task: t.info, Reason: reason})
	return nil
}

// newTask allocates a task; caller holds mu
func (p *Platform) newTask(info types.TaskInfo) *task {
	p.nextTaskID++
	info.TaskID = p.nextTaskID
	info.Token = id.NewToken()
	info.UserID = p.user
	info.Visible = true
	t := &task{info: info, surface: id.NewSurfaceID()}
	p.tasks[info.TaskID] = t
	return t
}

// featureOf resolves an area token; caller holds mu
func (p *Platform) featureOf(token id.Token) (types.FeatureID, bool) {
	for _, a := range p.areas {
		if !a.gone && a.region.Info.Token == token {
			return a.region.Info.Feature, true
		}
	}
	return 0, false
}

// taskByToken resolves a task container token; caller holds mu
func (p *Platform) taskByToken(token id.Token) *task {
	for _, t := range p.tasks {
		if t.info.Token == token {
			return t
		}
	}
	return nil
}

// ============================================================================
// Users, display and packages
// ============================================================================

// IsUserUnlocked implements platform.UserService
func (p *Platform) IsUserUnlocked(userID int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unlocked[userID]
}

// LockUser marks a user locked without emitting anything
func (p *Platform) LockUser(userID int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unlocked[userID] = false
}

// UnlockUser marks a user unlocked and broadcasts it
func (p *Platform) UnlockUser(userID int) {
	p.mu.Lock()
	p.unlocked[userID] = true
	p.mu.Unlock()
	p.emit(types.UserLifecycle{Kind: types.UserUnlocked, UserID: userID})
}

// SwitchUser makes userID the foreground user
func (p *Platform) SwitchUser(userID int) {
	p.mu.Lock()
	prev := p.user
	p.user = userID
	p.mu.Unlock()
	p.emit(types.UserLifecycle{Kind: types.UserSwitching, UserID: userID, PreviousUserID: prev})
}

// DisplayState implements platform.DisplayService
func (p *Platform) DisplayState() types.DisplayState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.display
}

// SetDisplay changes power state and, when width and height are positive,
// the display size.
func (p *Platform) SetDisplay(state types.DisplayState, width, height int) {
	p.mu.Lock()
	p.display = state
	if width > 0 && height > 0 {
		p.width, p.height = width, height
	}
	ev := types.DisplayChanged{State: state, Width: width, Height: height}
	p.mu.Unlock()
	p.emit(ev)
}

// InstallPackage adds or updates a package
func (p *Platform) InstallPackage(pkg string) {
	p.mu.Lock()
	action := types.PackageAdded
	if p.installed != nil {
		if p.installed[pkg] {
			action = types.PackageReplaced
		}
		p.installed[pkg] = true
	}
	p.mu.Unlock()
	p.emit(types.PackageChanged{Action: action, Package: pkg})
}

// RemovePackage uninstalls a package
func (p *Platform) RemovePackage(pkg string) {
	p.mu.Lock()
	if p.installed != nil {
		delete(p.installed, pkg)
	}
	p.mu.Unlock()
	p.emit(types.PackageChanged{Action: types.PackageRemoved, Package: pkg})
}

// Size returns the current display size
func (p *Platform) Size() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}
