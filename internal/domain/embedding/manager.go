package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// RegionLookup resolves a region to its live container
type RegionLookup interface {
	Lookup(rid types.RegionID) (types.Region, bool)
}

// Host identifies the shell's own task and user
type Host struct {
	TaskID types.TaskID
	UserID int
}

// Deps are the manager's collaborators. Users and Display may be nil, in
// which case the user counts as unlocked and the display as on.
type Deps struct {
	Regions RegionLookup
	Tasks   platform.TaskService
	Starter platform.ActivityStarter
	Users   platform.UserService
	Display platform.DisplayService
	Queue   *transaction.Queue
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
	// Context scopes platform calls made from event handlers
	Context context.Context
}

// Manager owns every embedded task. Not safe for concurrent use; lives on
// the shell executor.
type Manager struct {
	host    Host
	regions RegionLookup
	tasks   platform.TaskService
	starter platform.ActivityStarter
	users   platform.UserService
	display platform.DisplayService
	queue   *transaction.Queue
	logger  *zap.Logger
	metrics *monitoring.Metrics
	ctx     context.Context

	controlled []*ControlledTask
	launchRoot *LaunchRootTask
	semi       []*SemiControlledTask

	hostVisible bool
	released    bool
}

// NewManager creates a manager with no embedded tasks
func NewManager(host Host, deps Deps) *Manager {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := deps.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Manager{
		host:    host,
		regions: deps.Regions,
		tasks:   deps.Tasks,
		starter: deps.Starter,
		users:   deps.Users,
		display: deps.Display,
		queue:   deps.Queue,
		logger:  logger,
		metrics: deps.Metrics,
		ctx:     ctx,
	}
}

// CleanUpDangling registers for task events and removes embedded tasks left
// over from a previous shell instance. Returns how many were removed.
func (m *Manager) CleanUpDangling(ctx context.Context) (int, error) {
	existing, err := m.tasks.RegisterTaskOrganizer(ctx)
	if err != nil {
		return 0, fmt.Errorf("register task organizer: %w", err)
	}
	removed := 0
	for _, task := range existing {
		if task.WindowingMode != types.WindowingMultiWindow {
			continue
		}
		if err := m.tasks.RemoveTask(ctx, task.TaskID); err != nil {
			m.logger.Warn("Failed to remove dangling task", zap.Int("task", int(task.TaskID)), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("Removed dangling embedded tasks", zap.Int("count", removed))
	}
	return removed, nil
}

// CreateControlledTask embeds a task the shell starts itself. OnCreated is
// posted right away; the first start is attempted next and OnReady follows.
func (m *Manager) CreateControlledTask(exec executor.Executor, opts ControlledOptions, cb Callbacks) (*ControlledTask, error) {
	if m.released {
		return nil, ErrReleased
	}
	if opts.Intent.Component.IsZero() {
		return nil, fmt.Errorf("%w: %q has no component", ErrInvalidOptions, opts.Name)
	}
	if _, err := types.ParseRegionID(string(opts.Region)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	name := opts.Name
	if name == "" {
		name = opts.Intent.Component.String()
	}

	policy := opts.Policy
	if len(opts.DependencyPackages) > 0 {
		policy |= PolicyRestartOnDependencyChange
	}

	t := &ControlledTask{
		embeddedTask: newEmbeddedTask(KindControlled, name, opts.Region, exec, cb),
		intent:       opts.Intent,
		policy:       policy,
		deps:         append([]string(nil), opts.DependencyPackages...),
	}
	m.controlled = append(m.controlled, t)
	m.logger.Info("Controlled task created",
		zap.String("name", name),
		zap.String("id", t.id.String()),
		zap.String("region", opts.Region.String()),
		zap.Stringer("policy", t.policy))

	t.notify(cb.OnCreated, t.snapshot())
	m.start(t, "initial")
	t.notify(cb.OnReady, t.snapshot())
	return t, nil
}

// CreateLaunchRootTask creates the single container task in region that
// other launches are redirected into.
func (m *Manager) CreateLaunchRootTask(exec executor.Executor, rid types.RegionID, cb Callbacks) (*LaunchRootTask, error) {
	if m.released {
		return nil, ErrReleased
	}
	if m.launchRoot != nil {
		return nil, ErrLaunchRootExists
	}
	region, ok := m.regions.Lookup(rid)
	if !ok || region.Token == "" {
		return nil, fmt.Errorf("%w: %s", ErrRegionUnavailable, rid)
	}

	t := &LaunchRootTask{embeddedTask: newEmbeddedTask(KindLaunchRoot, "launch-root", rid, exec, cb)}
	t.notify(cb.OnCreated, t.snapshot())

	info, err := m.tasks.CreateRootTask(m.ctx, region.Token, t.id)
	if err != nil {
		return nil, fmt.Errorf("create launch root: %w", err)
	}
	t.task = info
	t.state = StateRunning
	m.launchRoot = t
	m.logger.Info("Launch root created", zap.String("region", rid.String()), zap.Int("task", int(info.TaskID)))

	t.notify(cb.OnReady, t.snapshot())
	return t, nil
}

// CreateSemiControlledTask claims tasks that appear in the launch root and
// match opts.Match. Earlier registrations win.
func (m *Manager) CreateSemiControlledTask(exec executor.Executor, opts SemiControlledOptions, cb Callbacks) (*SemiControlledTask, error) {
	if m.released {
		return nil, ErrReleased
	}
	if m.launchRoot == nil {
		return nil, ErrNoLaunchRoot
	}
	if opts.Match == nil {
		return nil, fmt.Errorf("%w: %q has no predicate", ErrInvalidOptions, opts.Name)
	}

	t := &SemiControlledTask{
		embeddedTask: newEmbeddedTask(KindSemiControlled, opts.Name, m.launchRoot.region, exec, cb),
		match:        opts.Match,
	}
	m.semi = append(m.semi, t)
	m.logger.Info("Semi-controlled task created", zap.String("name", opts.Name))

	t.notify(cb.OnCreated, t.snapshot())
	t.notify(cb.OnReady, t.snapshot())
	return t, nil
}

// ClaimTask implements region.Claimer
func (m *Manager) ClaimTask(ev types.TaskEvent) bool {
	info := ev.TaskInfo()

	for _, t := range m.controlled {
		if t.owns(info) {
			m.onControlledEvent(t, ev)
			return true
		}
	}

	if root := m.launchRoot; root != nil {
		if root.owns(info) {
			m.onTaskEvent(&root.embeddedTask, ev)
			return true
		}
		if root.hasTask() && info.ParentTaskID == root.task.TaskID {
			for _, t := range m.semi {
				if t.owns(info) || t.match(info) {
					m.onTaskEvent(&t.embeddedTask, ev)
					return true
				}
			}
		}
	}
	return false
}

func (m *Manager) onControlledEvent(t *ControlledTask, ev types.TaskEvent) {
	m.onTaskEvent(&t.embeddedTask, ev)
	if _, ok := ev.(types.TaskVanished); !ok || t.state == StateReleased {
		return
	}
	if !t.policy.Has(PolicyRestartOnCrash) {
		m.logger.Debug("Embedded task down, waiting for a trigger", zap.String("name", t.name))
		return
	}
	m.restart(t, "crash")
}

func (m *Manager) onTaskEvent(t *embeddedTask, ev types.TaskEvent) {
	if t.state == StateReleased {
		return
	}
	switch e := ev.(type) {
	case types.TaskAppeared:
		m.queue.RunInSync(func(tx *transaction.Transaction) {
			t.appeared(tx, e.Task, e.Surface)
		})
		m.logger.Debug("Embedded task appeared", zap.String("name", t.name), zap.Int("task", int(e.Task.TaskID)))
	case types.TaskInfoChanged:
		t.task = e.Task
	case types.TaskVanished:
		t.vanished(e.Task, e.Reason)
		m.logger.Info("Embedded task vanished",
			zap.String("name", t.name),
			zap.Int("task", int(e.Task.TaskID)),
			zap.Stringer("reason", e.Reason))
	}
}

// HandleEvent reacts to the signals that start, show or release embedded
// tasks. Other events are ignored.
func (m *Manager) HandleEvent(ev types.Event) {
	switch e := ev.(type) {
	case types.TaskFocusChanged:
		if e.Focused && e.TaskID == m.host.TaskID {
			m.startAll("host-focused")
		}
	case types.HostLifecycle:
		m.onHostLifecycle(e.Kind)
	case types.UserLifecycle:
		switch {
		case e.Kind == types.UserUnlocked && e.UserID == m.host.UserID:
			m.startAll("user-unlocked")
		case e.Kind == types.UserSwitching && e.PreviousUserID == m.host.UserID:
			m.logger.Info("Switching away from host user", zap.Int("user", e.UserID))
			m.Release()
		}
	case types.ActivityRestartAttempt:
		if e.HomeTaskVisible && e.Task.TaskID == m.host.TaskID {
			m.startAll("restart-attempt")
		}
	case types.PackageChanged:
		m.onPackageChanged(e)
	}
}

func (m *Manager) onHostLifecycle(kind types.HostEventKind) {
	switch kind {
	case types.HostResumed:
		m.hostVisible = true
		m.queue.RunInSync(func(tx *transaction.Transaction) {
			for _, t := range m.controlled {
				t.showEmbedded(tx)
			}
			if m.launchRoot != nil {
				m.launchRoot.showEmbedded(tx)
			}
			for _, t := range m.semi {
				t.showEmbedded(tx)
			}
		})
		m.startAll("host-resumed")
	case types.HostStopped:
		m.hostVisible = false
	case types.HostDestroyed:
		m.hostVisible = false
		m.Release()
	}
}

func (m *Manager) onPackageChanged(e types.PackageChanged) {
	if e.Action == types.PackageRemoved {
		m.logger.Debug("Package removed", zap.String("package", e.Package))
		return
	}
	if !m.hostVisible {
		return
	}
	for _, t := range m.controlled {
		if t.hasTask() || !t.dependsOn(e.Package) {
			continue
		}
		m.logger.Info("Dependency changed, starting embedded task",
			zap.String("name", t.name),
			zap.String("package", e.Package),
			zap.Stringer("action", e.Action))
		m.restart(t, "dependency")
	}
}

// startAll starts every controlled task with no running task
func (m *Manager) startAll(trigger string) {
	for i := len(m.controlled) - 1; i >= 0; i-- {
		t := m.controlled[i]
		if t.hasTask() {
			continue
		}
		m.restart(t, trigger)
	}
}

// restart starts a task again, counting it as a restart once it has run
func (m *Manager) restart(t *ControlledTask, trigger string) {
	if t.state.down() {
		t.state = StateRestartRequested
		t.restarts++
		m.metrics.RecordTaskRestart(t.name, trigger)
	}
	m.start(t, trigger)
}

// start launches a controlled task's intent into its region. Starts that
// cannot happen now are logged and left for the next trigger.
func (m *Manager) start(t *ControlledTask, trigger string) {
	if reason := m.suppressed(t); reason != "" {
		m.metrics.RecordTaskStart(t.name, "suppressed")
		m.logger.Debug("Embedded task start deferred",
			zap.String("name", t.name),
			zap.String("trigger", trigger),
			zap.String("reason", reason))
		return
	}
	region, ok := m.regions.Lookup(t.region)
	if !ok || region.Token == "" {
		m.metrics.RecordTaskStart(t.name, "suppressed")
		m.logger.Debug("Embedded task start deferred",
			zap.String("name", t.name),
			zap.String("trigger", trigger),
			zap.String("reason", "region unavailable"))
		return
	}

	prev := t.state
	if prev != StateRestartRequested {
		t.state = StateStartRequested
	}
	opts := types.LaunchOptions{
		Target:      region.Token,
		Bounds:      region.Bounds,
		Cookie:      t.id,
		NoAnimation: true,
	}
	if err := m.starter.StartActivity(m.ctx, t.intent, opts); err != nil {
		t.state = prev
		m.metrics.RecordTaskStart(t.name, "failed")
		m.logger.Warn("Failed to start embedded task",
			zap.String("name", t.name),
			zap.String("component", t.intent.Component.String()),
			zap.String("trigger", trigger),
			zap.Error(err))
		return
	}
	m.metrics.RecordTaskStart(t.name, "started")
	m.logger.Info("Embedded task start requested",
		zap.String("name", t.name),
		zap.String("trigger", trigger),
		zap.String("region", t.region.String()))
}

func (m *Manager) suppressed(t *ControlledTask) string {
	switch {
	case m.released || t.state == StateReleased:
		return "released"
	case m.users != nil && !m.users.IsUserUnlocked(m.host.UserID):
		return "user locked"
	}
	if m.display != nil {
		switch m.display.DisplayState() {
		case types.DisplayOn:
		case types.DisplayOff:
			return "display off"
		default:
			return "display unavailable"
		}
	}
	return ""
}

// SetInsets records insets for an embedded task and applies them once it
// has a container.
func (m *Manager) SetInsets(embedding id.EmbeddingID, insets types.Rect) error {
	t := m.find(embedding)
	if t == nil {
		return fmt.Errorf("%w: %s", ErrUnknownEmbedding, embedding)
	}
	t.insets = insets
	m.queue.RunInSync(t.applyInsets)
	return nil
}

// Release finishes every embedded task and drops them. Safe to call twice.
func (m *Manager) Release() {
	if m.released {
		return
	}
	m.released = true

	var all []*embeddedTask
	for _, t := range m.controlled {
		all = append(all, &t.embeddedTask)
	}
	for _, t := range m.semi {
		all = append(all, &t.embeddedTask)
	}
	if m.launchRoot != nil {
		all = append(all, &m.launchRoot.embeddedTask)
	}
	for _, t := range all {
		m.release(t)
	}

	m.controlled = nil
	m.semi = nil
	m.launchRoot = nil
	m.logger.Info("Embedded tasks released", zap.Int("count", len(all)))
}

func (m *Manager) release(t *embeddedTask) {
	if t.hasTask() && t.kind != KindSemiControlled {
		if err := m.tasks.RemoveTask(m.ctx, t.task.TaskID); err != nil {
			m.logger.Debug("Embedded task already gone", zap.String("name", t.name), zap.Error(err))
		}
	}
	t.state = StateReleased
	t.task = types.TaskInfo{TaskID: types.InvalidTaskID}
	t.surface = ""
	if cb := t.callbacks.OnReleased; cb != nil {
		t.exec.Execute(cb)
	}
}

// Released reports whether Release has run
func (m *Manager) Released() bool { return m.released }

// HostVisible reports whether the host is between resume and stop
func (m *Manager) HostVisible() bool { return m.hostVisible }

// Tasks returns copies of every embedded task: controlled first, then the
// launch root, then semi-controlled.
func (m *Manager) Tasks() []Snapshot {
	out := make([]Snapshot, 0, len(m.controlled)+len(m.semi)+1)
	for _, t := range m.controlled {
		out = append(out, t.snapshot())
	}
	if m.launchRoot != nil {
		out = append(out, m.launchRoot.snapshot())
	}
	for _, t := range m.semi {
		out = append(out, t.snapshot())
	}
	return out
}

func (m *Manager) find(embedding id.EmbeddingID) *embeddedTask {
	for _, t := range m.controlled {
		if t.id == embedding {
			return &t.embeddedTask
		}
	}
	if m.launchRoot != nil && m.launchRoot.id == embedding {
		return &m.launchRoot.embeddedTask
	}
	for _, t := range m.semi {
		if t.id == embedding {
			return &t.embeddedTask
		}
	}
	return nil
}
