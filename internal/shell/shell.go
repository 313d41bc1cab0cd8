package shell

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/animation"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/embedding"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/region"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Platform bundles the external collaborators
type Platform struct {
	Regions    platform.RegionService
	Tasks      platform.TaskService
	Starter    platform.ActivityStarter
	Tracker    platform.ActivityTracker
	Users      platform.UserService
	Display    platform.DisplayService
	Compositor transaction.Compositor
}

// Options configure the shell components
type Options struct {
	Regions       region.Config
	Layout        layout.Config
	Host          embedding.Host
	FrameInterval time.Duration

	Controlled       []embedding.ControlledOptions
	LaunchRootRegion types.RegionID
	SemiControlled   []embedding.SemiControlledOptions

	// Clock drives animations; nil means the system clock
	Clock animation.Clock
}

// Snapshot is a copy of all shell state for diagnostics
type Snapshot struct {
	Regions    []types.Region       `json:"regions"`
	Layout     layout.Status        `json:"layout"`
	Animations []animation.State    `json:"animations"`
	Tasks      []embedding.Snapshot `json:"tasks"`
	Running    bool                 `json:"running"`
}

// Shell is the execution context object: it owns the serial executor and
// every domain component, and is the only way to reach them from other
// goroutines.
type Shell struct {
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics

	exec   *executor.Serial
	queue  *transaction.Queue
	engine *animation.Engine
	frames *animation.FrameLoop
	org    *region.Organizer
	layout *layout.Controller
	embed  *embedding.Manager

	// running is only touched on the executor
	running bool

	subsMu sync.RWMutex
	subs   map[id.SubscriberID]func(types.VisibilityChanged)
}

// New wires the shell. Nothing talks to the platform until Start.
func New(opts Options, p Platform, logger *zap.Logger, metrics *monitoring.Metrics) *Shell {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Shell{
		opts:    opts,
		logger:  logger,
		metrics: metrics,
		subs:    make(map[id.SubscriberID]func(types.VisibilityChanged)),
	}

	s.exec = executor.NewSerial(logger.Named("executor"))
	s.queue = transaction.NewQueue(p.Compositor, logger.Named("transactions"), metrics)
	s.exec.AfterEach(s.queue.Flush)

	engineOpts := []animation.Option{animation.WithMetrics(metrics)}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, animation.WithClock(opts.Clock))
	}
	s.engine = animation.NewEngine(s.queue, logger.Named("animation"), engineOpts...)
	s.frames = animation.NewFrameLoop(s.exec, s.engine, opts.FrameInterval)

	s.org = region.NewOrganizer(opts.Regions, region.Deps{
		Regions: p.Regions,
		Starter: p.Starter,
		Tracker: p.Tracker,
		Engine:  s.engine,
		Queue:   s.queue,
		Logger:  logger.Named("organizer"),
		Metrics: metrics,
	})
	s.embed = embedding.NewManager(opts.Host, embedding.Deps{
		Regions: s.org,
		Tasks:   p.Tasks,
		Starter: p.Starter,
		Users:   p.Users,
		Display: p.Display,
		Queue:   s.queue,
		Logger:  logger.Named("embedding"),
		Metrics: metrics,
	})
	s.org.AddClaimer(s.embed)
	s.layout = layout.NewController(opts.Layout, s.org, s.engine, s.queue, logger.Named("layout"), metrics)
	s.layout.AddVisibilityListener(s.broadcast)
	return s
}

// Run drains the shell executor until ctx is canceled, Stop is called or
// the host is destroyed
func (s *Shell) Run(ctx context.Context) error {
	return s.exec.Run(ctx)
}

// Executor returns the shell execution context
func (s *Shell) Executor() executor.Executor { return s.exec }

// Start registers every region, lays them out for CONTROL_BAR and creates
// the configured embedded tasks. Region setup errors are fatal and returned;
// embedded task failures are logged.
func (s *Shell) Start(ctx context.Context) error {
	var startErr error
	err := s.exec.Call(ctx, func() {
		startErr = s.start(ctx)
	})
	if err != nil {
		return err
	}
	return startErr
}

func (s *Shell) start(ctx context.Context) error {
	if s.running {
		return nil
	}
	for _, rid := range types.AllRegions() {
		if _, err := s.org.RegisterRegion(ctx, rid); err != nil {
			s.org.Unregister(ctx)
			return fmt.Errorf("start shell: %w", err)
		}
	}

	if n, err := s.embed.CleanUpDangling(ctx); err != nil {
		s.logger.Warn("Could not clean up embedded tasks", zap.Error(err))
	} else if n > 0 {
		s.logger.Info("Cleaned up embedded tasks from a previous run", zap.Int("removed", n))
	}

	s.layout.Register()
	s.running = true

	for _, opts := range s.opts.Controlled {
		if _, err := s.embed.CreateControlledTask(s.exec, opts, embedding.Callbacks{}); err != nil {
			s.logger.Warn("Skipping controlled task", zap.String("name", opts.Name), zap.Error(err))
		}
	}
	if s.opts.LaunchRootRegion != "" {
		if _, err := s.embed.CreateLaunchRootTask(s.exec, s.opts.LaunchRootRegion, embedding.Callbacks{}); err != nil {
			s.logger.Warn("Launch root unavailable", zap.Error(err))
		} else {
			for _, opts := range s.opts.SemiControlled {
				if _, err := s.embed.CreateSemiControlledTask(s.exec, opts, embedding.Callbacks{}); err != nil {
					s.logger.Warn("Skipping semi-controlled task", zap.String("name", opts.Name), zap.Error(err))
				}
			}
		}
	}

	s.logger.Info("Shell started",
		zap.Int("regions", len(s.org.Regions())),
		zap.Int("tasks", len(s.embed.Tasks())))
	return nil
}

// Stop releases embedded tasks and regions, then stops the executor
func (s *Shell) Stop(ctx context.Context) error {
	err := s.exec.Call(ctx, func() { s.shutdown(ctx) })
	s.exec.Stop()
	return err
}

func (s *Shell) shutdown(ctx context.Context) {
	if !s.running {
		return
	}
	s.running = false
	s.embed.Release()
	s.layout.Unregister()
	s.org.Unregister(ctx)
	s.logger.Info("Shell stopped")
}

// Dispatch re-dispatches a signal onto the shell executor. Safe to call
// from any goroutine.
func (s *Shell) Dispatch(ev types.Event) {
	s.exec.Execute(func() { s.handle(ev) })
}

func (s *Shell) handle(ev types.Event) {
	switch e := ev.(type) {
	case types.RegionEvent:
		s.org.HandleRegionEvent(e)
	case types.TaskEvent:
		s.org.HandleTaskEvent(e)
	case types.TaskCreated:
		s.layout.UpdateForegroundVisibility(e.Component)
	case types.Drag:
		s.layout.HandleDrag(e)
	case types.DisplayChanged:
		s.layout.OnDisplayChanged(e)
	case types.HostLifecycle:
		s.embed.HandleEvent(e)
		if e.Kind == types.HostDestroyed {
			// the shell does not come back from destroy; Run returns once
			// the queued work drains
			s.shutdown(context.Background())
			s.exec.Stop()
		}
	case types.ActivityRestartAttempt:
		s.embed.HandleEvent(e)
		top := e.Task.TopActivity
		if top.IsZero() {
			top = e.Task.BaseActivity
		}
		s.layout.UpdateForegroundVisibility(top)
	case types.TaskFocusChanged, types.PackageChanged, types.UserLifecycle:
		s.embed.HandleEvent(e)
	default:
		s.logger.Debug("Ignoring event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

// StartAnimation moves the layout toward target on the shell executor
func (s *Shell) StartAnimation(ctx context.Context, target types.LayoutState) error {
	return s.exec.Call(ctx, func() { s.layout.StartAnimation(target) })
}

// SetInsets sets insets on an embedded task
func (s *Shell) SetInsets(ctx context.Context, emb id.EmbeddingID, insets types.Rect) error {
	var setErr error
	if err := s.exec.Call(ctx, func() { setErr = s.embed.SetInsets(emb, insets) }); err != nil {
		return err
	}
	return setErr
}

// Snapshot copies the shell state on the executor
func (s *Shell) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.exec.Call(ctx, func() {
		snap = Snapshot{
			Regions:    s.org.Regions(),
			Layout:     s.layout.Status(),
			Animations: s.engine.Snapshot(),
			Tasks:      s.embed.Tasks(),
			Running:    s.running,
		}
	})
	return snap, err
}

// Bounds returns the computed rectangles for a layout state
func (s *Shell) Bounds(ctx context.Context, state types.LayoutState) (layout.Snapshot, error) {
	var b layout.Snapshot
	err := s.exec.Call(ctx, func() { b = s.layout.Bounds(state) })
	return b, err
}

// OnVisibility subscribes fn to visibility broadcasts. fn runs on the shell
// executor and must not block. The returned func unsubscribes.
func (s *Shell) OnVisibility(fn func(types.VisibilityChanged)) (id.SubscriberID, func()) {
	sub := id.NewSubscriberID()
	s.subsMu.Lock()
	s.subs[sub] = fn
	s.subsMu.Unlock()
	return sub, func() {
		s.subsMu.Lock()
		delete(s.subs, sub)
		s.subsMu.Unlock()
	}
}

func (s *Shell) broadcast(ev types.VisibilityChanged) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, fn := range s.subs {
		fn(ev)
	}
}
