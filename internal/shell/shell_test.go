package shell

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/embedding"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/region"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform/sim"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/testutil"
)

const hostUser = 10

var (
	mapsComp     = types.Component{Package: "com.example.maps", Class: "com.example.maps.Main"}
	settingsComp = types.Component{Package: "com.example.settings", Class: "com.example.settings.Main"}
)

type harness struct {
	shell *Shell
	dev   *sim.Platform
	clock *testutil.ManualClock
}

func testOptions(clock *testutil.ManualClock) Options {
	regions := region.DefaultConfig()
	regions.BackgroundPackages = []string{"com.example.maps"}
	return Options{
		Regions: regions,
		Layout: layout.Config{
			Geometry: layout.Geometry{
				Width:            1000,
				Height:           800,
				DPI:              160,
				ControlBarHeight: 100,
				DefaultHeight:    400,
				FullHeight:       600,
				TitleBarHeight:   50,
			},
			AnimationDuration: 300 * time.Millisecond,
			DragThreshold:     80,
		},
		Host:          embedding.Host{TaskID: 1, UserID: hostUser},
		FrameInterval: time.Millisecond,
		Controlled: []embedding.ControlledOptions{{
			Name:   "maps",
			Region: types.RegionBackground,
			Intent: types.Intent{Component: mapsComp},
			Policy: embedding.PolicyRestartOnCrash,
		}},
		Clock: clock,
	}
}

func newHarness(t *testing.T, simOpts sim.Options) *harness {
	t.Helper()
	clock := testutil.NewManualClock()
	simOpts.UserID = hostUser
	dev := sim.New(simOpts, zap.NewNop())

	s := New(testOptions(clock), Platform{
		Regions:    dev,
		Tasks:      dev,
		Starter:    dev,
		Tracker:    dev,
		Users:      dev,
		Display:    dev,
		Compositor: dev.Compositor(),
	}, zap.NewNop(), nil)
	dev.SetSink(s.Dispatch)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.exec.Done()
	})
	return &harness{shell: s, dev: dev, clock: clock}
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	snap, err := h.shell.Snapshot(context.Background())
	require.NoError(t, err)
	return snap
}

func TestStartRegistersRegionsAndTasks(t *testing.T) {
	h := newHarness(t, sim.Options{})
	require.NoError(t, h.shell.Start(context.Background()))

	snap := h.snapshot(t)
	assert.True(t, snap.Running)
	assert.Len(t, snap.Regions, len(types.AllRegions()))
	assert.Equal(t, types.StateControlBar, snap.Layout.State)

	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "maps", snap.Tasks[0].Name)
	assert.Equal(t, embedding.StateRunning, snap.Tasks[0].State)
	assert.NotEqual(t, types.InvalidTaskID, snap.Tasks[0].TaskID)
	assert.Len(t, h.dev.Tasks(), 1)

	// second start is a no-op
	require.NoError(t, h.shell.Start(context.Background()))
	assert.Len(t, h.snapshot(t).Tasks, 1)
}

func TestStartFailsOnDuplicateArea(t *testing.T) {
	dup := types.AppearedRegion{Info: types.RegionInfo{
		Feature: types.DefaultFeatures()[types.RegionForeground],
		Token:   "tok_dup",
	}, Surface: "srf_dup"}
	h := newHarness(t, sim.Options{Extra: []types.AppearedRegion{dup}})

	err := h.shell.Start(context.Background())
	assert.ErrorIs(t, err, region.ErrAmbiguousRegion)
	assert.False(t, h.snapshot(t).Running)
}

func TestStartAnimationReachesDefault(t *testing.T) {
	h := newHarness(t, sim.Options{})
	require.NoError(t, h.shell.Start(context.Background()))

	changes := make(chan types.VisibilityChanged, 4)
	_, cancel := h.shell.OnVisibility(func(ev types.VisibilityChanged) { changes <- ev })
	defer cancel()

	require.NoError(t, h.shell.StartAnimation(context.Background(), types.StateDefault))
	h.clock.Advance(time.Second)

	require.Eventually(t, func() bool {
		st := h.snapshot(t).Layout
		return st.State == types.StateDefault && !st.Animating
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case ev := <-changes:
		assert.Equal(t, types.VisibilityChanged{Visible: true, State: types.StateDefault}, ev)
	case <-time.After(time.Second):
		t.Fatal("no visibility broadcast")
	}

	bounds, err := h.shell.Bounds(context.Background(), types.StateDefault)
	require.NoError(t, err)
	snap := h.snapshot(t)
	for _, r := range snap.Regions {
		if r.ID == types.RegionBackground {
			c, ok := h.dev.Compositor().Container(r.Token)
			require.True(t, ok)
			assert.Equal(t, bounds.Background, c.Bounds)
		}
	}
}

func TestCrashRestartsControlledTask(t *testing.T) {
	h := newHarness(t, sim.Options{})
	require.NoError(t, h.shell.Start(context.Background()))

	first := h.snapshot(t).Tasks[0].TaskID
	require.NoError(t, h.dev.CrashTask(first))

	require.Eventually(t, func() bool {
		task := h.snapshot(t).Tasks[0]
		return task.Restarts == 1 && task.State == embedding.StateRunning && task.TaskID != first
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, h.dev.Tasks(), 1)
}

func TestLaunchedTaskOpensForeground(t *testing.T) {
	h := newHarness(t, sim.Options{})
	require.NoError(t, h.shell.Start(context.Background()))

	err := h.dev.StartActivity(context.Background(), types.Intent{Component: settingsComp}, types.LaunchOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return h.snapshot(t).Layout.State == types.StateDefault
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHostDestroyedShutsDown(t *testing.T) {
	h := newHarness(t, sim.Options{})
	require.NoError(t, h.shell.Start(context.Background()))

	require.NotEmpty(t, h.snapshot(t).Tasks)

	h.shell.Dispatch(types.HostLifecycle{Kind: types.HostDestroyed})

	select {
	case <-h.shell.exec.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("executor still running after host destroyed")
	}
	assert.Empty(t, h.dev.Tasks())

	err := h.shell.Start(context.Background())
	assert.ErrorIs(t, err, executor.ErrStopped)
	_, err = h.shell.Snapshot(context.Background())
	assert.ErrorIs(t, err, executor.ErrStopped)
}

func TestStop(t *testing.T) {
	h := newHarness(t, sim.Options{})
	require.NoError(t, h.shell.Start(context.Background()))

	require.NoError(t, h.shell.Stop(context.Background()))
	<-h.shell.exec.Done()
	assert.Empty(t, h.dev.Tasks())

	_, err := h.shell.Snapshot(context.Background())
	assert.ErrorIs(t, err, executor.ErrStopped)
}

func TestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Regions.Layers = map[string]int{"ime": 150}
	cfg.Regions.AutoStartComponent = "com.example.maps/.Main"
	cfg.Components.BackgroundPackages = []string{"com.example.maps"}
	cfg.Components.VoiceOverlay = "com.example.voice/.Plate"
	cfg.Tasks.Controlled = []config.ControlledTaskConfig{{
		Name:         "widgets",
		Region:       "control-bar",
		Component:    "com.example.widgets/.Host",
		Policy:       "restart-on-crash|restart-on-dependency-change",
		Dependencies: []string{"com.example.weather"},
	}}
	cfg.Tasks.LaunchRootRegion = "foreground"
	cfg.Tasks.SemiControlled = []config.SemiControlledConfig{{Name: "dialer", Components: []string{"com.example.dialer/*"}}}

	opts, err := FromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, 150, opts.Regions.Layers[types.RegionIME])
	assert.Equal(t, 200, opts.Regions.Layers[types.RegionForeground])
	assert.Equal(t, mapsComp, opts.Regions.AutoStartIntent.Component)
	assert.Equal(t, 300*time.Millisecond, opts.Layout.AnimationDuration)
	assert.Equal(t, 16*time.Millisecond, opts.FrameInterval)
	assert.Equal(t, "com.example.voice.Plate", opts.Layout.VoiceOverlayComponent.Class)
	assert.Equal(t, types.TaskID(1), opts.Host.TaskID)

	require.Len(t, opts.Controlled, 1)
	assert.Equal(t, types.RegionControlBar, opts.Controlled[0].Region)
	assert.True(t, opts.Controlled[0].Policy.Has(embedding.PolicyRestartOnDependencyChange))
	assert.Equal(t, types.RegionForeground, opts.LaunchRootRegion)

	require.Len(t, opts.SemiControlled, 1)
	dialer := types.Component{Package: "com.example.dialer", Class: "com.example.dialer.Main"}
	assert.True(t, opts.SemiControlled[0].Match(types.TaskInfo{BaseActivity: dialer}))
}

func TestFromConfigErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Layout.DefaultHeight = 5000
	cfg.Tasks.Controlled = []config.ControlledTaskConfig{{
		Region:    "background",
		Component: "com.example.maps/.Main",
		Policy:    "sometimes",
	}}

	_, err := FromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layout")
	assert.Contains(t, err.Error(), "controlled task 0")
}
