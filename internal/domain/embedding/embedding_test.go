package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/testutil"
)

const (
	hostTask = types.TaskID(1)
	hostUser = 10

	backgroundToken = id.Token("tok_bg")
	foregroundToken = id.Token("tok_fg")
)

type regionTable map[types.RegionID]types.Region

func (r regionTable) Lookup(rid types.RegionID) (types.Region, bool) {
	region, ok := r[rid]
	return region, ok
}

type harness struct {
	mgr     *Manager
	rec     *testutil.RecordingCompositor
	queue   *transaction.Queue
	tasks   *testutil.MockTaskService
	starter *testutil.MockActivityStarter
	users   *testutil.MockUserService
	display *testutil.MockDisplayService
}

// newHarness builds a manager whose collaborators accept everything. setup
// runs first so its expectations take precedence over the fallbacks.
func newHarness(t *testing.T, setup func(h *harness)) *harness {
	t.Helper()
	h := &harness{
		rec:     &testutil.RecordingCompositor{},
		tasks:   new(testutil.MockTaskService),
		starter: new(testutil.MockActivityStarter),
		users:   new(testutil.MockUserService),
		display: new(testutil.MockDisplayService),
	}
	if setup != nil {
		setup(h)
	}
	h.tasks.On("RegisterTaskOrganizer", mock.Anything).Return([]types.TaskInfo{}, nil).Maybe()
	h.tasks.On("RemoveTask", mock.Anything, mock.Anything).Return(nil).Maybe()
	h.starter.On("StartActivity", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	h.users.On("IsUserUnlocked", hostUser).Return(true).Maybe()
	h.display.On("DisplayState").Return(types.DisplayOn).Maybe()

	h.queue = transaction.NewQueue(h.rec, zap.NewNop(), nil)
	regions := regionTable{
		types.RegionBackground: {
			ID:     types.RegionBackground,
			Token:  backgroundToken,
			Bounds: types.NewRect(0, 0, 1000, 250),
		},
		types.RegionForeground: {
			ID:     types.RegionForeground,
			Token:  foregroundToken,
			Bounds: types.NewRect(0, 300, 1000, 700),
		},
	}
	h.mgr = NewManager(Host{TaskID: hostTask, UserID: hostUser}, Deps{
		Regions: regions,
		Tasks:   h.tasks,
		Starter: h.starter,
		Users:   h.users,
		Display: h.display,
		Queue:   h.queue,
		Logger:  zap.NewNop(),
	})
	return h
}

func mapsOptions(policy Policy, deps ...string) ControlledOptions {
	return ControlledOptions{
		Name:               "maps",
		Region:             types.RegionBackground,
		Intent:             types.Intent{Component: types.Component{Package: "com.example.maps", Class: "com.example.maps.Main"}},
		Policy:             policy,
		DependencyPackages: deps,
	}
}

func (h *harness) create(t *testing.T, opts ControlledOptions) *ControlledTask {
	t.Helper()
	task, err := h.mgr.CreateControlledTask(executor.Immediate{}, opts, Callbacks{})
	require.NoError(t, err)
	return task
}

func runningInfo(task *ControlledTask, taskID types.TaskID) types.TaskInfo {
	return types.TaskInfo{
		TaskID:        taskID,
		Token:         id.Token("tok_task"),
		LaunchCookie:  task.ID(),
		WindowingMode: types.WindowingMultiWindow,
	}
}

func startsFor(h *harness, task *ControlledTask) int {
	n := 0
	for _, call := range h.starter.Calls {
		if call.Method != "StartActivity" {
			continue
		}
		if opts := call.Arguments.Get(2).(types.LaunchOptions); opts.Cookie == task.ID() {
			n++
		}
	}
	return n
}

func TestControlledTaskStartsIntoRegion(t *testing.T) {
	h := newHarness(t, nil)
	task := h.create(t, mapsOptions(PolicyNone))

	require.Equal(t, 1, startsFor(h, task))
	opts := h.starter.Calls[0].Arguments.Get(2).(types.LaunchOptions)
	assert.Equal(t, backgroundToken, opts.Target)
	assert.Equal(t, types.NewRect(0, 0, 1000, 250), opts.Bounds)
	assert.True(t, opts.NoAnimation)
	assert.Equal(t, StateStartRequested, task.State())
	assert.Equal(t, types.InvalidTaskID, task.TaskID())
}

func TestCallbacksFollowCreation(t *testing.T) {
	h := newHarness(t, nil)

	var order []string
	var created, ready Snapshot
	_, err := h.mgr.CreateControlledTask(executor.Immediate{}, mapsOptions(PolicyNone), Callbacks{
		OnCreated: func(s Snapshot) { order = append(order, "created"); created = s },
		OnReady:   func(s Snapshot) { order = append(order, "ready"); ready = s },
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"created", "ready"}, order)
	assert.Equal(t, StateNotStarted, created.State)
	assert.Equal(t, StateStartRequested, ready.State)
	assert.Equal(t, "com.example.maps/.Main", ready.Component.String())
}

func TestRestartOnCrashRestartsOnce(t *testing.T) {
	h := newHarness(t, nil)
	task := h.create(t, mapsOptions(PolicyRestartOnCrash))
	info := runningInfo(task, 42)

	require.True(t, h.mgr.ClaimTask(types.TaskAppeared{Task: info, Surface: "srf_task"}))
	assert.Equal(t, StateRunning, task.State())
	assert.Equal(t, types.TaskID(42), task.TaskID())

	require.True(t, h.mgr.ClaimTask(types.TaskVanished{Task: info, Reason: types.VanishCrashed}))

	assert.Equal(t, 2, startsFor(h, task), "one initial start plus exactly one restart")
	assert.Equal(t, StateRestartRequested, task.State())
	assert.Equal(t, 1, h.mgr.Tasks()[0].Restarts)
}

func TestNoRestartWithoutPolicyUntilHostResumes(t *testing.T) {
	h := newHarness(t, nil)
	task := h.create(t, mapsOptions(PolicyNone))
	info := runningInfo(task, 42)

	h.mgr.ClaimTask(types.TaskAppeared{Task: info, Surface: "srf_task"})
	h.mgr.ClaimTask(types.TaskVanished{Task: info, Reason: types.VanishCrashed})

	assert.Equal(t, 1, startsFor(h, task))
	assert.Equal(t, StateCrashed, task.State())

	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostResumed})
	assert.Equal(t, 2, startsFor(h, task))
	assert.True(t, h.mgr.HostVisible())
}

func TestRetryTriggersOnlyStartDownTasks(t *testing.T) {
	h := newHarness(t, nil)
	running := h.create(t, mapsOptions(PolicyNone))
	h.mgr.ClaimTask(types.TaskAppeared{Task: runningInfo(running, 42)})

	down := h.create(t, ControlledOptions{
		Name:   "media",
		Region: types.RegionForeground,
		Intent: types.Intent{Component: types.Component{Package: "com.example.media", Class: "com.example.media.Main"}},
	})

	events := []types.Event{
		types.TaskFocusChanged{TaskID: hostTask, Focused: true},
		types.TaskFocusChanged{TaskID: 99, Focused: true},
		types.UserLifecycle{Kind: types.UserUnlocked, UserID: hostUser},
		types.UserLifecycle{Kind: types.UserUnlocked, UserID: 11},
		types.ActivityRestartAttempt{Task: types.TaskInfo{TaskID: hostTask}, HomeTaskVisible: true},
		types.ActivityRestartAttempt{Task: types.TaskInfo{TaskID: hostTask}, HomeTaskVisible: false},
	}
	for _, ev := range events {
		h.mgr.HandleEvent(ev)
	}

	assert.Equal(t, 1, startsFor(h, running))
	assert.Equal(t, 4, startsFor(h, down), "initial start plus three matching triggers")
}

func TestDependencyUpdateStartsOnlyDependents(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.users.On("IsUserUnlocked", hostUser).Return(false).Twice()
	})
	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostResumed})

	dependent := h.create(t, mapsOptions(PolicyRestartOnDependencyChange, "com.example.navdata"))
	other := h.create(t, ControlledOptions{
		Name:   "media",
		Region: types.RegionForeground,
		Intent: types.Intent{Component: types.Component{Package: "com.example.media", Class: "com.example.media.Main"}},
		Policy: PolicyRestartOnDependencyChange,
	})
	require.Equal(t, StateNotStarted, dependent.State())
	require.Equal(t, StateNotStarted, other.State())

	h.mgr.HandleEvent(types.PackageChanged{Action: types.PackageReplaced, Package: "com.example.navdata"})

	assert.Equal(t, 1, startsFor(h, dependent))
	assert.Equal(t, 0, startsFor(h, other))
}

func TestDependenciesTriggerStartWithCrashPolicy(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.users.On("IsUserUnlocked", hostUser).Return(false).Once()
	})
	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostResumed})

	task := h.create(t, mapsOptions(PolicyRestartOnCrash, "com.example.navdata"))
	require.Equal(t, StateNotStarted, task.State())
	assert.True(t, task.snapshot().Policy.Has(PolicyRestartOnDependencyChange))

	h.mgr.HandleEvent(types.PackageChanged{Action: types.PackageReplaced, Package: "com.example.navdata"})

	assert.Equal(t, 1, startsFor(h, task))
	assert.Equal(t, StateStartRequested, task.State())
}

func TestDependencyUpdateIgnoredWhileHostHidden(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.users.On("IsUserUnlocked", hostUser).Return(false).Once()
	})
	task := h.create(t, mapsOptions(PolicyRestartOnDependencyChange, "com.example.navdata"))

	h.mgr.HandleEvent(types.PackageChanged{Action: types.PackageAdded, Package: "com.example.navdata"})
	h.mgr.HandleEvent(types.PackageChanged{Action: types.PackageRemoved, Package: "com.example.navdata"})

	assert.Equal(t, 0, startsFor(h, task))
}

func TestStartSuppressedWhileDisplayOff(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.display.On("DisplayState").Return(types.DisplayOff).Once()
	})
	task := h.create(t, mapsOptions(PolicyNone))

	assert.Equal(t, 0, startsFor(h, task))
	assert.Equal(t, StateNotStarted, task.State())

	h.mgr.HandleEvent(types.TaskFocusChanged{TaskID: hostTask, Focused: true})
	assert.Equal(t, 1, startsFor(h, task))
}

func TestStartFailureKeepsTaskDown(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.starter.On("StartActivity", mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("no activity")).Once()
	})
	task := h.create(t, mapsOptions(PolicyNone))

	assert.Equal(t, StateNotStarted, task.State())
	h.mgr.HandleEvent(types.UserLifecycle{Kind: types.UserUnlocked, UserID: hostUser})
	assert.Equal(t, StateStartRequested, task.State())
}

func TestReleaseOnUserSwitch(t *testing.T) {
	h := newHarness(t, nil)
	var released bool
	task, err := h.mgr.CreateControlledTask(executor.Immediate{}, mapsOptions(PolicyRestartOnCrash), Callbacks{
		OnReleased: func() { released = true },
	})
	require.NoError(t, err)
	h.mgr.ClaimTask(types.TaskAppeared{Task: runningInfo(task, 42)})

	h.mgr.HandleEvent(types.UserLifecycle{Kind: types.UserSwitching, UserID: 11, PreviousUserID: 12})
	require.False(t, h.mgr.Released())

	h.mgr.HandleEvent(types.UserLifecycle{Kind: types.UserSwitching, UserID: 11, PreviousUserID: hostUser})

	assert.True(t, h.mgr.Released())
	assert.True(t, released)
	assert.Equal(t, StateReleased, task.State())
	assert.Empty(t, h.mgr.Tasks())
	h.tasks.AssertCalled(t, "RemoveTask", mock.Anything, types.TaskID(42))

	_, err = h.mgr.CreateControlledTask(executor.Immediate{}, mapsOptions(PolicyNone), Callbacks{})
	assert.ErrorIs(t, err, ErrReleased)

	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostResumed})
	assert.Equal(t, 1, startsFor(h, task))
}

func TestHostDestroyedReleases(t *testing.T) {
	h := newHarness(t, nil)
	h.create(t, mapsOptions(PolicyNone))

	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostDestroyed})
	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostDestroyed})

	assert.True(t, h.mgr.Released())
	assert.False(t, h.mgr.HostVisible())
}

func TestHostResumeShowsEmbeddedTasks(t *testing.T) {
	h := newHarness(t, nil)
	task := h.create(t, mapsOptions(PolicyNone))
	h.mgr.ClaimTask(types.TaskAppeared{Task: runningInfo(task, 42), Surface: "srf_task"})
	h.queue.Flush()

	visible, ok := h.rec.Last(transaction.KindVisibility, "srf_task")
	require.True(t, ok)
	assert.True(t, visible.Flag)

	h.rec.Reset()
	h.mgr.HandleEvent(types.HostLifecycle{Kind: types.HostResumed})
	h.queue.Flush()

	hidden, ok := h.rec.Last(transaction.KindHidden, "tok_task")
	require.True(t, ok)
	assert.False(t, hidden.Flag)
	top, ok := h.rec.Last(transaction.KindReorder, "tok_task")
	require.True(t, ok)
	assert.True(t, top.Flag)
	assert.Len(t, h.rec.Batches(), 1)
}

func TestSetInsets(t *testing.T) {
	h := newHarness(t, nil)
	task := h.create(t, mapsOptions(PolicyNone))
	insets := types.NewRect(0, 0, 1000, 40)

	require.NoError(t, h.mgr.SetInsets(task.ID(), insets))
	h.queue.Flush()
	assert.Empty(t, h.rec.Batches(), "no container yet")

	h.mgr.ClaimTask(types.TaskAppeared{Task: runningInfo(task, 42)})
	h.queue.Flush()
	op, ok := h.rec.Last(transaction.KindInsets, "tok_task")
	require.True(t, ok)
	assert.Equal(t, insets, op.Rect)

	assert.ErrorIs(t, h.mgr.SetInsets("emb_missing", insets), ErrUnknownEmbedding)
}

func TestLaunchRootAndSemiControlledRouting(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.tasks.On("CreateRootTask", mock.Anything, foregroundToken, mock.Anything).
			Return(types.TaskInfo{TaskID: 100, Token: "tok_root"}, nil).Once()
	})

	_, err := h.mgr.CreateSemiControlledTask(executor.Immediate{}, SemiControlledOptions{Name: "early", Match: MatchComponents("**")}, Callbacks{})
	require.ErrorIs(t, err, ErrNoLaunchRoot)

	root, err := h.mgr.CreateLaunchRootTask(executor.Immediate{}, types.RegionForeground, Callbacks{})
	require.NoError(t, err)
	assert.Equal(t, types.TaskID(100), root.TaskID())

	_, err = h.mgr.CreateLaunchRootTask(executor.Immediate{}, types.RegionForeground, Callbacks{})
	assert.ErrorIs(t, err, ErrLaunchRootExists)

	var firstSeen, secondSeen []types.TaskID
	first, err := h.mgr.CreateSemiControlledTask(executor.Immediate{}, SemiControlledOptions{
		Name:  "dialer",
		Match: MatchComponents("com.example.dialer/*"),
	}, Callbacks{OnTaskAppeared: func(info types.TaskInfo) { firstSeen = append(firstSeen, info.TaskID) }})
	require.NoError(t, err)
	_, err = h.mgr.CreateSemiControlledTask(executor.Immediate{}, SemiControlledOptions{
		Name:  "everything",
		Match: MatchComponents("com.example.*/**"),
	}, Callbacks{OnTaskAppeared: func(info types.TaskInfo) { secondSeen = append(secondSeen, info.TaskID) }})
	require.NoError(t, err)

	dialer := types.TaskInfo{
		TaskID:       7,
		ParentTaskID: 100,
		BaseActivity: types.Component{Package: "com.example.dialer", Class: "com.example.dialer.Main"},
	}
	assert.True(t, h.mgr.ClaimTask(types.TaskAppeared{Task: dialer, Surface: "srf_dialer"}))
	assert.Equal(t, []types.TaskID{7}, firstSeen)
	assert.Empty(t, secondSeen)
	assert.Equal(t, types.TaskID(7), first.TaskID())

	outsider := types.TaskInfo{
		TaskID:       8,
		ParentTaskID: 100,
		BaseActivity: types.Component{Package: "org.other", Class: "org.other.Main"},
	}
	assert.False(t, h.mgr.ClaimTask(types.TaskAppeared{Task: outsider}))

	elsewhere := dialer
	elsewhere.TaskID = 9
	elsewhere.ParentTaskID = types.InvalidTaskID
	assert.False(t, h.mgr.ClaimTask(types.TaskAppeared{Task: elsewhere}))

	assert.Len(t, h.mgr.Tasks(), 3)
}

func TestCleanUpDangling(t *testing.T) {
	h := newHarness(t, func(h *harness) {
		h.tasks.On("RegisterTaskOrganizer", mock.Anything).Return([]types.TaskInfo{
			{TaskID: 3, WindowingMode: types.WindowingMultiWindow},
			{TaskID: 4, WindowingMode: types.WindowingFullscreen},
			{TaskID: 5, WindowingMode: types.WindowingMultiWindow},
		}, nil).Once()
	})

	removed, err := h.mgr.CleanUpDangling(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	h.tasks.AssertCalled(t, "RemoveTask", mock.Anything, types.TaskID(3))
	h.tasks.AssertCalled(t, "RemoveTask", mock.Anything, types.TaskID(5))
	h.tasks.AssertNotCalled(t, "RemoveTask", mock.Anything, types.TaskID(4))
}

func TestCreateControlledTaskValidates(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.mgr.CreateControlledTask(nil, ControlledOptions{Region: types.RegionBackground}, Callbacks{})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	opts := mapsOptions(PolicyNone)
	opts.Region = "sidebar"
	_, err = h.mgr.CreateControlledTask(nil, opts, Callbacks{})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("restart-on-crash|restart-on-dependency-change")
	require.NoError(t, err)
	assert.True(t, p.Has(PolicyRestartOnCrash))
	assert.True(t, p.Has(PolicyRestartOnDependencyChange))
	assert.Equal(t, "restart-on-crash|restart-on-dependency-change", p.String())

	p, err = ParsePolicy("none")
	require.NoError(t, err)
	assert.Equal(t, PolicyNone, p)
	assert.Equal(t, "none", p.String())

	_, err = ParsePolicy("restart-always")
	assert.Error(t, err)
}
