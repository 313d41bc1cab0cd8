package types

import "github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"

// Event is a signal consumed by the shell. Concrete variants are plain
// structs; handlers type-switch and ignore variants they do not care about.
type Event interface {
	isEvent()
}

// RegionEvent is RegionAppeared | RegionVanished
type RegionEvent interface {
	Event
	isRegionEvent()
}

// TaskEvent is TaskAppeared | TaskInfoChanged | TaskVanished
type TaskEvent interface {
	Event
	TaskInfo() TaskInfo
}

// ============================================================================
// Region lifecycle
// ============================================================================

// RegionAppeared reports a platform area becoming available
type RegionAppeared struct {
	Info    RegionInfo
	Surface id.SurfaceID
}

// RegionVanished reports a platform area going away
type RegionVanished struct {
	Info RegionInfo
}

// ============================================================================
// Task lifecycle
// ============================================================================

// TaskAppeared reports a task surface becoming available
type TaskAppeared struct {
	Task    TaskInfo
	Surface id.SurfaceID
}

// TaskInfoChanged reports a change in a live task
type TaskInfoChanged struct {
	Task TaskInfo
}

// TaskVanished reports a task going away
type TaskVanished struct {
	Task   TaskInfo
	Reason VanishReason
}

func (e TaskAppeared) TaskInfo() TaskInfo    { return e.Task }
func (e TaskInfoChanged) TaskInfo() TaskInfo { return e.Task }
func (e TaskVanished) TaskInfo() TaskInfo    { return e.Task }

// ============================================================================
// Task stack signals
// ============================================================================

// TaskFocusChanged reports focus moving to or from a task
type TaskFocusChanged struct {
	TaskID  TaskID
	Focused bool
}

// TaskCreated reports a new task and its root component
type TaskCreated struct {
	TaskID    TaskID
	Component Component
}

// ActivityRestartAttempt reports an attempt to launch an activity that is
// already running, e.g. a home intent while home is in front.
type ActivityRestartAttempt struct {
	Task            TaskInfo
	HomeTaskVisible bool
	ClearedTask     bool
	WasVisible      bool
}

// ============================================================================
// System broadcasts
// ============================================================================

// PackageAction is the kind of package broadcast
type PackageAction int

const (
	PackageAdded PackageAction = iota
	PackageRemoved
	PackageReplaced
)

// String returns the string representation of the action
func (a PackageAction) String() string {
	switch a {
	case PackageAdded:
		return "added"
	case PackageRemoved:
		return "removed"
	case PackageReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// PackageChanged reports an install/update/uninstall
type PackageChanged struct {
	Action  PackageAction
	Package string
}

// UserEventKind is the kind of user lifecycle event
type UserEventKind int

const (
	UserUnlocked UserEventKind = iota
	UserSwitching
)

// UserLifecycle reports user unlock or switch
type UserLifecycle struct {
	Kind           UserEventKind
	UserID         int
	PreviousUserID int
}

// DisplayState is the power state of the display
type DisplayState int

const (
	DisplayUnknown DisplayState = iota
	DisplayOff
	DisplayOn
)

// String returns the string representation of the display state
func (s DisplayState) String() string {
	switch s {
	case DisplayOff:
		return "off"
	case DisplayOn:
		return "on"
	default:
		return "unknown"
	}
}

// DisplayChanged reports display power or size changes. Zero width/height
// keep the current size.
type DisplayChanged struct {
	State  DisplayState
	Width  int
	Height int
}

// HostEventKind is the host activity lifecycle step
type HostEventKind int

const (
	HostResumed HostEventKind = iota
	HostStopped
	HostDestroyed
)

// HostLifecycle reports the host activity moving through its lifecycle
type HostLifecycle struct {
	Kind HostEventKind
}

// DragPhase is the step of a pointer trace
type DragPhase int

const (
	DragStart DragPhase = iota
	DragMove
	DragEnd
)

// Drag carries one point of a pointer trace over the title bar
type Drag struct {
	Phase DragPhase
	Y     float64
}

// ============================================================================
// Emitted
// ============================================================================

// VisibilityChanged is broadcast whenever the foreground region opens or
// closes so external UI can mirror the layout state.
type VisibilityChanged struct {
	Visible bool        `json:"visible"`
	State   LayoutState `json:"state"`
}

func (RegionAppeared) isEvent()         {}
func (RegionVanished) isEvent()         {}
func (TaskAppeared) isEvent()           {}
func (TaskInfoChanged) isEvent()        {}
func (TaskVanished) isEvent()           {}
func (TaskFocusChanged) isEvent()       {}
func (TaskCreated) isEvent()            {}
func (ActivityRestartAttempt) isEvent() {}
func (PackageChanged) isEvent()         {}
func (UserLifecycle) isEvent()          {}
func (DisplayChanged) isEvent()         {}
func (HostLifecycle) isEvent()          {}
func (Drag) isEvent()                   {}

func (RegionAppeared) isRegionEvent() {}
func (RegionVanished) isRegionEvent() {}
