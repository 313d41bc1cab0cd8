package embedding

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Kind is the embedded task flavour
type Kind int

const (
	KindControlled Kind = iota
	KindLaunchRoot
	KindSemiControlled
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindControlled:
		return "controlled"
	case KindLaunchRoot:
		return "launch-root"
	case KindSemiControlled:
		return "semi-controlled"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// State is the lifecycle step of an embedded task
type State int

const (
	StateNotStarted State = iota
	StateStartRequested
	StateRunning
	StateCrashed
	StateEvicted
	StateRestartRequested
	StateReleased
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateStartRequested:
		return "START_REQUESTED"
	case StateRunning:
		return "RUNNING"
	case StateCrashed:
		return "CRASHED"
	case StateEvicted:
		return "EVICTED"
	case StateRestartRequested:
		return "RESTART_REQUESTED"
	case StateReleased:
		return "RELEASED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// down reports whether the task has run before and is gone now
func (s State) down() bool {
	return s == StateCrashed || s == StateEvicted || s == StateRestartRequested
}

// Policy is a set of restart behaviours
type Policy uint8

const (
	PolicyNone Policy = 0
	// PolicyRestartOnCrash starts the task again every time it vanishes
	PolicyRestartOnCrash Policy = 1 << 0
	// PolicyRestartOnDependencyChange starts the task when one of its
	// dependency packages is installed or updated. Set on every task that
	// lists dependency packages.
	PolicyRestartOnDependencyChange Policy = 1 << 1
)

var policyNames = []struct {
	bit  Policy
	name string
}{
	{PolicyRestartOnCrash, "restart-on-crash"},
	{PolicyRestartOnDependencyChange, "restart-on-dependency-change"},
}

// Has reports whether every bit of other is set
func (p Policy) Has(other Policy) bool { return p&other == other }

// String returns the policy names joined with "|"
func (p Policy) String() string {
	if p == PolicyNone {
		return "none"
	}
	var parts []string
	for _, n := range policyNames {
		if p.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// MarshalText implements encoding.TextMarshaler
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Policy) UnmarshalText(b []byte) error {
	parsed, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePolicy parses a "|" or "," separated list of policy names
func ParsePolicy(s string) (Policy, error) {
	var p Policy
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		field = strings.TrimSpace(field)
		if field == "" || field == "none" {
			continue
		}
		found := false
		for _, n := range policyNames {
			if n.name == field {
				p |= n.bit
				found = true
				break
			}
		}
		if !found {
			return PolicyNone, fmt.Errorf("unknown restart policy %q", field)
		}
	}
	return p, nil
}

// Callbacks are invoked on the executor passed at creation. Nil fields are
// skipped.
type Callbacks struct {
	OnCreated      func(Snapshot)
	OnReady        func(Snapshot)
	OnTaskAppeared func(types.TaskInfo)
	OnTaskVanished func(types.TaskInfo)
	OnReleased     func()
}

// Snapshot is a copy of an embedded task for diagnostics
type Snapshot struct {
	ID           id.EmbeddingID  `json:"id"`
	Kind         Kind            `json:"kind"`
	Name         string          `json:"name"`
	Region       types.RegionID  `json:"region"`
	State        State           `json:"state"`
	TaskID       types.TaskID    `json:"task_id"`
	Component    types.Component `json:"component"`
	Policy       Policy          `json:"policy"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Restarts     int             `json:"restarts"`
}

// embeddedTask is the state shared by every kind
type embeddedTask struct {
	id      id.EmbeddingID
	kind    Kind
	name    string
	region  types.RegionID
	state   State
	task    types.TaskInfo
	surface id.SurfaceID
	insets  types.Rect

	exec      executor.Executor
	callbacks Callbacks
}

func newEmbeddedTask(kind Kind, name string, rid types.RegionID, exec executor.Executor, cb Callbacks) embeddedTask {
	if exec == nil {
		exec = executor.Immediate{}
	}
	return embeddedTask{
		id:        id.NewEmbeddingID(),
		kind:      kind,
		name:      name,
		region:    rid,
		task:      types.TaskInfo{TaskID: types.InvalidTaskID},
		exec:      exec,
		callbacks: cb,
	}
}

// ID returns the embedding id used as the launch cookie
func (t *embeddedTask) ID() id.EmbeddingID { return t.id }

// TaskID returns the running task id or types.InvalidTaskID
func (t *embeddedTask) TaskID() types.TaskID { return t.task.TaskID }

// State returns the lifecycle step
func (t *embeddedTask) State() State { return t.state }

func (t *embeddedTask) hasTask() bool { return t.task.TaskID != types.InvalidTaskID }

func (t *embeddedTask) owns(info types.TaskInfo) bool {
	if info.LaunchCookie != "" && info.LaunchCookie == t.id {
		return true
	}
	return t.hasTask() && info.TaskID == t.task.TaskID
}

// showEmbedded unhides the task container and raises it
func (t *embeddedTask) showEmbedded(tx *transaction.Transaction) {
	if !t.hasTask() || t.task.Token == "" {
		return
	}
	tx.SetHidden(t.task.Token, false).Reorder(t.task.Token, true)
}

func (t *embeddedTask) applyInsets(tx *transaction.Transaction) {
	if !t.hasTask() || t.task.Token == "" || t.insets.Empty() {
		return
	}
	tx.SetInsets(t.task.Token, t.insets)
}

func (t *embeddedTask) appeared(tx *transaction.Transaction, info types.TaskInfo, surface id.SurfaceID) {
	t.task = info
	if surface != "" {
		t.surface = surface
		tx.Show(surface)
	}
	t.state = StateRunning
	t.showEmbedded(tx)
	t.applyInsets(tx)
	if cb := t.callbacks.OnTaskAppeared; cb != nil {
		t.exec.Execute(func() { cb(info) })
	}
}

func (t *embeddedTask) vanished(info types.TaskInfo, reason types.VanishReason) {
	t.task = types.TaskInfo{TaskID: types.InvalidTaskID}
	t.surface = ""
	if reason == types.VanishCrashed {
		t.state = StateCrashed
	} else {
		t.state = StateEvicted
	}
	if cb := t.callbacks.OnTaskVanished; cb != nil {
		t.exec.Execute(func() { cb(info) })
	}
}

func (t *embeddedTask) notify(fn func(Snapshot), snap Snapshot) {
	if fn != nil {
		t.exec.Execute(func() { fn(snap) })
	}
}

func (t *embeddedTask) snapshot() Snapshot {
	return Snapshot{
		ID:        t.id,
		Kind:      t.kind,
		Name:      t.name,
		Region:    t.region,
		State:     t.state,
		TaskID:    t.task.TaskID,
		Component: t.task.BaseActivity,
	}
}

// ControlledOptions describe a task the shell starts and keeps alive
type ControlledOptions struct {
	Name               string
	Region             types.RegionID
	Intent             types.Intent
	Policy             Policy
	DependencyPackages []string
}

// ControlledTask is a task the shell starts itself
type ControlledTask struct {
	embeddedTask
	intent   types.Intent
	policy   Policy
	deps     []string
	restarts int
}

func (t *ControlledTask) dependsOn(pkg string) bool {
	for _, d := range t.deps {
		if d == pkg {
			return true
		}
	}
	return false
}

func (t *ControlledTask) snapshot() Snapshot {
	s := t.embeddedTask.snapshot()
	if s.Component.IsZero() {
		s.Component = t.intent.Component
	}
	s.Policy = t.policy
	s.Dependencies = append([]string(nil), t.deps...)
	s.Restarts = t.restarts
	return s
}

// LaunchRootTask is the container other launches are redirected into
type LaunchRootTask struct {
	embeddedTask
}

// SemiControlledOptions describe tasks claimed from the launch root
type SemiControlledOptions struct {
	Name  string
	Match func(types.TaskInfo) bool
}

// SemiControlledTask mirrors a task the shell did not start
type SemiControlledTask struct {
	embeddedTask
	match func(types.TaskInfo) bool
}

// MatchComponents returns a predicate matching a task's base activity
// against component patterns, in short or fully qualified form.
func MatchComponents(patterns ...string) func(types.TaskInfo) bool {
	return func(info types.TaskInfo) bool {
		comp := info.BaseActivity
		if comp.IsZero() {
			comp = info.BaseIntent.Component
		}
		if comp.IsZero() {
			return false
		}
		for _, p := range patterns {
			if ok, _ := doublestar.Match(p, comp.String()); ok {
				return true
			}
			if ok, _ := doublestar.Match(p, comp.Package+"/"+comp.Class); ok {
				return true
			}
		}
		return false
	}
}
