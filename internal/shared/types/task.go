package types

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
)

// TaskID is the platform's running-task identifier
type TaskID int

// InvalidTaskID marks "no task running"
const InvalidTaskID TaskID = -1

// Component names an activity: package plus class
type Component struct {
	Package string `json:"package" yaml:"package" toml:"package"`
	Class   string `json:"class" yaml:"class" toml:"class"`
}

// IsZero reports whether the component is unset
func (c Component) IsZero() bool { return c.Package == "" && c.Class == "" }

// String flattens to the short "pkg/.Class" form when the class lives inside
// the package namespace.
func (c Component) String() string {
	if c.IsZero() {
		return ""
	}
	cls := c.Class
	if strings.HasPrefix(cls, c.Package+".") {
		cls = cls[len(c.Package):]
	}
	return c.Package + "/" + cls
}

// ParseComponent reverses String. A leading dot in the class expands to the
// package name.
func ParseComponent(s string) (Component, error) {
	pkg, cls, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || pkg == "" || cls == "" {
		return Component{}, fmt.Errorf("invalid component %q", s)
	}
	if strings.HasPrefix(cls, ".") {
		cls = pkg + cls
	}
	return Component{Package: pkg, Class: cls}, nil
}

// MarshalText implements encoding.TextMarshaler
func (c Component) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Component) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = Component{}
		return nil
	}
	v, err := ParseComponent(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Intent describes what to launch
type Intent struct {
	Action     string    `json:"action,omitempty"`
	Component  Component `json:"component"`
	Categories []string  `json:"categories,omitempty"`
}

// WindowingMode of a task
type WindowingMode int

const (
	WindowingUndefined WindowingMode = iota
	WindowingFullscreen
	// WindowingMultiWindow is only used by embedded tasks
	WindowingMultiWindow
)

// TaskInfo is the platform's view of a running task
type TaskInfo struct {
	TaskID        TaskID         `json:"task_id"`
	Token         id.Token       `json:"token"`
	Feature       FeatureID      `json:"feature"`
	BaseIntent    Intent         `json:"base_intent"`
	BaseActivity  Component      `json:"base_activity"`
	TopActivity   Component      `json:"top_activity"`
	WindowingMode WindowingMode  `json:"windowing_mode"`
	LaunchCookie  id.EmbeddingID `json:"launch_cookie,omitempty"`
	ParentTaskID  TaskID         `json:"parent_task_id"`
	UserID        int            `json:"user_id"`
	Visible       bool           `json:"visible"`
}

// VanishReason explains why a task left
type VanishReason int

const (
	VanishUnknown VanishReason = iota
	// VanishCrashed means the task's process died
	VanishCrashed
	// VanishEvicted means the platform removed the task (memory, policy)
	VanishEvicted
	// VanishFinished means the task finished on its own
	VanishFinished
)

// String returns the string representation of the reason
func (r VanishReason) String() string {
	switch r {
	case VanishCrashed:
		return "crashed"
	case VanishEvicted:
		return "evicted"
	case VanishFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// LaunchOptions accompanies a start request
type LaunchOptions struct {
	// Target is the container the new task must be placed in
	Target id.Token `json:"target"`
	// Bounds are the on-screen launch bounds, empty for "fill the target"
	Bounds Rect `json:"bounds"`
	// Cookie tags the resulting task so its events route back to the owner
	Cookie id.EmbeddingID `json:"cookie,omitempty"`
	// NoAnimation suppresses enter/exit animations
	NoAnimation bool `json:"no_animation"`
}
