package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	apihttp "github.com/GriffinCanCode/AgentOS/homeshell/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/animation"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Health is the daemon's health report
type Health struct {
	Status        string            `json:"status"`
	Regions       int               `json:"regions"`
	Tasks         int               `json:"tasks"`
	Layout        types.LayoutState `json:"layout"`
	UptimeSeconds float64           `json:"uptime_seconds"`
}

// Task is an embedded task as reported by the daemon
type Task struct {
	ID           id.EmbeddingID  `json:"id"`
	Kind         string          `json:"kind"`
	Name         string          `json:"name"`
	Region       types.RegionID  `json:"region"`
	State        string          `json:"state"`
	TaskID       types.TaskID    `json:"task_id"`
	Component    types.Component `json:"component"`
	Policy       string          `json:"policy"`
	Dependencies []string        `json:"dependencies,omitempty"`
	Restarts     int             `json:"restarts"`
}

// Layout is the layout controller status with its running animations
type Layout struct {
	Status     layout.Status     `json:"layout"`
	Animations []animation.State `json:"animations"`
}

// Health fetches the daemon's health. A starting shell answers 503, which
// is returned as an *APIError.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Regions lists the registered regions
func (c *Client) Regions(ctx context.Context) ([]types.Region, error) {
	var out struct {
		Regions []types.Region `json:"regions"`
	}
	if err := c.do(ctx, http.MethodGet, "/regions", nil, &out); err != nil {
		return nil, err
	}
	return out.Regions, nil
}

// Tasks lists the embedded tasks
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// SetInsets applies insets to an embedded task's container
func (c *Client) SetInsets(ctx context.Context, emb id.EmbeddingID, insets types.Rect) error {
	return c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(string(emb))+"/insets", insets, nil)
}

// Layout returns the layout status
func (c *Client) Layout(ctx context.Context) (*Layout, error) {
	var out Layout
	if err := c.do(ctx, http.MethodGet, "/layout", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetLayout starts an animation toward state
func (c *Client) SetLayout(ctx context.Context, state types.LayoutState) error {
	return c.do(ctx, http.MethodPost, "/layout", apihttp.LayoutRequest{State: state.String()}, nil)
}

// Bounds returns the region rectangles computed for state
func (c *Client) Bounds(ctx context.Context, state types.LayoutState) (*layout.Snapshot, error) {
	var out layout.Snapshot
	if err := c.do(ctx, http.MethodGet, "/layout/bounds/"+state.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Signal posts an external signal
func (c *Client) Signal(ctx context.Context, sig apihttp.Signal) error {
	return c.do(ctx, http.MethodPost, "/signals", sig, nil)
}

// LogLevel returns the daemon's log level
func (c *Client) LogLevel(ctx context.Context) (string, error) {
	var out struct {
		Level string `json:"level"`
	}
	if err := c.do(ctx, http.MethodGet, "/logging/level", nil, &out); err != nil {
		return "", err
	}
	return out.Level, nil
}

// SetLogLevel changes the daemon's log level
func (c *Client) SetLogLevel(ctx context.Context, level string) error {
	return c.do(ctx, http.MethodPut, "/logging/level", apihttp.LogLevelRequest{Level: level}, nil)
}

// DeviceTasks lists every task on the simulated device
func (c *Client) DeviceTasks(ctx context.Context) ([]types.TaskInfo, error) {
	var out struct {
		Tasks []types.TaskInfo `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/sim/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// Launch starts an activity on the simulated device. region may be empty.
func (c *Client) Launch(ctx context.Context, component, region string) error {
	return c.do(ctx, http.MethodPost, "/sim/tasks", apihttp.LaunchRequest{Component: component, Region: region}, nil)
}

// CrashTask kills a task's process on the simulated device
func (c *Client) CrashTask(ctx context.Context, taskID int) error {
	return c.do(ctx, http.MethodPost, taskPath(taskID, "crash"), nil, nil)
}

// EvictTask removes a task to reclaim memory
func (c *Client) EvictTask(ctx context.Context, taskID int) error {
	return c.do(ctx, http.MethodPost, taskPath(taskID, "evict"), nil, nil)
}

// FocusTask moves focus to a task
func (c *Client) FocusTask(ctx context.Context, taskID int) error {
	return c.do(ctx, http.MethodPost, taskPath(taskID, "focus"), nil, nil)
}

// InstallPackage installs or updates a package
func (c *Client) InstallPackage(ctx context.Context, pkg string) error {
	return c.do(ctx, http.MethodPut, "/sim/packages/"+url.PathEscape(pkg), nil, nil)
}

// RemovePackage uninstalls a package
func (c *Client) RemovePackage(ctx context.Context, pkg string) error {
	return c.do(ctx, http.MethodDelete, "/sim/packages/"+url.PathEscape(pkg), nil, nil)
}

// User runs lock, unlock or switch for a user
func (c *Client) User(ctx context.Context, userID int, action string) error {
	return c.do(ctx, http.MethodPost, "/sim/users/"+strconv.Itoa(userID)+"/"+url.PathEscape(action), nil, nil)
}

// SetDisplay changes the simulated display
func (c *Client) SetDisplay(ctx context.Context, req apihttp.DisplayRequest) error {
	return c.do(ctx, http.MethodPut, "/sim/display", req, nil)
}
