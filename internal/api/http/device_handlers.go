package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// Device is the control surface of a simulated platform
type Device interface {
	StartActivity(ctx context.Context, intent types.Intent, opts types.LaunchOptions) error
	Tasks() []types.TaskInfo
	CrashTask(taskID types.TaskID) error
	EvictTask(taskID types.TaskID) error
	FocusTask(taskID types.TaskID)
	InstallPackage(pkg string)
	RemovePackage(pkg string)
	LockUser(userID int)
	UnlockUser(userID int)
	SwitchUser(userID int)
	SetDisplay(state types.DisplayState, width, height int)
}

// LaunchRequest starts an activity on the simulated device
type LaunchRequest struct {
	Component string `json:"component" binding:"required"`
	// Region targets a shell region; empty launches into the default container
	Region string `json:"region,omitempty"`
}

// DisplayRequest changes the simulated display
type DisplayRequest struct {
	State  string `json:"state" binding:"required"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// ListDeviceTasks lists every task on the device
func (h *Handlers) ListDeviceTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.device.Tasks()})
}

// StartDeviceActivity launches an activity as an external app would
func (h *Handlers) StartDeviceActivity(c *gin.Context) {
	var req LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	comp, err := types.ParseComponent(req.Component)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var target id.Token
	if req.Region != "" {
		rid, err := types.ParseRegionID(req.Region)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		snap, ok := h.snapshot(c, "resolve_region")
		if !ok {
			return
		}
		for _, r := range snap.Regions {
			if r.ID == rid {
				target = r.Token
			}
		}
		if target == "" {
			c.JSON(http.StatusConflict, gin.H{"error": "region not live: " + req.Region})
			return
		}
	}

	err = h.device.StartActivity(c.Request.Context(), types.Intent{Component: comp}, types.LaunchOptions{Target: target})
	if errors.Is(err, platform.ErrActivityNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "component": comp})
}

// CrashDeviceTask kills a task's process
func (h *Handlers) CrashDeviceTask(c *gin.Context) {
	h.vanishTask(c, h.device.CrashTask)
}

// EvictDeviceTask removes a task to reclaim memory
func (h *Handlers) EvictDeviceTask(c *gin.Context) {
	h.vanishTask(c, h.device.EvictTask)
}

func (h *Handlers) vanishTask(c *gin.Context, vanish func(types.TaskID) error) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	if err := vanish(taskID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID})
}

// FocusDeviceTask moves focus to a task
func (h *Handlers) FocusDeviceTask(c *gin.Context) {
	taskID, ok := taskParam(c)
	if !ok {
		return
	}
	h.device.FocusTask(taskID)
	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID})
}

// InstallPackage installs or updates a package
func (h *Handlers) InstallPackage(c *gin.Context) {
	pkg := c.Param("pkg")
	h.device.InstallPackage(pkg)
	c.JSON(http.StatusOK, gin.H{"success": true, "package": pkg})
}

// RemovePackage uninstalls a package
func (h *Handlers) RemovePackage(c *gin.Context) {
	pkg := c.Param("pkg")
	h.device.RemovePackage(pkg)
	c.JSON(http.StatusOK, gin.H{"success": true, "package": pkg})
}

// UserAction locks, unlocks or switches to a user
func (h *Handlers) UserAction(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	switch action := c.Param("action"); action {
	case "lock":
		h.device.LockUser(userID)
	case "unlock":
		h.device.UnlockUser(userID)
	case "switch":
		h.device.SwitchUser(userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown user action: " + action})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user_id": userID})
}

// SetDisplay changes the display power state or size
func (h *Handlers) SetDisplay(c *gin.Context) {
	var req DisplayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	state, err := parseDisplayState(req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.device.SetDisplay(state, req.Width, req.Height)
	c.JSON(http.StatusOK, gin.H{"success": true, "state": state.String()})
}

func taskParam(c *gin.Context) (types.TaskID, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return types.TaskID(n), true
}
