package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/embedding"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shell"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Core is the part of the shell the API drives
type Core interface {
	Snapshot(ctx context.Context) (shell.Snapshot, error)
	StartAnimation(ctx context.Context, target types.LayoutState) error
	Bounds(ctx context.Context, state types.LayoutState) (layout.Snapshot, error)
	SetInsets(ctx context.Context, emb id.EmbeddingID, insets types.Rect) error
	Dispatch(ev types.Event)
}

// Handlers contains all HTTP handlers
type Handlers struct {
	core    Core
	device  Device
	logger  *logging.Logger
	metrics *monitoring.Metrics
	track   *HandlerMetrics
	started time.Time
}

// NewHandlers creates a new handler set. device may be nil when the shell
// runs against a real platform.
func NewHandlers(core Core, device Device, logger *logging.Logger, metrics *monitoring.Metrics) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		core:    core,
		device:  device,
		logger:  logger,
		metrics: metrics,
		track:   NewHandlerMetrics(metrics),
		started: time.Now(),
	}
}

// Register mounts every route on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/regions", h.ListRegions)
	r.GET("/tasks", h.ListTasks)
	r.PUT("/tasks/:id/insets", h.SetInsets)

	r.GET("/layout", h.GetLayout)
	r.POST("/layout", h.SetLayout)
	r.GET("/layout/bounds/:state", h.GetBounds)

	r.POST("/signals", h.PostSignal)

	r.GET("/logging/level", h.GetLogLevel)
	r.PUT("/logging/level", h.SetLogLevel)

	r.GET("/metrics/json", h.GetMetrics)

	if h.device != nil {
		r.GET("/sim/tasks", h.ListDeviceTasks)
		r.POST("/sim/tasks", h.StartDeviceActivity)
		r.POST("/sim/tasks/:id/crash", h.CrashDeviceTask)
		r.POST("/sim/tasks/:id/evict", h.EvictDeviceTask)
		r.POST("/sim/tasks/:id/focus", h.FocusDeviceTask)
		r.PUT("/sim/packages/:pkg", h.InstallPackage)
		r.DELETE("/sim/packages/:pkg", h.RemovePackage)
		r.POST("/sim/users/:id/:action", h.UserAction)
		r.PUT("/sim/display", h.SetDisplay)
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "homeshell",
		"version": Version,
	})
}

// Health reports whether the shell is running
func (h *Handlers) Health(c *gin.Context) {
	snap, err := h.core.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "stopped", "error": err.Error()})
		return
	}

	status, code := "healthy", http.StatusOK
	if !snap.Running {
		status, code = "starting", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":         status,
		"regions":        len(snap.Regions),
		"tasks":          len(snap.Tasks),
		"layout":         snap.Layout.State,
		"uptime_seconds": time.Since(h.started).Seconds(),
	})
}

// ListRegions lists every registered region
func (h *Handlers) ListRegions(c *gin.Context) {
	snap, ok := h.snapshot(c, "list_regions")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"regions": snap.Regions})
}

// ListTasks lists embedded tasks
func (h *Handlers) ListTasks(c *gin.Context) {
	snap, ok := h.snapshot(c, "list_tasks")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": snap.Tasks})
}

// SetInsets applies insets to an embedded task's container
func (h *Handlers) SetInsets(c *gin.Context) {
	emb := id.EmbeddingID(c.Param("id"))
	if !id.IsValidPrefixed(string(emb), id.EmbeddingPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid embedding id"})
		return
	}

	var insets types.Rect
	if err := c.ShouldBindJSON(&insets); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.track.Track("set_insets")
	err := h.core.SetInsets(c.Request.Context(), emb, insets)
	done(err)
	switch {
	case errors.Is(err, embedding.ErrUnknownEmbedding):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "embedding_id": emb})
	}
}

// GetLayout returns the layout controller status
func (h *Handlers) GetLayout(c *gin.Context) {
	snap, ok := h.snapshot(c, "get_layout")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"layout":     snap.Layout,
		"animations": snap.Animations,
	})
}

// LayoutRequest moves the layout to a new state
type LayoutRequest struct {
	State string `json:"state" binding:"required"`
}

// SetLayout starts an animation toward the requested state
func (h *Handlers) SetLayout(c *gin.Context) {
	var req LayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target, err := types.ParseLayoutState(req.State)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.track.Track("set_layout")
	err = h.core.StartAnimation(c.Request.Context(), target)
	done(err)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true, "target": target})
}

// GetBounds returns the computed region rectangles for a state
func (h *Handlers) GetBounds(c *gin.Context) {
	state, err := types.ParseLayoutState(c.Param("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	done := h.track.Track("get_bounds")
	bounds, err := h.core.Bounds(c.Request.Context(), state)
	done(err)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bounds)
}

// GetMetrics returns counters as JSON alongside a shell summary
func (h *Handlers) GetMetrics(c *gin.Context) {
	body := gin.H{
		"timestamp": time.Now().Unix(),
		"metrics":   h.metrics.GetSnapshot(),
	}
	if snap, err := h.core.Snapshot(c.Request.Context()); err == nil {
		body["shell"] = gin.H{
			"running":    snap.Running,
			"regions":    len(snap.Regions),
			"tasks":      len(snap.Tasks),
			"animations": len(snap.Animations),
			"layout":     snap.Layout.State,
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handlers) snapshot(c *gin.Context, op string) (shell.Snapshot, bool) {
	done := h.track.Track(op)
	snap, err := h.core.Snapshot(c.Request.Context())
	done(err)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return shell.Snapshot{}, false
	}
	return snap, true
}
