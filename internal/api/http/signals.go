package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// ErrUnknownSignal is returned for signal types the shell does not consume
var ErrUnknownSignal = errors.New("unknown signal")

// Signal is the wire form of an external shell signal
type Signal struct {
	Type string `json:"type" binding:"required"`

	// Action selects the variant for package, user and host signals
	Action string `json:"action,omitempty"`

	Package        string  `json:"package,omitempty"`
	TaskID         int     `json:"task_id,omitempty"`
	Component      string  `json:"component,omitempty"`
	Focused        bool    `json:"focused,omitempty"`
	HomeVisible    bool    `json:"home_visible,omitempty"`
	UserID         int     `json:"user_id,omitempty"`
	PreviousUserID int     `json:"previous_user_id,omitempty"`
	Display        string  `json:"display,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Y              float64 `json:"y,omitempty"`
}

// Event converts the signal into the event the shell dispatches
func (s Signal) Event() (types.Event, error) {
	switch s.Type {
	case "package":
		action, err := parsePackageAction(s.Action)
		if err != nil {
			return nil, err
		}
		if s.Package == "" {
			return nil, errors.New("package signal without package")
		}
		return types.PackageChanged{Action: action, Package: s.Package}, nil

	case "user":
		switch s.Action {
		case "unlocked":
			return types.UserLifecycle{Kind: types.UserUnlocked, UserID: s.UserID}, nil
		case "switching":
			return types.UserLifecycle{Kind: types.UserSwitching, UserID: s.UserID, PreviousUserID: s.PreviousUserID}, nil
		}
		return nil, fmt.Errorf("unknown user action %q", s.Action)

	case "host":
		switch s.Action {
		case "resumed":
			return types.HostLifecycle{Kind: types.HostResumed}, nil
		case "stopped":
			return types.HostLifecycle{Kind: types.HostStopped}, nil
		case "destroyed":
			return types.HostLifecycle{Kind: types.HostDestroyed}, nil
		}
		return nil, fmt.Errorf("unknown host action %q", s.Action)

	case "display":
		state, err := parseDisplayState(s.Display)
		if err != nil {
			return nil, err
		}
		return types.DisplayChanged{State: state, Width: s.Width, Height: s.Height}, nil

	case "focus":
		return types.TaskFocusChanged{TaskID: types.TaskID(s.TaskID), Focused: s.Focused}, nil

	case "task-created":
		comp, err := types.ParseComponent(s.Component)
		if err != nil {
			return nil, err
		}
		return types.TaskCreated{TaskID: types.TaskID(s.TaskID), Component: comp}, nil

	case "restart-attempt":
		comp, err := types.ParseComponent(s.Component)
		if err != nil {
			return nil, err
		}
		return types.ActivityRestartAttempt{
			Task: types.TaskInfo{
				TaskID:       types.TaskID(s.TaskID),
				BaseActivity: comp,
				TopActivity:  comp,
			},
			HomeTaskVisible: s.HomeVisible,
		}, nil

	case "drag":
		switch s.Action {
		case "start":
			return types.Drag{Phase: types.DragStart, Y: s.Y}, nil
		case "move":
			return types.Drag{Phase: types.DragMove, Y: s.Y}, nil
		case "end":
			return types.Drag{Phase: types.DragEnd, Y: s.Y}, nil
		}
		return nil, fmt.Errorf("unknown drag phase %q", s.Action)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSignal, s.Type)
}

func parsePackageAction(s string) (types.PackageAction, error) {
	for _, a := range []types.PackageAction{types.PackageAdded, types.PackageRemoved, types.PackageReplaced} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown package action %q", s)
}

func parseDisplayState(s string) (types.DisplayState, error) {
	switch s {
	case "on":
		return types.DisplayOn, nil
	case "off":
		return types.DisplayOff, nil
	case "", "unknown":
		return types.DisplayUnknown, nil
	}
	return 0, fmt.Errorf("unknown display state %q", s)
}

// PostSignal decodes one signal and dispatches it onto the shell
func (h *Handlers) PostSignal(c *gin.Context) {
	var sig Signal
	if err := c.ShouldBindJSON(&sig); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, err := sig.Event()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.core.Dispatch(ev)
	h.logger.Debug("Signal dispatched",
		zap.String("type", sig.Type),
		zap.String("action", sig.Action))
	c.JSON(http.StatusAccepted, gin.H{"success": true, "type": sig.Type})
}
