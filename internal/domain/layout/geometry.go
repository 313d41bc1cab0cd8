package layout

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// NavPosition is where the system navigation bar sits
type NavPosition int

const (
	NavNone NavPosition = iota
	NavLeft
	NavRight
	NavBottom
)

// String returns the string representation of the position
func (p NavPosition) String() string {
	switch p {
	case NavLeft:
		return "left"
	case NavRight:
		return "right"
	case NavBottom:
		return "bottom"
	default:
		return "none"
	}
}

// ParseNavPosition accepts none, left, right or bottom
func ParseNavPosition(s string) (NavPosition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NavNone, nil
	case "left":
		return NavLeft, nil
	case "right":
		return NavRight, nil
	case "bottom":
		return NavBottom, nil
	}
	return NavNone, fmt.Errorf("unknown nav bar position %q", s)
}

// densityDefault is the reference density dp values are expressed in
const densityDefault = 160

// Geometry is everything bounds depend on
type Geometry struct {
	Width  int
	Height int
	DPI    int

	NavPosition NavPosition
	NavSize     int

	ControlBarHeight int
	DefaultHeight    int
	FullHeight       int
	TitleBarHeight   int
}

// Usable returns the screen rectangle left after the nav bar
func (g Geometry) Usable() types.Rect {
	r := types.NewRect(0, 0, g.Width, g.Height)
	switch g.NavPosition {
	case NavLeft:
		r.Left = g.NavSize
	case NavRight:
		r.Right = g.Width - g.NavSize
	case NavBottom:
		r.Bottom = g.Height - g.NavSize
	}
	return r
}

// Validate rejects geometry that cannot produce non-overlapping regions
func (g Geometry) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return fmt.Errorf("invalid screen size %dx%d", g.Width, g.Height)
	}
	if g.NavPosition != NavNone && g.NavSize < 0 {
		return fmt.Errorf("invalid nav bar size %d", g.NavSize)
	}
	u := g.Usable()
	if u.Empty() {
		return fmt.Errorf("nav bar leaves no usable area")
	}
	if g.ControlBarHeight <= 0 || g.DefaultHeight <= 0 || g.TitleBarHeight < 0 {
		return fmt.Errorf("region heights must be positive")
	}
	if g.ControlBarHeight+g.DefaultHeight+g.TitleBarHeight > u.Height() {
		return fmt.Errorf("default layout (%d) taller than usable height %d",
			g.ControlBarHeight+g.DefaultHeight+g.TitleBarHeight, u.Height())
	}
	if g.FullHeight > 0 && g.ControlBarHeight+g.FullHeight > u.Height() {
		return fmt.Errorf("full layout taller than usable height %d", u.Height())
	}
	return nil
}

// Dp converts a pixel length to density-independent pixels
func (g Geometry) Dp(px int) int {
	if g.DPI <= 0 {
		return px
	}
	return px * densityDefault / g.DPI
}

// Snapshot holds every region's rectangle for one layout state
type Snapshot struct {
	State        types.LayoutState `json:"state"`
	Background   types.Rect        `json:"background"`
	Foreground   types.Rect        `json:"foreground"`
	TitleBar     types.Rect        `json:"title_bar"`
	ControlBar   types.Rect        `json:"control_bar"`
	VoiceOverlay types.Rect        `json:"voice_overlay"`
	IME          types.Rect        `json:"ime"`
}

// For returns the rectangle of one region
func (s Snapshot) For(rid types.RegionID) types.Rect {
	switch rid {
	case types.RegionBackground:
		return s.Background
	case types.RegionForeground:
		return s.Foreground
	case types.RegionTitleBar:
		return s.TitleBar
	case types.RegionControlBar:
		return s.ControlBar
	case types.RegionVoiceOverlay:
		return s.VoiceOverlay
	case types.RegionIME:
		return s.IME
	}
	return types.Rect{}
}

// ComputeBounds places every region for state. It depends only on its
// arguments.
//
// In CONTROL_BAR the foreground and title bar are parked just below the
// usable area. In FULL the foreground covers the background, which keeps its
// CONTROL_BAR rectangle.
func ComputeBounds(g Geometry, state types.LayoutState) Snapshot {
	u := g.Usable()
	left, right, screenH := u.Left, u.Right, u.Bottom
	controlTop := screenH - g.ControlBarHeight

	s := Snapshot{
		State:        state,
		ControlBar:   types.NewRect(left, controlTop, right, screenH),
		VoiceOverlay: types.NewRect(left, 0, right, controlTop),
		Background:   types.NewRect(left, 0, right, controlTop),
	}

	switch state {
	case types.StateDefault:
		fgTop := controlTop - g.DefaultHeight
		s.Foreground = types.NewRect(left, fgTop, right, controlTop)
		s.TitleBar = types.NewRect(left, fgTop-g.TitleBarHeight, right, fgTop)
		s.Background = types.NewRect(left, 0, right, fgTop-g.TitleBarHeight)
	case types.StateFull:
		fgTop := controlTop - g.FullHeight
		s.Foreground = types.NewRect(left, fgTop, right, controlTop)
		s.TitleBar = types.NewRect(left, fgTop-g.TitleBarHeight, right, fgTop)
	default:
		parked := screenH + g.TitleBarHeight
		s.Foreground = types.NewRect(left, parked, right, parked+g.DefaultHeight)
		s.TitleBar = types.NewRect(left, screenH, right, screenH+g.TitleBarHeight)
	}
	s.IME = s.Background
	return s
}
