package types

import (
	"fmt"
	"strings"
)

// LayoutState is one of the fixed target configurations for all regions
type LayoutState int

const (
	// StateControlBar shows only the control bar over the background app
	StateControlBar LayoutState = iota
	// StateDefault opens the foreground region to its default height
	StateDefault
	// StateFull expands the foreground region over the background app
	StateFull
)

// AllStates lists every layout state
func AllStates() []LayoutState {
	return []LayoutState{StateControlBar, StateDefault, StateFull}
}

// String returns the string representation of the state
func (s LayoutState) String() string {
	switch s {
	case StateControlBar:
		return "CONTROL_BAR"
	case StateDefault:
		return "DEFAULT"
	case StateFull:
		return "FULL"
	default:
		return "UNKNOWN"
	}
}

// ParseLayoutState accepts the canonical name in any case
func ParseLayoutState(s string) (LayoutState, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "CONTROL_BAR":
		return StateControlBar, nil
	case "DEFAULT":
		return StateDefault, nil
	case "FULL":
		return StateFull, nil
	}
	return 0, fmt.Errorf("unknown layout state %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (s LayoutState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *LayoutState) UnmarshalText(b []byte) error {
	v, err := ParseLayoutState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
