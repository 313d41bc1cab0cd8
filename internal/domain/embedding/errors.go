package embedding

import "errors"

var (
	// ErrLaunchRootExists is returned when a second launch root is requested
	ErrLaunchRootExists = errors.New("launch root already exists")
	// ErrNoLaunchRoot is returned when a semi-controlled task is created
	// before the launch root
	ErrNoLaunchRoot = errors.New("no launch root")
	// ErrRegionUnavailable is returned when the bound region has no surface
	ErrRegionUnavailable = errors.New("region unavailable")
	// ErrReleased is returned by create calls after Release
	ErrReleased = errors.New("embedding manager released")
	// ErrInvalidOptions is returned for an embedded task with no component
	ErrInvalidOptions = errors.New("invalid embedded task options")
	// ErrUnknownEmbedding is returned for an id the manager does not own
	ErrUnknownEmbedding = errors.New("unknown embedded task")
)
