// Package platform declares the external collaborators the shell drives:
// the screen-area service, the task service, the activity starter and the
// user and display state providers. The compositor contract lives with the
// transaction queue.
package platform

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

var (
	// ErrUnknownTask is returned for operations on a task the platform does not know
	ErrUnknownTask = errors.New("unknown task")
	// ErrActivityNotFound is returned when no activity resolves for an intent
	ErrActivityNotFound = errors.New("activity not found")
)

// RegionService organizes platform screen areas by feature id
type RegionService interface {
	// RegisterFeature starts organizing every area with the feature and
	// returns the ones that already exist.
	RegisterFeature(ctx context.Context, feature types.FeatureID) ([]types.AppearedRegion, error)
	// UnregisterFeature stops organizing the feature
	UnregisterFeature(ctx context.Context, feature types.FeatureID) error
}

// TaskService organizes tasks placed in shell-owned containers
type TaskService interface {
	// RegisterTaskOrganizer starts receiving task events and returns the
	// tasks that already exist.
	RegisterTaskOrganizer(ctx context.Context) ([]types.TaskInfo, error)
	// CreateRootTask creates an empty container task inside target that
	// launches can be redirected into.
	CreateRootTask(ctx context.Context, target id.Token, cookie id.EmbeddingID) (types.TaskInfo, error)
	// RemoveTask finishes a task
	RemoveTask(ctx context.Context, task types.TaskID) error
}

// ActivityStarter launches activities
type ActivityStarter interface {
	StartActivity(ctx context.Context, intent types.Intent, opts types.LaunchOptions) error
}

// ActivityTracker receives task lifecycle events nobody in the shell claimed
type ActivityTracker interface {
	ReportTaskEvent(ev types.TaskEvent)
}

// UserService reports user lock state
type UserService interface {
	IsUserUnlocked(userID int) bool
}

// DisplayService reports display power state
type DisplayService interface {
	DisplayState() types.DisplayState
}
