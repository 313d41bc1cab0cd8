// Package testutil provides mocks and fixtures for shell tests.
package testutil

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/transaction"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

// MockRegionService is a mock implementation of platform.RegionService.
type MockRegionService struct {
	mock.Mock
}

// RegisterFeature mocks the RegisterFeature method.
func (m *MockRegionService) RegisterFeature(ctx context.Context, feature types.FeatureID) ([]types.AppearedRegion, error) {
	args := m.Called(ctx, feature)
	if fn, ok := args.Get(0).(func(context.Context, types.FeatureID) []types.AppearedRegion); ok {
		return fn(ctx, feature), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.AppearedRegion), args.Error(1)
}

// UnregisterFeature mocks the UnregisterFeature method.
func (m *MockRegionService) UnregisterFeature(ctx context.Context, feature types.FeatureID) error {
	return m.Called(ctx, feature).Error(0)
}

// MockTaskService is a mock implementation of platform.TaskService.
type MockTaskService struct {
	mock.Mock
}

// RegisterTaskOrganizer mocks the RegisterTaskOrganizer method.
func (m *MockTaskService) RegisterTaskOrganizer(ctx context.Context) ([]types.TaskInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.TaskInfo), args.Error(1)
}

// CreateRootTask mocks the CreateRootTask method.
func (m *MockTaskService) CreateRootTask(ctx context.Context, target id.Token, cookie id.EmbeddingID) (types.TaskInfo, error) {
	args := m.Called(ctx, target, cookie)
	return args.Get(0).(types.TaskInfo), args.Error(1)
}

// RemoveTask mocks the RemoveTask method.
func (m *MockTaskService) RemoveTask(ctx context.Context, task types.TaskID) error {
	return m.Called(ctx, task).Error(0)
}

// MockActivityStarter is a mock implementation of platform.ActivityStarter.
type MockActivityStarter struct {
	mock.Mock
}

// StartActivity mocks the StartActivity method.
func (m *MockActivityStarter) StartActivity(ctx context.Context, intent types.Intent, opts types.LaunchOptions) error {
	return m.Called(ctx, intent, opts).Error(0)
}

// MockActivityTracker is a mock implementation of platform.ActivityTracker.
type MockActivityTracker struct {
	mock.Mock
}

// ReportTaskEvent mocks the ReportTaskEvent method.
func (m *MockActivityTracker) ReportTaskEvent(ev types.TaskEvent) {
	m.Called(ev)
}

// MockUserService is a mock implementation of platform.UserService.
type MockUserService struct {
	mock.Mock
}

// IsUserUnlocked mocks the IsUserUnlocked method.
func (m *MockUserService) IsUserUnlocked(userID int) bool {
	return m.Called(userID).Bool(0)
}

// MockDisplayService is a mock implementation of platform.DisplayService.
type MockDisplayService struct {
	mock.Mock
}

// DisplayState mocks the DisplayState method.
func (m *MockDisplayService) DisplayState() types.DisplayState {
	return m.Called().Get(0).(types.DisplayState)
}

// NewMockRegionService creates a region service that reports one area per
// requested feature, with tokens and surfaces derived from the feature id.
func NewMockRegionService(t *testing.T) *MockRegionService {
	t.Helper()
	m := new(MockRegionService)

	m.On("RegisterFeature", mock.Anything, mock.Anything).
		Return(func(_ context.Context, f types.FeatureID) []types.AppearedRegion {
			return []types.AppearedRegion{AreaFor(f)}
		}, nil).
		Maybe()
	m.On("UnregisterFeature", mock.Anything, mock.Anything).Return(nil).Maybe()

	return m
}

// NewMockActivityStarter creates a starter that accepts every launch.
func NewMockActivityStarter(t *testing.T) *MockActivityStarter {
	t.Helper()
	m := new(MockActivityStarter)
	m.On("StartActivity", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}

// NewMockActivityTracker creates a tracker that accepts every report.
func NewMockActivityTracker(t *testing.T) *MockActivityTracker {
	t.Helper()
	m := new(MockActivityTracker)
	m.On("ReportTaskEvent", mock.Anything).Return().Maybe()
	return m
}

// AreaFor builds a deterministic root-attached area for a feature
func AreaFor(f types.FeatureID) types.AppearedRegion {
	return types.AppearedRegion{
		Info: types.RegionInfo{
			Feature:     f,
			RootFeature: types.FeatureRoot,
			Token:       TokenFor(f),
		},
		Surface: SurfaceFor(f),
	}
}

// TokenFor returns the container token AreaFor uses
func TokenFor(f types.FeatureID) id.Token {
	return id.Token("tok_area_" + strconv.Itoa(int(f)))
}

// SurfaceFor returns the surface AreaFor uses
func SurfaceFor(f types.FeatureID) id.SurfaceID {
	return id.SurfaceID("srf_area_" + strconv.Itoa(int(f)))
}

// RecordingCompositor captures every committed batch
type RecordingCompositor struct {
	mu      sync.Mutex
	batches [][]transaction.Op
}

// Apply implements transaction.Compositor
func (r *RecordingCompositor) Apply(tx *transaction.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, tx.Ops())
	return nil
}

// Batches returns every committed batch
func (r *RecordingCompositor) Batches() [][]transaction.Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]transaction.Op, len(r.batches))
	copy(out, r.batches)
	return out
}

// Ops returns every committed op, flattened in commit order
func (r *RecordingCompositor) Ops() []transaction.Op {
	var out []transaction.Op
	for _, b := range r.Batches() {
		out = append(out, b...)
	}
	return out
}

// Last returns the last op of kind committed for target
func (r *RecordingCompositor) Last(kind transaction.Kind, target string) (transaction.Op, bool) {
	ops := r.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Kind == kind && ops[i].Target() == target {
			return ops[i], true
		}
	}
	return transaction.Op{}, false
}

// Reset drops recorded batches
func (r *RecordingCompositor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = nil
}

// ManualClock is a settable clock for animation tests
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock starts a clock at a fixed instant
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(1_700_000_000, 0)}
}

// Now returns the current instant
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
