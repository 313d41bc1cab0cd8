package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/GriffinCanCode/AgentOS/homeshell/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
)

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(Config{
		URL:              srv.URL,
		Timeout:          2 * time.Second,
		BreakerThreshold: 2,
		BreakerCooldown:  time.Minute,
	}, nil)
}

func TestHealth(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":         "healthy",
			"regions":        6,
			"tasks":          2,
			"layout":         "DEFAULT",
			"uptime_seconds": 1.5,
		})
	})
	c := newTestClient(t, mux)

	h, err := c.Health(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, 6, h.Regions)
	assert.Equal(t, types.StateDefault, h.Layout)
}

func TestRegionsAndTasks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /regions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"regions": []types.Region{{ID: types.RegionForeground, Layer: 3, Visible: true}},
		})
	})
	mux.HandleFunc("GET /tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"tasks": []map[string]any{{
				"id":        "emb_1",
				"kind":      "controlled",
				"name":      "maps",
				"region":    "background",
				"state":     "RUNNING",
				"task_id":   7,
				"component": "com.example.maps/.Main",
				"policy":    "restart_on_crash",
				"restarts":  1,
			}},
		})
	})
	c := newTestClient(t, mux)

	regions, err := c.Regions(testContext(t))
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, types.RegionForeground, regions[0].ID)
	assert.True(t, regions[0].Visible)

	tasks, err := c.Tasks(testContext(t))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "maps", tasks[0].Name)
	assert.Equal(t, types.TaskID(7), tasks[0].TaskID)
	assert.Equal(t, "com.example.maps", tasks[0].Component.Package)
}

func TestSetLayoutSendsState(t *testing.T) {
	var got apihttp.LayoutRequest
	mux := http.NewServeMux()
	mux.HandleFunc("POST /layout", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		writeJSON(w, http.StatusAccepted, map[string]any{"success": true})
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.SetLayout(testContext(t), types.StateControlBar))
	assert.Equal(t, "CONTROL_BAR", got.State)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /tasks/{id}/insets", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "unknown embedding"})
	})
	c := newTestClient(t, mux)

	for i := 0; i < 3; i++ {
		err := c.SetInsets(testContext(t), "emb_missing", types.Rect{Top: 10})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, StatusCode(err))
		assert.Contains(t, err.Error(), "unknown embedding")
	}
	assert.Equal(t, resilience.StateClosed, c.Breaker().State())
}

func TestServerErrorsOpenBreaker(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /layout", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "shell stopped"})
	})
	c := newTestClient(t, mux)

	for i := 0; i < 2; i++ {
		_, err := c.Layout(testContext(t))
		require.Error(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
	}
	assert.Equal(t, resilience.StateOpen, c.Breaker().State())

	_, err := c.Layout(testContext(t))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load())
}

func TestDeviceCalls(t *testing.T) {
	var paths []string
	mux := http.NewServeMux()
	record := func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
	mux.HandleFunc("/sim/", record)
	c := newTestClient(t, mux)
	ctx := testContext(t)

	require.NoError(t, c.CrashTask(ctx, 4))
	require.NoError(t, c.EvictTask(ctx, 4))
	require.NoError(t, c.FocusTask(ctx, 5))
	require.NoError(t, c.InstallPackage(ctx, "com.example.radio"))
	require.NoError(t, c.RemovePackage(ctx, "com.example.radio"))
	require.NoError(t, c.User(ctx, 11, "switch"))
	require.NoError(t, c.SetDisplay(ctx, apihttp.DisplayRequest{State: "off"}))

	assert.Equal(t, []string{
		"POST /sim/tasks/4/crash",
		"POST /sim/tasks/4/evict",
		"POST /sim/tasks/5/focus",
		"PUT /sim/packages/com.example.radio",
		"DELETE /sim/packages/com.example.radio",
		"POST /sim/users/11/switch",
		"PUT /sim/display",
	}, paths)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SHELLCTL_URL", "http://shell.local:9000")
	t.Setenv("SHELLCTL_BREAKER_THRESHOLD", "3")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://shell.local:9000", cfg.URL)
	assert.Equal(t, 3, cfg.BreakerThreshold)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 200*time.Millisecond, cfg.RetryWait)
}

func TestStatusCodeOfOtherErrors(t *testing.T) {
	assert.Equal(t, 0, StatusCode(io.EOF))
}

// testContext stands in for testing.T.Context (Go 1.24+): a context that is
// canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
