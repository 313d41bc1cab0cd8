package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shell"
)

type fakeSource struct {
	mu    sync.Mutex
	subs  map[id.SubscriberID]func(types.VisibilityChanged)
	state types.LayoutState
}

func newFakeSource() *fakeSource {
	return &fakeSource{subs: make(map[id.SubscriberID]func(types.VisibilityChanged)), state: types.StateDefault}
}

func (f *fakeSource) OnVisibility(fn func(types.VisibilityChanged)) (id.SubscriberID, func()) {
	sub := id.NewSubscriberID()
	f.mu.Lock()
	f.subs[sub] = fn
	f.mu.Unlock()
	return sub, func() {
		f.mu.Lock()
		delete(f.subs, sub)
		f.mu.Unlock()
	}
}

func (f *fakeSource) Snapshot(context.Context) (shell.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return shell.Snapshot{
		Layout:  layout.Status{State: f.state, Visible: f.state != types.StateControlBar},
		Running: true,
	}, nil
}

func (f *fakeSource) emit(ev types.VisibilityChanged) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fn := range f.subs {
		fn(ev)
	}
}

func (f *fakeSource) subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func setup(t *testing.T, source Source) (*websocket.Conn, *monitoring.Metrics) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	handler := NewHandler(source, DefaultConfig(), nil, metrics)

	router := gin.New()
	router.GET("/ws/visibility", handler.HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/visibility"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, metrics
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWelcomeCarriesLayout(t *testing.T) {
	conn, metrics := setup(t, newFakeSource())

	msg := read(t, conn)
	assert.Equal(t, TypeWelcome, msg.Type)
	assert.NotEmpty(t, msg.ConnID)
	require.NotNil(t, msg.Layout)
	assert.Equal(t, types.StateDefault, msg.Layout.State)
	assert.True(t, msg.Layout.Visible)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnections))
}

func TestVisibilityIsStreamed(t *testing.T) {
	source := newFakeSource()
	conn, _ := setup(t, source)
	read(t, conn)

	source.emit(types.VisibilityChanged{Visible: false, State: types.StateControlBar})

	msg := read(t, conn)
	assert.Equal(t, TypeVisibility, msg.Type)
	require.NotNil(t, msg.Visibility)
	assert.False(t, msg.Visibility.Visible)
	assert.Equal(t, types.StateControlBar, msg.Visibility.State)
}

func TestRequests(t *testing.T) {
	conn, _ := setup(t, newFakeSource())
	read(t, conn)

	tests := []struct {
		send string
		want string
	}{
		{send: `{"type":"ping"}`, want: TypePong},
		{send: `{"type":"snapshot"}`, want: TypeSnapshot},
		{send: `{"type":"launch"}`, want: TypeError},
		{send: `not json`, want: TypeError},
	}
	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.send)))
		assert.Equal(t, tt.want, read(t, conn).Type, tt.send)
	}
}

func TestDisconnectUnsubscribes(t *testing.T) {
	source := newFakeSource()
	conn, metrics := setup(t, source)
	read(t, conn)
	require.Equal(t, 1, source.subscribers())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	assert.Eventually(t, func() bool {
		return source.subscribers() == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.WSConnections) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
