package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/domain/layout"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shell"
)

// Message types
const (
	TypeWelcome    = "welcome"
	TypeVisibility = "visibility"
	TypeSnapshot   = "snapshot"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeError      = "error"
)

// Source is the shell as seen by the stream
type Source interface {
	OnVisibility(fn func(types.VisibilityChanged)) (id.SubscriberID, func())
	Snapshot(ctx context.Context) (shell.Snapshot, error)
}

// Message is one frame on the stream, in either direction
type Message struct {
	Type       string                   `json:"type"`
	ConnID     string                   `json:"conn_id,omitempty"`
	Visibility *types.VisibilityChanged `json:"visibility,omitempty"`
	Layout     *layout.Status           `json:"layout,omitempty"`
	Error      string                   `json:"error,omitempty"`
	Timestamp  int64                    `json:"timestamp,omitempty"`
}

// Config tunes the stream
type Config struct {
	// Buffer is the per-connection outbound queue; overflow drops frames
	Buffer       int
	PingInterval time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the daemon's stream settings
func DefaultConfig() Config {
	return Config{
		Buffer:       32,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Handler streams foreground visibility changes to WebSocket clients
type Handler struct {
	source   Source
	cfg      Config
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler
func NewHandler(source Source, cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultConfig().PingInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	return &Handler{
		source:  source,
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			// CORS middleware already vets origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleConnection upgrades the request and streams until either side hangs up
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.NewString()
	logger := h.logger.With(zap.String("conn_id", connID))
	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()
	logger.Debug("WebSocket connected", zap.String("remote", c.ClientIP()))

	out := make(chan Message, h.cfg.Buffer)
	writerDone := make(chan struct{})
	go h.writeLoop(conn, out, writerDone, logger)

	_, unsubscribe := h.source.OnVisibility(func(ev types.VisibilityChanged) {
		msg := Message{Type: TypeVisibility, Visibility: &ev, Timestamp: time.Now().UnixMilli()}
		select {
		case out <- msg:
		default:
			h.metrics.RecordWSMessage("out", "dropped")
		}
	})

	welcome := Message{Type: TypeWelcome, ConnID: connID, Timestamp: time.Now().UnixMilli()}
	if snap, err := h.source.Snapshot(c.Request.Context()); err == nil {
		welcome.Layout = &snap.Layout
	}
	h.enqueue(out, writerDone, welcome)

	h.readLoop(c.Request.Context(), conn, out, writerDone, logger)

	// no callback runs after unsubscribe returns, so out can be closed
	unsubscribe()
	close(out)
	<-writerDone
	logger.Debug("WebSocket disconnected")
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- Message, writerDone <-chan struct{}, logger *zap.Logger) {
	pongWait := 2 * h.cfg.PingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.enqueue(out, writerDone, Message{Type: TypeError, Error: "invalid message"})
			continue
		}
		h.metrics.RecordWSMessage("in", inboundType(msg.Type))

		switch msg.Type {
		case TypePing:
			h.enqueue(out, writerDone, Message{Type: TypePong, Timestamp: time.Now().UnixMilli()})
		case TypeSnapshot:
			snap, err := h.source.Snapshot(ctx)
			if err != nil {
				h.enqueue(out, writerDone, Message{Type: TypeError, Error: err.Error()})
				continue
			}
			h.enqueue(out, writerDone, Message{Type: TypeSnapshot, Layout: &snap.Layout, Timestamp: time.Now().UnixMilli()})
		default:
			h.enqueue(out, writerDone, Message{Type: TypeError, Error: "unknown message type"})
		}
	}
}

func inboundType(t string) string {
	switch t {
	case TypePing, TypeSnapshot:
		return t
	}
	return "unknown"
}

// enqueue blocks until the writer takes msg or has exited
func (h *Handler) enqueue(out chan<- Message, writerDone <-chan struct{}, msg Message) {
	select {
	case out <- msg:
	case <-writerDone:
	}
}

// writeLoop owns every write on conn. It exits when out is closed or a write
// fails, and closes conn on the way out.
func (h *Handler) writeLoop(conn *websocket.Conn, out <-chan Message, done chan<- struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case msg, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			data, err := sonic.Marshal(msg)
			if err != nil {
				logger.Error("Failed to encode message", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("WebSocket write error", zap.Error(err))
				return
			}
			h.metrics.RecordWSMessage("out", msg.Type)

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
