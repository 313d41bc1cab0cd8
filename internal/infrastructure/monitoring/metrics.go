package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Region metrics
	RegionsLive  prometheus.Gauge
	RegionEvents *prometheus.CounterVec
	RegionLayers *prometheus.GaugeVec

	// Transaction metrics
	TransactionsCommitted prometheus.Counter
	TransactionOps        prometheus.Histogram
	TransactionErrors     prometheus.Counter

	// Animation metrics
	Animations       *prometheus.CounterVec
	AnimationsActive prometheus.Gauge

	// Layout metrics
	LayoutTransitions *prometheus.CounterVec

	// Embedding metrics
	TaskStarts   *prometheus.CounterVec
	TaskRestarts *prometheus.CounterVec

	// Control API metrics
	ControlCalls *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for the JSON API
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	TotalErrors        int64   `json:"total_errors"`
	RegionsLive        int64   `json:"regions_live"`
	AnimationsStarted  int64   `json:"animations_started"`
	AnimationsCanceled int64   `json:"animations_canceled"`
	Transactions       int64   `json:"transactions"`
	TaskStarts         int64   `json:"task_starts"`
	TaskRestarts       int64   `json:"task_restarts"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector registered on reg.
// Pass prometheus.DefaultRegisterer in the daemon and a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homeshell_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		RegionsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "homeshell_regions_live",
				Help: "Number of registered regions with a live surface",
			},
		),
		RegionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_region_events_total",
				Help: "Region lifecycle events",
			},
			[]string{"region", "event"},
		),
		RegionLayers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "homeshell_region_layer",
				Help: "Z-order layer assigned to each region",
			},
			[]string{"region"},
		),

		TransactionsCommitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "homeshell_transactions_committed_total",
				Help: "Batches committed to the compositor",
			},
		),
		TransactionOps: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "homeshell_transaction_ops",
				Help:    "Operations per committed batch",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
		TransactionErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "homeshell_transaction_errors_total",
				Help: "Batches rejected by the compositor",
			},
		),

		Animations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_animations_total",
				Help: "Animator lifecycle events",
			},
			[]string{"event"},
		),
		AnimationsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "homeshell_animations_active",
				Help: "Running animators",
			},
		),

		LayoutTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_layout_transitions_total",
				Help: "Layout state transitions requested",
			},
			[]string{"to"},
		),

		TaskStarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_task_starts_total",
				Help: "Embedded task start attempts",
			},
			[]string{"task", "outcome"},
		),
		TaskRestarts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_task_restarts_total",
				Help: "Embedded task restarts by trigger",
			},
			[]string{"task", "trigger"},
		),

		ControlCalls: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homeshell_control_call_duration_seconds",
				Help:    "Time spent on the shell executor per control call",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"op", "outcome"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "homeshell_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homeshell_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "homeshell_uptime_seconds",
			Help: "Shell uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordRegionEvent counts an appeared/vanished/registered event for a region
func (m *Metrics) RecordRegionEvent(region, event string) {
	if m == nil {
		return
	}
	m.RegionEvents.WithLabelValues(region, event).Inc()
}

// SetRegionsLive sets the live region gauge
func (m *Metrics) SetRegionsLive(count int) {
	if m == nil {
		return
	}
	m.RegionsLive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.RegionsLive = int64(count)
	m.mu.Unlock()
}

// SetRegionLayer exports the layer assigned to a region
func (m *Metrics) SetRegionLayer(region string, layer int) {
	if m == nil {
		return
	}
	m.RegionLayers.WithLabelValues(region).Set(float64(layer))
}

// RecordTransaction records one committed compositor batch
func (m *Metrics) RecordTransaction(ops int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.TransactionErrors.Inc()
		return
	}
	m.TransactionsCommitted.Inc()
	m.TransactionOps.Observe(float64(ops))
	m.mu.Lock()
	m.snapshot.Transactions++
	m.mu.Unlock()
}

// RecordAnimation records an animator lifecycle event: started, ended, canceled
func (m *Metrics) RecordAnimation(event string, active int) {
	if m == nil {
		return
	}
	m.Animations.WithLabelValues(event).Inc()
	m.AnimationsActive.Set(float64(active))
	m.mu.Lock()
	switch event {
	case "started":
		m.snapshot.AnimationsStarted++
	case "canceled":
		m.snapshot.AnimationsCanceled++
	}
	m.mu.Unlock()
}

// RecordTransition records a requested layout transition
func (m *Metrics) RecordTransition(to string) {
	if m == nil {
		return
	}
	m.LayoutTransitions.WithLabelValues(to).Inc()
}

// RecordTaskStart records a start attempt and its outcome: started, suppressed, failed
func (m *Metrics) RecordTaskStart(task, outcome string) {
	if m == nil {
		return
	}
	m.TaskStarts.WithLabelValues(task, outcome).Inc()
	if outcome == "started" {
		m.mu.Lock()
		m.snapshot.TaskStarts++
		m.mu.Unlock()
	}
}

// RecordTaskRestart records a restart and what triggered it
func (m *Metrics) RecordTaskRestart(task, trigger string) {
	if m == nil {
		return
	}
	m.TaskRestarts.WithLabelValues(task, trigger).Inc()
	m.mu.Lock()
	m.snapshot.TaskRestarts++
	m.mu.Unlock()
}

// RecordControlCall records one control API call into the shell
func (m *Metrics) RecordControlCall(op, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ControlCalls.WithLabelValues(op, outcome).Observe(duration.Seconds())
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	if m == nil {
		return
	}
	m.WSConnections.Dec()
}

// GetSnapshot returns a copy of the current values
func (m *Metrics) GetSnapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
