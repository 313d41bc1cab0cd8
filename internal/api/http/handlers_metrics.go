package http

import (
	"time"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
)

// HandlerMetrics times calls into the shell executor
type HandlerMetrics struct {
	metrics *monitoring.Metrics
}

// NewHandlerMetrics creates a metrics wrapper
func NewHandlerMetrics(metrics *monitoring.Metrics) *HandlerMetrics {
	return &HandlerMetrics{metrics: metrics}
}

// Track starts timing op; call the returned func with the call's error
func (hm *HandlerMetrics) Track(op string) func(error) {
	start := time.Now()
	return func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		hm.metrics.RecordControlCall(op, outcome, time.Since(start))
	}
}
