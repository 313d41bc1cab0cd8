// Package http provides the diagnostics and control API of the shell.
//
// Endpoints:
//   - Health: / and /health
//   - State: /regions, /tasks, /layout, /layout/bounds/:state
//   - Control: POST /layout, PUT /tasks/:id/insets, POST /signals
//   - Logging: /logging/level
//   - Metrics: /metrics/json (Prometheus text is served by the server package)
//   - Simulation: /sim/* when the shell runs on the simulated platform
//
// Every state read and control call runs on the shell executor through the
// Core interface; handlers never touch domain state directly.
//
// Example Usage:
//
//	handlers := http.NewHandlers(sh, device, logger, metrics)
//	handlers.Register(router)
package http
