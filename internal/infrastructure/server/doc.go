// Package server assembles the daemon's HTTP surface: the control API, the
// visibility stream at /ws/visibility and Prometheus metrics at /metrics,
// behind recovery, request metrics, CORS and optional rate limiting.
package server
