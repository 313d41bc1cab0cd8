// Package main runs the home shell daemon against the simulated device.
//
// The daemon wires the shell core to the in-memory platform, serves the
// control API and visibility stream, and exposes Prometheus metrics.
//
// Configuration comes from defaults, then an optional YAML or TOML file,
// then SHELL_* environment variables.
//
// Usage:
//
//	# Production mode
//	./server -config /etc/homeshell.yaml
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
