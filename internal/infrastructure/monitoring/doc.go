/*
Package monitoring provides Prometheus metrics for the shell.

# Overview

Counters and gauges track region lifecycle, compositor batches, animator
lifecycle, layout transitions, embedded task starts and restarts, and the
HTTP and WebSocket surfaces. All recorder methods are safe on a nil
*Metrics so domain components can run without metrics in tests.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

Tests register on a private registry:

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
*/
package monitoring
