// Package middleware provides the gin middleware in front of the control API.
//
//   - CORS: cross-origin access for dashboards, WebSocket upgrades included
//   - Limiter: per-IP token buckets with idle client sweeping
//   - GlobalRateLimit: one bucket shared by every client
//
// Paths matching an Exempt glob (doublestar syntax) skip rate limiting. The
// daemon exempts /signals so a drag gesture is never throttled.
//
//	limiter := middleware.NewLimiter(middleware.DefaultRateLimitConfig())
//	go limiter.Run(ctx, time.Minute)
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()), limiter.Middleware())
package middleware
