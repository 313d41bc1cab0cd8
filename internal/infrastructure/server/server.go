package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/homeshell/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

// Shell is everything the control surface needs from the running shell
type Shell interface {
	apihttp.Core
	ws.Source
}

// Deps holds the server's collaborators
type Deps struct {
	Shell  Shell
	Device apihttp.Device // nil against a real platform
	Logger *logging.Logger
	// Metrics and Gatherer must share a registry
	Metrics  *monitoring.Metrics
	Gatherer prometheus.Gatherer
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	limiter *middleware.Limiter
	logger  *logging.Logger
	config  *config.Config
}

// New builds the router with every route mounted
func New(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(deps.Metrics))
	router.Use(middleware.CORS(middleware.CORSFromOrigins(cfg.Server.CORSOrigins)))

	var limiter *middleware.Limiter
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Strings("exempt", cfg.RateLimit.Exempt),
		)
		limiter = middleware.NewLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			Exempt:            cfg.RateLimit.Exempt,
			IdleTimeout:       middleware.DefaultRateLimitConfig().IdleTimeout,
		})
		router.Use(limiter.Middleware())
	}

	handlers := apihttp.NewHandlers(deps.Shell, deps.Device, logger, deps.Metrics)
	handlers.Register(router)

	stream := ws.NewHandler(deps.Shell, ws.DefaultConfig(), logger.Component("ws"), deps.Metrics)
	router.GET("/ws/visibility", stream.HandleConnection)

	metricsHandler := gzhttp.GzipHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	router.GET("/metrics", gin.WrapH(metricsHandler))

	return &Server{
		router:  router,
		limiter: limiter,
		logger:  logger,
		config:  cfg,
	}
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx, sweepInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
