package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/executor"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/infrastructure/server"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/platform/sim"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/homeshell/internal/shell"
)

const stopTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML or TOML config file (default $SHELL_CONFIG)")
	dev := flag.Bool("dev", false, "Development mode: console logs at debug level")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: cfg.Logging.OutputPaths,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Shell daemon failed", zap.Error(err))
	}
	logger.Info("Shell daemon exited")
}

func run(cfg *config.Config, logger *logging.Logger) error {
	opts, err := shell.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid shell options: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	device := sim.New(sim.Options{
		Features: opts.Regions.Features,
		UserID:   cfg.Host.UserID,
		Width:    cfg.Display.Width,
		Height:   cfg.Display.Height,
	}, logger.Component("sim"))

	sh := shell.New(opts, shell.Platform{
		Regions:    device,
		Tasks:      device,
		Starter:    device,
		Tracker:    device,
		Users:      device,
		Display:    device,
		Compositor: device.Compositor(),
	}, logger.Component("shell"), metrics)
	device.SetSink(sh.Dispatch)

	logger.Info("Starting shell daemon",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("width", cfg.Display.Width),
		zap.Int("height", cfg.Display.Height),
		zap.Int("controlled_tasks", len(opts.Controlled)),
	)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// a host-destroyed signal stops the shell, which takes the server down too
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		// stopped explicitly, never by ctx, so Stop can still release tasks
		return sh.Run(context.Background())
	})

	srv := server.New(cfg, server.Deps{
		Shell:    sh,
		Device:   device,
		Logger:   logger,
		Metrics:  metrics,
		Gatherer: reg,
	})
	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		defer func() {
			stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
			defer cancelStop()
			if err := sh.Stop(stopCtx); err != nil && !errors.Is(err, executor.ErrStopped) {
				logger.Warn("Shell did not stop cleanly", zap.Error(err))
			}
		}()

		if err := sh.Start(gctx); err != nil {
			return err
		}
		sh.Dispatch(types.HostLifecycle{Kind: types.HostResumed})

		<-gctx.Done()
		logger.Info("Shutting down gracefully")
		return nil
	})

	return g.Wait()
}
