// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/idemflow/internal/api"
	"github.com/ManuGH/idemflow/internal/config"
	"github.com/ManuGH/idemflow/internal/daemon"
	"github.com/ManuGH/idemflow/internal/health"
	xglog "github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/telemetry"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

const serviceName = "idemflow"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "storage":
			os.Exit(runStorageCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		case "scenarios":
			os.Exit(runScenariosCLI(os.Args[2:]))
		case "produce":
			os.Exit(runProduceCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: serviceName,
		Version: version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := resolveConfigPath(*configPath)
	loader := config.NewLoader(path, version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	xglog.Reset()
	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})

	if path != "" {
		logger.Info().Str("event", "config.loaded").Str("source", "file").Str("path", path).Msg("loaded configuration from file")
	} else {
		logger.Info().Str("event", "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and permissions.")
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "telemetry.init_failed").Msg("failed to initialise tracing")
	}

	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "runtime.init_failed").Msg("failed to wire services")
	}

	rt.provisionTopics(ctx)

	workers, err := rt.workers()
	if err != nil {
		_ = rt.Close()
		logger.Fatal().Err(err).Str("event", "kafka.init_failed").Msg("failed to create Kafka consumer")
	}

	hm := health.NewManager(version)
	rt.registerCheckers(hm)

	srv := api.NewServer(api.Config{
		RateLimitRPS:   cfg.HTTP.RateLimit,
		TracingService: cfg.Log.Service,
		EnableLogging:  true,
	}, api.Deps{
		Router:   rt.router,
		Payments: rt.payments,
		Orders:   rt.orders,
		Stock:    rt.stock,
		Health:   hm,
	})

	logger.Info().
		Str("event", "startup").
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("addr", cfg.HTTP.ListenAddr).
		Str("store", cfg.Store.Backend).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("starting " + serviceName)

	mgr, err := daemon.NewManager(daemon.DefaultServerConfig(cfg.HTTP.ListenAddr), daemon.Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
		Workers:    workers,
	})
	if err != nil {
		_ = rt.Close()
		logger.Fatal().
			Err(err).
			Str("event", "manager.creation.failed").
			Msg("failed to create daemon manager")
	}
	// LIFO: the store closes after the producer has flushed, tracing last.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("runtime", func(context.Context) error { return rt.Close() })

	var reloader daemon.Reloader
	if path != "" {
		reloader = config.NewConfigHolder(cfg, loader)
	}

	app := daemon.NewApp(logger, mgr, reloader)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}

// resolveConfigPath prefers the flag, then IDEMFLOW_CONFIG.
func resolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(config.ParseString(config.EnvConfigPath, ""))
}
