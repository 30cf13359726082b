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
	"syscall"

	"github.com/ManuGH/idemflow/internal/config"
	xglog "github.com/ManuGH/idemflow/internal/log"
	"github.com/ManuGH/idemflow/internal/scenario"
	"github.com/ManuGH/idemflow/internal/transport/kafka"
)

func runScenariosCLI(args []string) int {
	fs := flag.NewFlagSet("idemflow scenarios", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file, report string
	fs.StringVar(&file, "config", "", "path to YAML configuration file")
	fs.StringVar(&report, "report", "", "write a JSON report to this path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadCLIConfig(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := runScenarios(ctx, cfg, report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scenarios failed: %v\n", err)
		return 1
	}
	if res.Failed() {
		return 1
	}
	return 0
}

// runScenarios replays the demo flows in-process. Status notifications stay on
// the in-memory bus even when Kafka is configured.
func runScenarios(ctx context.Context, cfg config.AppConfig, reportPath string) (scenario.Report, error) {
	cfg.Kafka.Enabled = false
	rt, err := buildRuntime(ctx, cfg)
	if err != nil {
		return scenario.Report{}, err
	}
	defer func() { _ = rt.Close() }()

	report, err := scenario.NewRunner(rt.payments, rt.orders, rt.stock).Run(ctx)
	if err != nil {
		return report, err
	}
	if reportPath != "" {
		if err := scenario.WriteReport(ctx, reportPath, report); err != nil {
			return report, err
		}
		logger := xglog.WithComponent("scenario")
		logger.Info().
			Str(xglog.FieldEvent, "scenario.report_written").
			Str("path", reportPath).
			Msg("scenario report written")
	}
	return report, nil
}

func runProduceCLI(args []string) int {
	fs := flag.NewFlagSet("idemflow produce", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var file string
	fs.StringVar(&file, "config", "", "path to YAML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadCLIConfig(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}
	if len(cfg.Kafka.Brokers) == 0 {
		fmt.Fprintln(os.Stderr, errNoKafka)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:     cfg.Kafka.Brokers,
		ClientID:    cfg.Kafka.ClientID,
		StatusTopic: cfg.Kafka.StatusTopic,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Kafka producer: %v\n", err)
		return 1
	}
	defer producer.Close()

	if err := kafka.NewScenarioProducer(producer, cfg.Kafka.PaymentTopic).Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Producing scenarios failed: %v\n", err)
		return 1
	}
	return 0
}

// loadCLIConfig loads configuration for one-shot commands and configures
// logging from it.
func loadCLIConfig(file string) (config.AppConfig, error) {
	cfg, err := config.NewLoader(resolveConfigPath(file), version).Load()
	if err != nil {
		return cfg, err
	}
	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: version,
	})
	return cfg, nil
}
