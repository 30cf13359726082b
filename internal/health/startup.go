// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/idemflow/internal/config"
	"github.com/ManuGH/idemflow/internal/log"
)

// PerformStartupChecks validates the environment before any backend is opened.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	if err := checkStorePath(logger, cfg.Store); err != nil {
		return fmt.Errorf("store path check failed: %w", err)
	}

	if err := checkTargetedValidations(logger, cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger.Info().Msg("All startup checks passed")
	return nil
}

// checkStorePath makes sure the directory holding durable state is writable.
func checkStorePath(logger zerolog.Logger, store config.StoreConfig) error {
	var dir string
	switch store.Backend {
	case "sqlite":
		dir = filepath.Dir(store.Path)
	case "badger":
		if store.Path == "" {
			logger.Warn().Msg("badger store without path runs in memory; state is lost on restart")
			return nil
		}
		dir = store.Path
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create badger directory %s: %w", dir, err)
		}
	case "memory":
		logger.Warn().
			Str("store_backend", store.Backend).
			Msg("in-memory store; aggregates are not persistent across restarts")
		return nil
	default:
		return nil
	}
	return checkDirWritable(logger, dir)
}

func checkDirWritable(logger zerolog.Logger, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Msg("Store directory is writable")
	return nil
}

// checkTargetedValidations performs runtime-critical validations
func checkTargetedValidations(logger zerolog.Logger, cfg config.AppConfig) error {
	if cfg.HTTP.ListenAddr != "" {
		_, port, err := net.SplitHostPort(cfg.HTTP.ListenAddr)
		if err != nil {
			return fmt.Errorf("invalid HTTP listen address %q: %w", cfg.HTTP.ListenAddr, err)
		}
		portNum, err := strconv.Atoi(port)
		if err != nil || portNum < 0 || portNum > 65535 {
			return fmt.Errorf("invalid HTTP listen port %q in %q", port, cfg.HTTP.ListenAddr)
		}
		logger.Info().Str("addr", cfg.HTTP.ListenAddr).Msg("HTTP listen address is valid")
	}

	if cfg.Kafka.Enabled {
		for _, b := range cfg.Kafka.Brokers {
			if strings.TrimSpace(b) == "" {
				return fmt.Errorf("empty kafka broker address")
			}
		}
		if cfg.Kafka.PaymentTopic == cfg.Kafka.StatusTopic {
			return fmt.Errorf("kafka payment topic and status topic must differ (both %q)", cfg.Kafka.PaymentTopic)
		}
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("Kafka settings are valid")
	}
	return nil
}
