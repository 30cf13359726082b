// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"net"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Backends accepted by Store.Backend.
var Backends = []string{"memory", "sqlite", "badger", "redis"}

// Validate returns every problem at once, joined.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(field string, value any, msg string) {
		errs = append(errs, &ValidationError{Field: field, Value: value, Message: msg})
	}

	if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
		add("log.level", cfg.Log.Level, "unknown log level")
	}

	if !slices.Contains(Backends, cfg.Store.Backend) {
		add("store.backend", cfg.Store.Backend, "must be one of "+strings.Join(Backends, ", "))
	}
	if cfg.Store.Backend == "sqlite" && cfg.Store.Path == "" {
		add("store.path", cfg.Store.Path, "required for sqlite")
	}
	if cfg.Store.Backend == "redis" {
		if _, _, err := net.SplitHostPort(cfg.Store.Redis.Addr); err != nil {
			add("store.redis.addr", cfg.Store.Redis.Addr, "must be host:port")
		}
	}
	if cfg.Store.Redis.DB < 0 {
		add("store.redis.db", cfg.Store.Redis.DB, "must not be negative")
	}

	if cfg.Kafka.Enabled || cfg.Kafka.ProducerEnabled {
		if len(cfg.Kafka.Brokers) == 0 {
			add("kafka.brokers", cfg.Kafka.Brokers, "at least one broker is required")
		}
		for _, b := range cfg.Kafka.Brokers {
			if _, _, err := net.SplitHostPort(b); err != nil {
				add("kafka.brokers", b, "must be host:port")
			}
		}
		if cfg.Kafka.PaymentTopic == "" {
			add("kafka.paymentTopic", cfg.Kafka.PaymentTopic, "must not be empty")
		}
	}

	if cfg.HTTP.RateLimit < 0 {
		add("http.rateLimit", cfg.HTTP.RateLimit, "must not be negative")
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.ExporterType {
		case "grpc", "http":
		default:
			add("telemetry.exporter", cfg.Telemetry.ExporterType, "must be grpc or http")
		}
	}
	if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
		add("telemetry.samplingRate", cfg.Telemetry.SamplingRate, "must be within [0, 1]")
	}

	return errors.Join(errs...)
}
