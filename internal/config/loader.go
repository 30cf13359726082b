// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable names.
const (
	EnvConfigPath        = EnvPrefix + "CONFIG"
	EnvLogLevel          = EnvPrefix + "LOG_LEVEL"
	EnvService           = EnvPrefix + "SERVICE"
	EnvStoreBackend      = EnvPrefix + "STORE_BACKEND"
	EnvStorePath         = EnvPrefix + "STORE_PATH"
	EnvRedisAddr         = EnvPrefix + "REDIS_ADDR"
	EnvRedisPassword     = EnvPrefix + "REDIS_PASSWORD"
	EnvRedisDB           = EnvPrefix + "REDIS_DB"
	EnvRedisPrefix       = EnvPrefix + "REDIS_PREFIX"
	EnvKafkaEnabled      = EnvPrefix + "KAFKA_ENABLED"
	EnvKafkaBrokers      = EnvPrefix + "KAFKA_BROKERS"
	EnvKafkaGroupID      = EnvPrefix + "KAFKA_GROUP_ID"
	EnvKafkaClientID     = EnvPrefix + "KAFKA_CLIENT_ID"
	EnvKafkaPaymentTopic = EnvPrefix + "KAFKA_PAYMENT_TOPIC"
	EnvKafkaEventsTopic  = EnvPrefix + "KAFKA_EVENTS_TOPIC"
	EnvKafkaStatusTopic  = EnvPrefix + "KAFKA_STATUS_TOPIC"
	EnvKafkaTopics       = EnvPrefix + "KAFKA_TOPICS"
	EnvKafkaAutoCreate   = EnvPrefix + "KAFKA_AUTO_CREATE"
	EnvKafkaAutoProfiles = EnvPrefix + "KAFKA_AUTO_CREATE_PROFILES"
	EnvProfiles          = EnvPrefix + "PROFILES"
	EnvKafkaProducer     = EnvPrefix + "KAFKA_PRODUCER_ENABLED"
	EnvListenAddr        = EnvPrefix + "LISTEN_ADDR"
	EnvRateLimit         = EnvPrefix + "RATE_LIMIT"
	EnvTelemetryEnabled  = EnvPrefix + "TELEMETRY_ENABLED"
	EnvTelemetryExporter = EnvPrefix + "OTEL_EXPORTER"
	EnvTelemetryEndpoint = EnvPrefix + "OTEL_ENDPOINT"
	EnvTelemetrySampling = EnvPrefix + "OTEL_SAMPLING_RATE"
	EnvEnvironment       = EnvPrefix + "ENVIRONMENT"

	// EnvLegacyProducerEnabled is honoured without the prefix for existing
	// deployment scripts.
	EnvLegacyProducerEnabled = "KAFKA_PRODUCER_ENABLED"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty configPath means
// defaults plus environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the watched configuration file, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load enforces the order: defaults -> file (strict) -> env -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Log: LogConfig{Level: "info", Service: "idemflow"},
		Store: StoreConfig{
			Backend: "memory",
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "idemflow"},
		},
		Kafka: KafkaConfig{
			Brokers:      []string{"localhost:9092"},
			GroupID:      "backend-group",
			ClientID:     "idemflow",
			PaymentTopic: "payment-events",
			EventsTopic:  "domain-events",
			StatusTopic:  "payment-status",
			Topics:       []string{"payment-events", "domain-events", "payment-status"},
			AutoCreate:   true,
		},
		HTTP: HTTPConfig{ListenAddr: ":8080", RateLimit: 100},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
	}
}

// loadFile decodes the file on top of cfg; keys absent from the file keep
// their current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if isYAMLUnknownFieldError(err) {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	return nil
}

func isYAMLUnknownFieldError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "field") && strings.Contains(msg, "not found")
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.Log.Level = l.envString(EnvLogLevel, cfg.Log.Level)
	cfg.Log.Service = l.envString(EnvService, cfg.Log.Service)

	cfg.Store.Backend = strings.ToLower(l.envString(EnvStoreBackend, cfg.Store.Backend))
	cfg.Store.Path = l.envString(EnvStorePath, cfg.Store.Path)
	cfg.Store.Redis.Addr = l.envString(EnvRedisAddr, cfg.Store.Redis.Addr)
	cfg.Store.Redis.Password = l.envString(EnvRedisPassword, cfg.Store.Redis.Password)
	cfg.Store.Redis.DB = l.envInt(EnvRedisDB, cfg.Store.Redis.DB)
	cfg.Store.Redis.Prefix = l.envString(EnvRedisPrefix, cfg.Store.Redis.Prefix)

	cfg.Kafka.Enabled = l.envBool(EnvKafkaEnabled, cfg.Kafka.Enabled)
	cfg.Kafka.Brokers = l.envList(EnvKafkaBrokers, cfg.Kafka.Brokers)
	cfg.Kafka.GroupID = l.envString(EnvKafkaGroupID, cfg.Kafka.GroupID)
	cfg.Kafka.ClientID = l.envString(EnvKafkaClientID, cfg.Kafka.ClientID)
	cfg.Kafka.PaymentTopic = l.envString(EnvKafkaPaymentTopic, cfg.Kafka.PaymentTopic)
	cfg.Kafka.EventsTopic = l.envString(EnvKafkaEventsTopic, cfg.Kafka.EventsTopic)
	cfg.Kafka.StatusTopic = l.envString(EnvKafkaStatusTopic, cfg.Kafka.StatusTopic)
	cfg.Kafka.Topics = l.envList(EnvKafkaTopics, cfg.Kafka.Topics)
	cfg.Kafka.AutoCreate = l.envBool(EnvKafkaAutoCreate, cfg.Kafka.AutoCreate)
	cfg.Kafka.AutoCreateProfiles = l.envList(EnvKafkaAutoProfiles, cfg.Kafka.AutoCreateProfiles)
	cfg.Kafka.ActiveProfiles = l.envList(EnvProfiles, cfg.Kafka.ActiveProfiles)
	cfg.Kafka.ProducerEnabled = l.envBool(EnvKafkaProducer, cfg.Kafka.ProducerEnabled)
	l.ConsumedEnvKeys[EnvLegacyProducerEnabled] = struct{}{}
	if v := strings.TrimSpace(os.Getenv(EnvLegacyProducerEnabled)); v != "" {
		cfg.Kafka.ProducerEnabled = v == "1" || strings.EqualFold(v, "true")
	}

	cfg.HTTP.ListenAddr = l.envString(EnvListenAddr, cfg.HTTP.ListenAddr)
	cfg.HTTP.RateLimit = l.envInt(EnvRateLimit, cfg.HTTP.RateLimit)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.ExporterType = l.envString(EnvTelemetryExporter, cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString(EnvEnvironment, cfg.Telemetry.Environment)
}
