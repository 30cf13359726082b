// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	HTTP      HTTPConfig      `yaml:"http"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// StoreConfig selects the versioned store backend.
type StoreConfig struct {
	Backend string      `yaml:"backend"` // memory|sqlite|badger|redis
	Path    string      `yaml:"path"`    // sqlite file or badger directory
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// KafkaConfig covers the listener, the notification producer and topic
// provisioning.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	GroupID      string   `yaml:"groupId"`
	ClientID     string   `yaml:"clientId"`
	PaymentTopic string   `yaml:"paymentTopic"`
	EventsTopic  string   `yaml:"eventsTopic"`
	StatusTopic  string   `yaml:"statusTopic"`

	// Topics are "name[:partitions[:replicas]]" specs.
	Topics             []string `yaml:"topics"`
	AutoCreate         bool     `yaml:"autoCreate"`
	AutoCreateProfiles []string `yaml:"autoCreateProfiles"`
	ActiveProfiles     []string `yaml:"activeProfiles"`

	ProducerEnabled bool `yaml:"producerEnabled"`
}

type HTTPConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RateLimit is requests per second per client IP; 0 disables limiting.
	RateLimit int `yaml:"rateLimit"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}
