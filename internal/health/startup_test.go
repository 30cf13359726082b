// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/idemflow/internal/config"
)

func TestPerformStartupChecks(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		mutate  func(*config.AppConfig)
		wantErr string
	}{
		{"defaults", func(*config.AppConfig) {}, ""},
		{"sqlite in writable dir", func(c *config.AppConfig) {
			c.Store.Backend = "sqlite"
			c.Store.Path = filepath.Join(dir, "state.db")
		}, ""},
		{"sqlite in missing dir", func(c *config.AppConfig) {
			c.Store.Backend = "sqlite"
			c.Store.Path = filepath.Join(dir, "missing", "state.db")
		}, "does not exist"},
		{"badger creates dir", func(c *config.AppConfig) {
			c.Store.Backend = "badger"
			c.Store.Path = filepath.Join(dir, "badger")
		}, ""},
		{"bad listen addr", func(c *config.AppConfig) { c.HTTP.ListenAddr = "8080" }, "listen address"},
		{"kafka topics collide", func(c *config.AppConfig) {
			c.Kafka.Enabled = true
			c.Kafka.StatusTopic = c.Kafka.PaymentTopic
		}, "must differ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			tt.mutate(&cfg)
			err := PerformStartupChecks(context.Background(), cfg)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
