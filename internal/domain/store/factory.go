// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Options selects and configures a backend.
type Options struct {
	Backend string // memory|sqlite|badger|redis; empty means memory
	Path    string // file path for sqlite, directory for badger
	Redis   RedisConfig
}

// Backend is an opened storage backend shared by all aggregate kinds.
type Backend struct {
	name   string
	sqlite *SqliteDB
	badger *BadgerDB
	redis  *redis.Client
	prefix string
}

// OpenBackend creates the backend described by opts.
func OpenBackend(ctx context.Context, opts Options) (*Backend, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendMemory
	}

	switch backend {
	case BackendMemory:
		return &Backend{name: backend}, nil
	case BackendSqlite:
		if opts.Path == "" {
			return nil, errors.New("sqlite backend requires a path")
		}
		db, err := OpenSqlite(opts.Path)
		if err != nil {
			return nil, err
		}
		return &Backend{name: backend, sqlite: db}, nil
	case BackendBadger:
		db, err := OpenBadger(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		return &Backend{name: backend, badger: db}, nil
	case BackendRedis:
		client, err := NewRedisClient(ctx, opts.Redis)
		if err != nil {
			return nil, err
		}
		return newRedisBackend(client, opts.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
}

func newRedisBackend(client *redis.Client, prefix string) *Backend {
	return &Backend{name: BackendRedis, redis: client, prefix: prefix}
}

func (b *Backend) Name() string { return b.name }

// SqliteDB returns the sqlite handle, or nil for other backends.
func (b *Backend) SqliteDB() *SqliteDB { return b.sqlite }

// Ping verifies that the backend is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	switch {
	case b.sqlite != nil:
		return b.sqlite.DB.PingContext(ctx)
	case b.badger != nil:
		return b.badger.Ping(ctx)
	case b.redis != nil:
		return b.redis.Ping(ctx).Err()
	default:
		return nil
	}
}

func (b *Backend) Close() error {
	switch {
	case b.sqlite != nil:
		return b.sqlite.Close()
	case b.badger != nil:
		return b.badger.Close()
	case b.redis != nil:
		return b.redis.Close()
	default:
		return nil
	}
}

// For returns an instrumented store for one aggregate kind on backend b.
// newFn allocates an empty value for decoding.
func For[T Entity[T]](b *Backend, kind string, newFn func() T) Store[T] {
	codec := JSONCodec(newFn)
	var inner Store[T]
	switch {
	case b.sqlite != nil:
		inner = NewSqliteStore(b.sqlite, kind, codec)
	case b.badger != nil:
		inner = NewBadgerStore(b.badger, kind, codec)
	case b.redis != nil:
		inner = NewRedisStore(b.redis, b.prefix, kind, codec)
	default:
		inner = NewMemoryStore[T](kind)
	}
	return NewInstrumentedStore(inner, b.name, kind)
}
