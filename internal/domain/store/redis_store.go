// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
	Prefix   string // key prefix, defaults to "idemflow"
}

// NewRedisClient dials Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// RedisStore is a Store using WATCH/MULTI for the version check.
type RedisStore[T Entity[T]] struct {
	client *redis.Client
	prefix string
	kind   string
	codec  Codec[T]
}

func NewRedisStore[T Entity[T]](client *redis.Client, prefix, kind string, codec Codec[T]) *RedisStore[T] {
	if prefix == "" {
		prefix = "idemflow"
	}
	return &RedisStore[T]{client: client, prefix: prefix, kind: kind, codec: codec}
}

func (s *RedisStore[T]) keyFor(key string) string {
	return s.prefix + ":" + s.kind + ":" + key
}

func (s *RedisStore[T]) FindByID(ctx context.Context, key string) (T, bool, error) {
	var zero T
	raw, err := s.client.Get(ctx, s.keyFor(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redis find %s %s: %w", s.kind, key, err)
	}
	rec, err := decodeRecord(raw)
	if err != nil {
		return zero, false, err
	}
	v, err := decodeValue(s.codec, rec)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Save watches the key, compares the stored version and writes inside
// MULTI/EXEC. A concurrent write between WATCH and EXEC aborts the
// transaction with redis.TxFailedErr.
func (s *RedisStore[T]) Save(ctx context.Context, value T) error {
	next, incoming := prepare(value)
	buf, err := encodeRecord(s.codec, next)
	if err != nil {
		return err
	}
	k := s.keyFor(next.Key())

	var conflict *ConflictError
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			cur, err := decodeRecord(raw)
			if err != nil {
				return err
			}
			if cur.Version != incoming {
				conflict = &ConflictError{Kind: s.kind, Key: next.Key(), Expected: incoming, Actual: cur.Version}
				return conflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, buf, 0)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txf, k)
	switch {
	case err == nil:
		return nil
	case conflict != nil:
		return conflict
	case errors.Is(err, redis.TxFailedErr):
		var actual uint64
		if raw, gerr := s.client.Get(ctx, k).Bytes(); gerr == nil {
			if cur, derr := decodeRecord(raw); derr == nil {
				actual = cur.Version
			}
		}
		return &ConflictError{Kind: s.kind, Key: next.Key(), Expected: incoming, Actual: actual}
	default:
		return fmt.Errorf("redis save %s %s: %w", s.kind, next.Key(), err)
	}
}
