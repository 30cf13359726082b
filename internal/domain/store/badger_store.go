// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// BadgerDB owns the shared Badger handle.
// Keys are laid out as "agg:<kind>:<key>" holding a JSON record.
type BadgerDB struct {
	db *badger.DB
}

// OpenBadger opens a Badger database at path. An empty path keeps everything
// in memory.
func OpenBadger(path string) (*BadgerDB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerDB{db: db}, nil
}

func (b *BadgerDB) Close() error { return b.db.Close() }

// Ping performs a trivial read transaction.
func (b *BadgerDB) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return b.db.View(func(*badger.Txn) error { return nil })
}

// BadgerStore is a Store over one Badger key prefix.
type BadgerStore[T Entity[T]] struct {
	db    *badger.DB
	kind  string
	codec Codec[T]
}

func NewBadgerStore[T Entity[T]](db *BadgerDB, kind string, codec Codec[T]) *BadgerStore[T] {
	return &BadgerStore[T]{db: db.db, kind: kind, codec: codec}
}

func (s *BadgerStore[T]) keyFor(key string) []byte {
	return []byte("agg:" + s.kind + ":" + key)
}

func (s *BadgerStore[T]) FindByID(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	var rec record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.keyFor(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			r, err := decodeRecord(val)
			rec = r
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("badger find %s %s: %w", s.kind, key, err)
	}
	v, err := decodeValue(s.codec, rec)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Save compares inside an update transaction. Two transactions racing on the
// same key are serialized by Badger's own conflict detection, which surfaces
// as badger.ErrConflict on the loser's commit.
func (s *BadgerStore[T]) Save(ctx context.Context, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, incoming := prepare(value)
	buf, err := encodeRecord(s.codec, next)
	if err != nil {
		return err
	}
	k := s.keyFor(next.Key())

	var conflict *ConflictError
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			var cur record
			if err := item.Value(func(val []byte) error {
				r, err := decodeRecord(val)
				cur = r
				return err
			}); err != nil {
				return err
			}
			if cur.Version != incoming {
				conflict = &ConflictError{Kind: s.kind, Key: next.Key(), Expected: incoming, Actual: cur.Version}
				return conflict
			}
		}
		return txn.Set(k, buf)
	})
	switch {
	case err == nil:
		return nil
	case conflict != nil:
		return conflict
	case errors.Is(err, badger.ErrConflict):
		return &ConflictError{Kind: s.kind, Key: next.Key(), Expected: incoming, Actual: s.currentVersion(k)}
	default:
		return fmt.Errorf("badger save %s %s: %w", s.kind, next.Key(), err)
	}
}

func (s *BadgerStore[T]) currentVersion(k []byte) uint64 {
	var v uint64
	_ = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			r, err := decodeRecord(val)
			v = r.Version
			return err
		})
	})
	return v
}
