// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"encoding/json"
	"fmt"
)

// Codec turns snapshots into bytes for the durable backends.
type Codec[T Entity[T]] struct {
	New func() T
}

// JSONCodec decodes into values produced by newFn. T must be a pointer type.
func JSONCodec[T Entity[T]](newFn func() T) Codec[T] {
	return Codec[T]{New: newFn}
}

func (c Codec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (c Codec[T]) Decode(data []byte) (T, error) {
	v := c.New()
	if err := json.Unmarshal(data, v); err != nil {
		var zero T
		return zero, fmt.Errorf("decode snapshot: %w", err)
	}
	return v, nil
}

// record is the on-disk envelope used by the KV backends. The version lives
// outside the snapshot so the CAS check never decodes the full state.
type record struct {
	Version uint64          `json:"v"`
	State   json.RawMessage `json:"s"`
}

func encodeRecord[T Entity[T]](c Codec[T], v T) ([]byte, error) {
	state, err := c.Encode(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(record{Version: v.Version(), State: state})
}

func decodeRecord(data []byte) (record, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return record{}, fmt.Errorf("decode record: %w", err)
	}
	return r, nil
}

func decodeValue[T Entity[T]](c Codec[T], r record) (T, error) {
	v, err := c.Decode(r.State)
	if err != nil {
		return v, err
	}
	v.SetVersion(r.Version)
	return v, nil
}

// prepare returns the detached copy that will be committed.
func prepare[T Entity[T]](value T) (T, uint64) {
	incoming := value.Version()
	next := value.Clone()
	next.SetVersion(incoming + 1)
	return next, incoming
}
