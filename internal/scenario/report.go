// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scenario

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/ManuGH/idemflow/internal/log"
)

// WriteReport writes report as indented JSON. The file is replaced atomically
// so a concurrent reader never sees a partial report.
func WriteReport(ctx context.Context, path string, report Report) error {
	logger := log.FromContext(ctx)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scenario report: %w", err)
	}

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending report file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending report file")
		}
	}()

	if _, err := pendingFile.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write scenario report: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace scenario report: %w", err)
	}
	return nil
}

func logResult(logger zerolog.Logger, n int, res Result) {
	for _, step := range res.Steps {
		ev := logger.Info()
		if step.Error != "" {
			ev = logger.Warn().Str("error", step.Error)
		}
		ev.Str(log.FieldEvent, "scenario.step").
			Int("scenario", n).
			Str("name", res.Name).
			Str("action", step.Action).
			Str(log.FieldOutcome, step.Outcome).
			Msg("step")
	}
	if p := res.Payment; p != nil {
		logger.Info().
			Str(log.FieldEvent, "scenario.final_state").
			Str("name", res.Name).
			Str(log.FieldAggregateKey, p.ID).
			Str("status", p.Status).
			Uint64(log.FieldVersion, p.Version).
			Msg("payment final state")
	}
	if o := res.Order; o != nil {
		logger.Info().
			Str(log.FieldEvent, "scenario.final_state").
			Str("name", res.Name).
			Str(log.FieldAggregateKey, o.ID).
			Str("status", o.Status).
			Uint64(log.FieldVersion, o.Version).
			Msg("order final state")
	}
	if s := res.Stock; s != nil {
		logger.Info().
			Str(log.FieldEvent, "scenario.final_state").
			Str("name", res.Name).
			Str(log.FieldAggregateKey, s.ProductID).
			Int("available", s.Available).
			Uint64(log.FieldVersion, s.Version).
			Msg("stock final state")
	}
}
