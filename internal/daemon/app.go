// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reloader re-reads configuration from disk. *config.ConfigHolder satisfies it.
type Reloader interface {
	StartWatcher(ctx context.Context) error
	Reload(ctx context.Context) error
}

// App runs the Manager next to the reload triggers: the file watcher and
// SIGHUP. Only the log level takes effect without a restart.
type App struct {
	logger   zerolog.Logger
	manager  Manager
	reloader Reloader

	// subscribe delivers reload signals; the returned func unsubscribes.
	subscribe func() (<-chan os.Signal, func())
}

// NewApp wires an App. reloader may be nil when the daemon runs from
// environment variables only.
func NewApp(logger zerolog.Logger, manager Manager, reloader Reloader) *App {
	return &App{
		logger:    logger,
		manager:   manager,
		reloader:  reloader,
		subscribe: notifyHUP,
	}
}

func notifyHUP() (<-chan os.Signal, func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	return ch, func() { signal.Stop(ch) }
}

// Run blocks until ctx is cancelled or the manager fails. A failed Start
// still triggers Shutdown so workers and hooks are released.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.reloader != nil {
		if err := a.reloader.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("config watcher unavailable; SIGHUP still reloads")
		}
		g.Go(func() error {
			a.reloadOnSignal(ctx)
			return nil
		})
	}

	g.Go(func() error {
		if err := a.manager.Start(ctx); err != nil {
			_ = a.manager.Shutdown(context.Background())
			return err
		}
		return nil
	})

	return g.Wait()
}

func (a *App) reloadOnSignal(ctx context.Context) {
	signals, stop := a.subscribe()
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-signals:
			a.logger.Info().
				Str("event", "config.reload_signal").
				Stringer("signal", sig).
				Msg("reloading configuration")
			// Reload keeps the previous config on error.
			if err := a.reloader.Reload(ctx); err != nil {
				a.logger.Warn().Err(err).Str("event", "config.reload_failed").Msg("config reload failed")
			}
		}
	}
}
