// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/idemflow/internal/log"
)

type fakeManager struct {
	startErr  error
	shutdowns atomic.Int32
}

func (f *fakeManager) Start(ctx context.Context) error {
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeManager) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	return nil
}

func (f *fakeManager) RegisterShutdownHook(string, ShutdownHook) {}

func TestApp_RequiresManager(t *testing.T) {
	err := NewApp(log.WithComponent("test"), nil, nil).Run(context.Background())
	assert.ErrorIs(t, err, ErrMissingManager)
}

func TestApp_ManagerFailureShutsDown(t *testing.T) {
	boom := errors.New("listen failed")
	mgr := &fakeManager{startErr: boom}

	err := NewApp(log.WithComponent("test"), mgr, nil).Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), mgr.shutdowns.Load())
}

func TestApp_ReturnsOnCancel(t *testing.T) {
	mgr := &fakeManager{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewApp(log.WithComponent("test"), mgr, nil).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Zero(t, mgr.shutdowns.Load())
}

type fakeReloader struct {
	watchErr error
	reloads  chan struct{}
}

func (f *fakeReloader) StartWatcher(context.Context) error { return f.watchErr }

func (f *fakeReloader) Reload(context.Context) error {
	f.reloads <- struct{}{}
	return errors.New("bad yaml")
}

func TestApp_SignalTriggersReload(t *testing.T) {
	mgr := &fakeManager{}
	reloader := &fakeReloader{watchErr: errors.New("inotify limit"), reloads: make(chan struct{}, 1)}
	signals := make(chan os.Signal, 1)

	app := NewApp(log.WithComponent("test"), mgr, reloader)
	app.subscribe = func() (<-chan os.Signal, func()) { return signals, func() {} }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	signals <- syscall.SIGHUP
	select {
	case <-reloader.reloads:
	case <-time.After(2 * time.Second):
		t.Fatal("reload not triggered")
	}

	// A failed reload and a failed watcher both leave the daemon running.
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
