// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/idemflow/internal/log"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve listen addr: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

func waitForListen(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("listen timeout")
}

func testServerConfig(t *testing.T) ServerConfig {
	cfg := DefaultServerConfig(reserveListenAddr(t))
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

func startAsync(ctx context.Context, mgr Manager) <-chan error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- mgr.Start(ctx)
	}()
	return errChan
}

func waitResult(t *testing.T, errChan <-chan error) error {
	t.Helper()
	select {
	case err := <-errChan:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return")
		return nil
	}
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name string
		deps Deps
		want error
	}{
		{"valid", Deps{Logger: log.WithComponent("test"), APIHandler: http.NotFoundHandler()}, nil},
		{"missing logger", Deps{Logger: zerolog.Nop(), APIHandler: http.NotFoundHandler()}, ErrMissingLogger},
		{"missing handler", Deps{Logger: log.WithComponent("test")}, ErrMissingAPIHandler},
		{"unnamed worker", Deps{
			Logger:     log.WithComponent("test"),
			APIHandler: http.NotFoundHandler(),
			Workers:    []Worker{{Run: func(context.Context) error { return nil }}},
		}, ErrInvalidWorker},
		{"worker without run", Deps{
			Logger:     log.WithComponent("test"),
			APIHandler: http.NotFoundHandler(),
			Workers:    []Worker{{Name: "kafka"}},
		}, ErrInvalidWorker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr, err := NewManager(DefaultServerConfig("127.0.0.1:0"), tt.deps)
			if tt.want == nil {
				require.NoError(t, err)
				assert.NotNil(t, mgr)
				return
			}
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestManager_StartStop_ServesAndStopsWorkers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	workerStarted := make(chan struct{})
	workerStopped := make(chan struct{})
	cfg := testServerConfig(t)
	mgr, err := NewManager(cfg, Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: handler,
		Workers: []Worker{{
			Name: "consumer",
			Run: func(ctx context.Context) error {
				close(workerStarted)
				<-ctx.Done()
				close(workerStopped)
				return ctx.Err()
			},
		}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := startAsync(ctx, mgr)

	require.NoError(t, waitForListen(cfg.ListenAddr, 2*time.Second))
	<-workerStarted

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + cfg.ListenAddr)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	require.NoError(t, waitResult(t, errChan))

	select {
	case <-workerStopped:
	default:
		t.Fatal("worker still running after Start returned")
	}
}

func TestManager_WorkerFailureTriggersShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	boom := errors.New("broker unreachable")
	mgr, err := NewManager(testServerConfig(t), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
		Workers: []Worker{
			{Name: "kafka-consumer", Run: func(context.Context) error { return boom }},
			{Name: "idle", Run: func(ctx context.Context) error { <-ctx.Done(); return nil }},
		},
	})
	require.NoError(t, err)

	var hookRan bool
	mgr.RegisterShutdownHook("store", func(context.Context) error {
		hookRan = true
		return nil
	})

	err = waitResult(t, startAsync(context.Background(), mgr))
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "kafka-consumer")
	assert.True(t, hookRan)
}

func TestManager_FinishedWorkerDoesNotStopServer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	done := make(chan struct{})
	cfg := testServerConfig(t)
	mgr, err := NewManager(cfg, Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
		Workers: []Worker{{Name: "scenario-producer", Run: func(context.Context) error {
			close(done)
			return nil
		}}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errChan := startAsync(ctx, mgr)

	<-done
	require.NoError(t, waitForListen(cfg.ListenAddr, 2*time.Second))
	select {
	case err := <-errChan:
		t.Fatalf("manager stopped early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	require.NoError(t, waitResult(t, errChan))
}

func TestManager_ShutdownHooksRunLIFO(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testServerConfig(t), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	for _, name := range []string{"telemetry", "store", "kafka-producer"} {
		mgr.RegisterShutdownHook(name, func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		})
	}
	mgr.RegisterShutdownHook("failing", func(context.Context) error { return errors.New("flush failed") })

	ctx, cancel := context.WithCancel(context.Background())
	errChan := startAsync(ctx, mgr)
	time.Sleep(50 * time.Millisecond)
	cancel()

	err = waitResult(t, errChan)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "hook failing"), err.Error())
	assert.Equal(t, []string{"kafka-producer", "store", "telemetry"}, order)
}

func TestManager_ShutdownTimesOutOnStuckWorker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	release := make(chan struct{})
	cfg := testServerConfig(t)
	cfg.ShutdownTimeout = 100 * time.Millisecond
	mgr, err := NewManager(cfg, Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
		Workers: []Worker{{Name: "stuck", Run: func(context.Context) error {
			<-release
			return nil
		}}},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := startAsync(ctx, mgr)
	require.NoError(t, waitForListen(cfg.ListenAddr, 2*time.Second))
	cancel()

	err = waitResult(t, errChan)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "workers did not stop")

	close(release)
	// Let the worker and the waiter goroutine drain before the leak check.
	time.Sleep(50 * time.Millisecond)
}

func TestManager_Shutdown_NotStarted(t *testing.T) {
	mgr, err := NewManager(DefaultServerConfig("127.0.0.1:0"), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	err = mgr.Shutdown(context.Background())
	assert.ErrorIs(t, err, ErrManagerNotStarted)
}

func TestManager_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mgr, err := NewManager(testServerConfig(t), Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errChan := startAsync(ctx, mgr)
	time.Sleep(50 * time.Millisecond)

	require.Error(t, mgr.Start(ctx))

	cancel()
	require.NoError(t, waitResult(t, errChan))
}

func TestManager_PropagatesListenErrors(t *testing.T) {
	testServer := httptest.NewServer(http.NotFoundHandler())
	defer testServer.Close()

	cfg := DefaultServerConfig(testServer.Listener.Addr().String())
	cfg.ShutdownTimeout = time.Second
	mgr, err := NewManager(cfg, Deps{
		Logger:     log.WithComponent("test"),
		APIHandler: http.NotFoundHandler(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err = mgr.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API server")
}
