// Cinematch - Mutual-Interest Match Detection Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeHTTPServer struct {
	listenErr error
	stopped   chan struct{}
	shutdowns atomic.Int32
}

func newFakeHTTPServer(listenErr error) *fakeHTTPServer {
	return &fakeHTTPServer{listenErr: listenErr, stopped: make(chan struct{})}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(context.Context) error {
	if f.shutdowns.Add(1) == 1 {
		close(f.stopped)
	}
	return nil
}

func TestHTTPServerService(t *testing.T) {
	t.Parallel()

	t.Run("graceful shutdown", func(t *testing.T) {
		t.Parallel()
		srv := newFakeHTTPServer(nil)
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve = %v, want context.Canceled", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return")
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("Shutdown called %d times", srv.shutdowns.Load())
		}
	})

	t.Run("listen failure", func(t *testing.T) {
		t.Parallel()
		listenErr := &net.OpError{Op: "listen", Err: errors.New("address in use")}
		svc := NewHTTPServerService(newFakeHTTPServer(listenErr), 0)

		err := svc.Serve(context.Background())
		if !errors.Is(err, listenErr) {
			t.Errorf("Serve = %v, want wrapped listen error", err)
		}
	})

	t.Run("real server", func(t *testing.T) {
		t.Parallel()
		srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler(), ReadHeaderTimeout: time.Second}
		svc := NewHTTPServerService(srv, time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve = %v", err)
		}
	})
}

type fakeEmbedded struct {
	running   atomic.Bool
	shutdowns atomic.Int32
}

func (f *fakeEmbedded) IsRunning() bool { return f.running.Load() }

func (f *fakeEmbedded) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	f.running.Store(false)
	return nil
}

func TestNATSServerService(t *testing.T) {
	t.Parallel()

	t.Run("shuts down on cancel", func(t *testing.T) {
		t.Parallel()
		srv := &fakeEmbedded{}
		srv.running.Store(true)
		svc := NewNATSServerService(srv, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve = %v", err)
		}
		if srv.shutdowns.Load() != 1 {
			t.Errorf("shutdowns = %d, want 1", srv.shutdowns.Load())
		}
	})

	t.Run("terminates tree when server dies", func(t *testing.T) {
		t.Parallel()
		srv := &fakeEmbedded{}
		svc := NewNATSServerService(srv, time.Second)
		svc.checkInterval = 5 * time.Millisecond

		err := svc.Serve(context.Background())
		if !errors.Is(err, suture.ErrTerminateSupervisorTree) {
			t.Errorf("Serve = %v, want ErrTerminateSupervisorTree", err)
		}
	})
}

type fakeGC struct {
	runs atomic.Int32
}

func (f *fakeGC) RunGC(ctx context.Context) error {
	f.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestStoreGCService(t *testing.T) {
	t.Parallel()

	gc := &fakeGC{}
	svc := NewStoreGCService(gc)
	if svc.String() != "store-gc" {
		t.Errorf("String = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve = %v", err)
	}
	if gc.runs.Load() != 1 {
		t.Errorf("RunGC calls = %d", gc.runs.Load())
	}
}
