package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// Start binds the HTTP listener, serves in the background and returns a
// channel closed once a termination signal arrives or the server fails.
func (a *App) Start() <-chan struct{} {
	l, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		slog.Error("failed to bind http listener", "address", a.httpServer.Addr, "error", err)
		os.Exit(1)
	}

	serveErr := a.Serve(l)
	terminate := make(chan struct{})

	go func() {
		sigCtx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
		defer stop()

		select {
		case <-sigCtx.Done():
			slog.Info("termination signal received")
		case err := <-serveErr:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server stopped unexpectedly", "error", err)
			}
		}

		close(terminate)
	}()

	return terminate
}

// Serve runs the HTTP server on l and reports readiness until Stop.
func (a *App) Serve(l net.Listener) <-chan error {
	errChan := make(chan error, 1)

	slog.Info("http server listening", "address", l.Addr().String())
	a.ready.Store(true)

	go func() {
		errChan <- a.httpServer.Serve(l)
		close(errChan)
	}()

	return errChan
}

// Stop drains in-flight requests and background publishes, then closes
// resources in reverse dependency order.
func (a *App) Stop(ctx context.Context) {
	a.ready.Store(false)

	if err := a.httpServer.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to close resources", "name", "HTTP Server", "error", err)
	}

	if a.cancel != nil {
		a.cancel()
	}

	if err := a.goroutine.Wait(); err != nil {
		slog.ErrorContext(ctx, "background task failed", "error", err)
	}

	for _, closer := range a.closers {
		if err := closer.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to close resources", "name", closer.name, "error", err)
			continue
		}
		slog.DebugContext(ctx, "resource closed", "name", closer.name)
	}

	slog.InfoContext(ctx, "application gracefully shutdown")
}
