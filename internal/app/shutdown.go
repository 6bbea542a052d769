package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"typst-relay/internal/sentryx"
)

const (
	ShutdownTimeout   = 10 * time.Second
	ReadHeaderTimeout = 5 * time.Second
	IdleTimeout       = 60 * time.Second
)

// Run starts serving HTTP traffic and handles graceful shutdown. There is
// no write timeout: a compile may take as long as typst needs.
func (a *ServerApp) Run() error {
	router, err := a.Router()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              a.Config.Addr(),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
		IdleTimeout:       IdleTimeout,
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.WatchConfig(watchCtx)

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", server.Addr).Msg("typst-relay listening")
		if listenErr := server.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			serverErr <- listenErr
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case runErr = <-serverErr:
		a.Logger.Error().Err(runErr).Msg("Server error")
		sentryx.CaptureError(runErr, "server listen", sentryx.Tags{"addr": server.Addr})
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("Initiating graceful shutdown")
	}

	stopWatch()

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	a.Logger.Info().Msg("Closing status streams...")
	a.WSHandler.Shutdown(ctx)

	a.Logger.Info().Msg("Shutting down HTTP server...")
	if shutdownErr := server.Shutdown(ctx); shutdownErr != nil {
		a.Logger.Error().Err(shutdownErr).Msg("Server shutdown error")
		sentryx.CaptureError(shutdownErr, "server shutdown", nil)
		if runErr == nil {
			runErr = shutdownErr
		}
	}

	sentryx.Flush(2 * time.Second)
	if runErr == nil {
		a.Logger.Info().Msg("Server stopped gracefully")
	}
	return runErr
}

func (a *ServerApp) withPanicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.Logger.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Bytes("stack", debug.Stack()).
					Msg("http panic")
				sentryx.CapturePanic(rec, sentryx.Tags{"method": r.Method, "path": r.URL.Path})
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
