package common

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook is a function executed after a termination signal is received
// but before the HTTP servers begin their graceful shutdown. If a hook returns
// an error it will be logged; shutdown continues regardless.
type ShutdownHook func(ctx context.Context) error

// RunServersWithShutdown starts every server and blocks until ctx is done, a
// termination signal (SIGINT or SIGTERM) is received or a server fails. It
// then runs the hooks in order, each with its own timeout inside the overall
// shutdown deadline, and finally shuts the servers down.
//
// Typical usage in main:
//
//	server := &http.Server{Addr: ":8080", Handler: mux}
//	common.RunServersWithShutdown(ctx, logger, timeouts, []*http.Server{server}, saveHook)
func RunServersWithShutdown(ctx context.Context, logger *zap.Logger, timeouts TimeoutConfig, servers []*http.Server, hooks ...ShutdownHook) error {
	hookTimeout := timeouts.Hook
	if hookTimeout <= 0 {
		hookTimeout = 5 * time.Second
	}
	shutdownTimeout := timeouts.Shutdown
	if shutdownTimeout <= 0 {
		shutdownTimeout = 15 * time.Second
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	failed := make(chan error, len(servers))
	for _, server := range servers {
		logger.Info("listening", zap.String("addr", server.Addr))
		go func(server *http.Server) {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				failed <- err
			}
		}(server)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-failed:
		logger.Error("server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(shutdownCtx, hookTimeout)
		if err := h(hCtx); err != nil {
			logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
		}
		if errors.Is(hCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("shutdown hook timed out", zap.Int("hook", i))
		}
		hCancel()
	}

	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.String("addr", server.Addr), zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
	return serveErr
}

// TimeoutConfig holds server and shutdown related timeouts.
type TimeoutConfig struct {
	ReadHeader time.Duration `yaml:"readHeader" env:"READ_HEADER_TIMEOUT"`
	Read       time.Duration `yaml:"read" env:"READ_TIMEOUT"`
	Write      time.Duration `yaml:"write" env:"WRITE_TIMEOUT"`
	Idle       time.Duration `yaml:"idle" env:"IDLE_TIMEOUT"`
	Shutdown   time.Duration `yaml:"shutdown" env:"SHUTDOWN_TIMEOUT"`
	Hook       time.Duration `yaml:"hook" env:"HOOK_TIMEOUT"`
}

func DefaultTimeouts() TimeoutConfig {
	return TimeoutConfig{
		ReadHeader: 5 * time.Second,
		Read:       15 * time.Second,
		Write:      30 * time.Second,
		Idle:       60 * time.Second,
		Shutdown:   15 * time.Second,
		Hook:       5 * time.Second,
	}
}

// NewServerWithTimeouts attaches timeout settings to an existing *http.Server or creates a new one if nil.
func NewServerWithTimeouts(base *http.Server, cfg TimeoutConfig) *http.Server {
	if base == nil {
		base = &http.Server{}
	}
	base.ReadHeaderTimeout = cfg.ReadHeader
	base.ReadTimeout = cfg.Read
	base.WriteTimeout = cfg.Write
	base.IdleTimeout = cfg.Idle
	return base
}
