package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
)

const shutdownTimeout = 30 * time.Second

// ConnectFunc opens the data store and any optional backends
type ConnectFunc func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error)

// ListenFunc binds the HTTP listener. net.Listen satisfies it.
type ListenFunc func(network, address string) (net.Listener, error)

// Sequencer starts the server in a fixed order: validate configuration,
// connect the data store, then bind the listener. Any failure stops the
// sequence before the next step runs.
type Sequencer struct {
	Source  config.Source
	Logger  *zap.Logger
	Connect ConnectFunc
	Listen  ListenFunc
}

// Run executes the sequence and serves until ctx is cancelled
func (s *Sequencer) Run(ctx context.Context) error {
	listen := s.Listen
	if listen == nil {
		listen = net.Listen
	}

	cfg, err := config.LoadFrom(s.Source)
	if err != nil {
		var missing *config.MissingKeyError
		if errors.As(err, &missing) {
			s.Logger.Error("missing_environment_key", zap.String("key", missing.Key), zap.Error(err))
		} else {
			s.Logger.Error("invalid_configuration", zap.Error(err))
		}
		return err
	}

	backend, err := s.Connect(ctx, cfg, s.Logger)
	if err != nil {
		s.Logger.Error("failed_to_connect_to_database", zap.Error(err))
		return fmt.Errorf("connect: %w", err)
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	s.Logger.Info("connected_to_database")

	handler, err := NewRouter(cfg, backend, s.Logger)
	if err != nil {
		s.Logger.Error("failed_to_build_router", zap.Error(err))
		return err
	}

	ln, err := listen("tcp", ":"+cfg.Port)
	if err != nil {
		s.Logger.Error("failed_to_bind_listener", zap.String("port", cfg.Port), zap.Error(err))
		return fmt.Errorf("listen: %w", err)
	}

	s.Logger.Info("server_listening",
		zap.String("addr", ln.Addr().String()),
		zap.String("environment", cfg.Environment),
	)
	return Serve(ctx, NewServer(handler), ln, s.Logger)
}

// NewServer wraps handler with the server timeouts used in every environment
func NewServer(handler http.Handler) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}

// Serve runs srv on ln until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server_exited")
	return nil
}
