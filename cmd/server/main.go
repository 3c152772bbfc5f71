package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/app"
	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/logger"
	"github.com/Durgesh-2001/Booze-Delivery/internal/telemetry"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup, including the
// tracer flush, completes before main exits.
func run() int {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Optional .env for local development; the sequencer reads the resulting process environment.
	env := config.DotEnvSource()

	production := true
	if v, ok := env("APP_ENV"); ok && v != "" && v != config.EnvProduction {
		production = false
	}
	debugMode := *debugFlag
	if v, ok := env("SERVER_DEBUG_MODE"); ok && v == "true" {
		debugMode = true
	}

	zapLogger, err := logger.New(production, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelEnabled, _ := env("OTEL_ENABLED")
	otelEndpoint, _ := env("OTEL_EXPORTER_OTLP_ENDPOINT")
	shutdownTracing, err := telemetry.Setup(ctx, otelEnabled == "true" && otelEndpoint != "", otelEndpoint)
	if err != nil {
		zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	seq := &app.Sequencer{
		Source:  env,
		Logger:  zapLogger,
		Connect: app.Connect,
	}
	if err := seq.Run(ctx); err != nil {
		return 1
	}
	return 0
}
