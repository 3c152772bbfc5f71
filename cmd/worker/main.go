package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/app"
	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/logger"
	"github.com/Durgesh-2001/Booze-Delivery/internal/queue"
	"github.com/Durgesh-2001/Booze-Delivery/internal/workers"
)

const (
	dlqSweepInterval  = time.Hour
	dlqRetentionLimit = 24 * time.Hour
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag
	zapLogger, err := logger.New(cfg.IsProduction(), debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	if cfg.RabbitMQURL == "" {
		zapLogger.Fatal("rabbitmq_url_not_configured")
	}

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}()
	if err := db.EnsureSchema(ctx); err != nil {
		zapLogger.Fatal("failed_to_apply_schema", zap.Error(err))
	}
	stores := database.NewStores(db)

	jobQueue, err := app.ConnectQueue(ctx, cfg.RabbitMQURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	sweeper := queue.NewDeadLetterSweeper(jobQueue, stores.Notifications.Create, dlqSweepInterval, dlqRetentionLimit, zapLogger)
	go func() {
		_ = sweeper.Start(ctx)
	}()

	msgs, errs, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")
	workers.NewNotificationWorker(stores.Notifications, jobQueue, zapLogger).Run(ctx, msgs, errs)
	zapLogger.Info("worker_stopped")
}
