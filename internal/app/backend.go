package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/config"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/handlers"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
	"github.com/Durgesh-2001/Booze-Delivery/internal/queue"
)

const (
	rabbitMQMaxRetries   = 10
	rabbitMQInitialDelay = 2 * time.Second
	rabbitMQMaxDelay     = 30 * time.Second
)

// Connect opens Postgres, then Redis and RabbitMQ when they are configured.
// Notifications go through the queue when RabbitMQ is available and straight to the store otherwise.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backend, error) {
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	closers := []func(){func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed_to_close_database_connection", zap.Error(err))
		}
	}}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := database.NewStores(db)
	backend := &Backend{
		Stores:   stores,
		Notifier: notify.NewDirect(stores.Notifications),
		Checks:   map[string]handlers.Check{"database": db.PingContext},
		Close:    closeAll,
	}

	if cfg.RedisURL != "" {
		client, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		})
		backend.Redis = client
		backend.Checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		logger.Info("connected_to_redis")
	}

	if cfg.RabbitMQURL != "" {
		q, err := ConnectQueue(ctx, cfg.RabbitMQURL, logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() {
			if err := q.Close(); err != nil {
				logger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		})
		backend.Notifier = notify.NewQueued(q)
		backend.Checks["queue"] = q.HealthCheck
	}

	// closeAll reads closers at call time, so the appends above are included
	return backend, nil
}

func connectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// ConnectQueue dials RabbitMQ with exponential backoff, since the broker often starts after the app
func ConnectQueue(ctx context.Context, amqpURL string, logger *zap.Logger) (*queue.RabbitMQQueue, error) {
	var lastErr error
	for attempt := 0; attempt < rabbitMQMaxRetries; attempt++ {
		q, err := queue.NewRabbitMQQueue(amqpURL)
		if err == nil {
			logger.Info("connected_to_rabbitmq")
			return q, nil
		}
		lastErr = err

		delay := min(rabbitMQInitialDelay*time.Duration(1<<uint(attempt)), rabbitMQMaxDelay)
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", rabbitMQMaxRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("rabbitmq unavailable after %d attempts: %w", rabbitMQMaxRetries, lastErr)
}
