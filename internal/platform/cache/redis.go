package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"strangler/internal/shared/retry"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Addr       string
	Password   string
	DB         int
	RetryDelay time.Duration
}

// Redis wraps the keyed state store connection.
type Redis struct {
	Client *redis.Client
}

// Connect builds the client and pings until the server answers or ctx ends.
func Connect(ctx context.Context, opts Options, logger *slog.Logger) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	policy := retry.Fixed{
		Delay: opts.RetryDelay,
		OnRetry: func(attempt int, err error) {
			logger.Warn("redis not reachable, retrying",
				"event", "redis_connect_retry",
				"module", "internal/platform/cache",
				"layer", "platform",
				"addr", opts.Addr,
				"attempt", attempt,
				"error", err.Error(),
			)
		},
	}
	err := policy.Do(ctx, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	logger.Info("redis connected",
		"event", "redis_connected",
		"module", "internal/platform/cache",
		"layer", "platform",
		"addr", opts.Addr,
	)
	return &Redis{Client: client}, nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
