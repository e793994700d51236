package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"strangler/internal/shared/retry"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Postgres wraps DB connectivity for the account lookups.
type Postgres struct {
	DB *gorm.DB
}

// Connect opens the pool and pings until the database answers or ctx ends.
func Connect(ctx context.Context, dsn string, retryDelay time.Duration, log *slog.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if log == nil {
		log = slog.Default()
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("resolve postgres sql db handle: %w", err)
	}

	policy := retry.Fixed{
		Delay: retryDelay,
		OnRetry: func(attempt int, err error) {
			log.Warn("postgres not reachable, retrying",
				"event", "postgres_connect_retry",
				"module", "internal/platform/db",
				"layer", "platform",
				"attempt", attempt,
				"error", err.Error(),
			)
		},
	}
	err = policy.Do(ctx, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return sqlDB.PingContext(pingCtx)
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info("postgres connected",
		"event", "postgres_connected",
		"module", "internal/platform/db",
		"layer", "platform",
	)
	return &Postgres{DB: db}, nil
}

func (p *Postgres) Close() error {
	if p == nil || p.DB == nil {
		return nil
	}
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
