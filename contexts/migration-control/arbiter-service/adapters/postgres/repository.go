package postgresadapter

import (
	"context"
	"database/sql/driver"
	"errors"
	"log/slog"
	"net"
	"strings"
	"time"

	application "strangler/contexts/migration-control/arbiter-service/application"
	"strangler/contexts/migration-control/arbiter-service/domain/entities"
	domainerrors "strangler/contexts/migration-control/arbiter-service/domain/errors"
	"strangler/internal/shared/retry"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repository reads the legacy and shadow rows of an account. Both rows live in
// the same table and are told apart by is_shadow.
type Repository struct {
	db         *gorm.DB
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewRepository(db *gorm.DB, retryDelay time.Duration, logger *slog.Logger) *Repository {
	return &Repository{
		db:         db,
		retryDelay: retryDelay,
		logger:     application.ResolveLogger(logger),
	}
}

func (r *Repository) GetAccountPair(
	ctx context.Context,
	accountNumber string,
) (entities.AccountSnapshot, entities.AccountSnapshot, error) {
	accountNumber = strings.TrimSpace(accountNumber)

	var rows []accountModel
	policy := retry.Fixed{
		Delay:     r.retryDelay,
		Retryable: isConnectivityError,
		OnRetry: func(attempt int, err error) {
			r.logger.Warn("account lookup failed, retrying",
				"event", "arbiter_postgres_lookup_retry",
				"module", "migration-control/arbiter-service",
				"layer", "adapter",
				"account_number", accountNumber,
				"attempt", attempt,
				"error", err.Error(),
			)
		},
	}
	err := policy.Do(ctx, func(ctx context.Context) error {
		rows = rows[:0]
		return r.db.WithContext(ctx).
			Where("account_number = ?", accountNumber).
			Find(&rows).
			Error
	})
	if err != nil {
		return entities.AccountSnapshot{}, entities.AccountSnapshot{}, err
	}

	var (
		legacy, modern       entities.AccountSnapshot
		hasLegacy, hasModern bool
	)
	for _, row := range rows {
		if row.IsShadow {
			modern, hasModern = row.toEntity(), true
		} else {
			legacy, hasLegacy = row.toEntity(), true
		}
	}
	if !hasLegacy || !hasModern {
		return entities.AccountSnapshot{}, entities.AccountSnapshot{}, domainerrors.ErrAccountNotFound
	}
	return legacy, modern, nil
}

type accountModel struct {
	AccountNumber string  `gorm:"column:account_number"`
	Balance       float64 `gorm:"column:balance"`
	IsShadow      bool    `gorm:"column:is_shadow"`
	ClientType    string  `gorm:"column:client_type"`
}

func (accountModel) TableName() string {
	return "accounts"
}

func (m accountModel) toEntity() entities.AccountSnapshot {
	return entities.AccountSnapshot{
		AccountNumber: m.AccountNumber,
		Balance:       m.Balance,
		IsShadow:      m.IsShadow,
		ClientType:    m.ClientType,
	}
}

func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// SQLSTATE class 08 is connection exception; 57P0x is server shutdown.
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0")
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
