package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"bookstore-be/internal/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3

	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(tx *sql.Tx) error

// WithTx runs fn inside a single transaction. The transaction is committed when
// fn returns nil and rolled back otherwise. Serialization failures and deadlocks
// roll back and re-run fn with exponential backoff; every other error is
// returned unchanged.
func WithTx(ctx context.Context, conn *sql.DB, fn TxFunc) error {
	log := logger.FromCtx(ctx).With(zap.String("layer", "db"))

	var lastErr error
	for attempt := 0; attempt < defaultMaxAttempts; attempt++ {
		if attempt > 0 {
			delay := defaultBaseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * defaultJitterFactor //nolint:gosec
			wait := delay + time.Duration(jitter)

			log.Warn("retrying transaction",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", wait),
				zap.Error(lastErr),
			)

			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = runTx(ctx, conn, fn)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
	}

	log.Error("transaction retries exhausted", zap.Error(lastErr))
	return lastErr
}

func runTx(ctx context.Context, conn *sql.DB, fn TxFunc) (err error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.FromCtx(ctx).Error("failed to rollback transaction", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}

	return ""
}

// ConstraintName returns the constraint a Postgres error names, if any.
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}

	return ""
}

// IsRetryable reports whether err is a serialization failure or deadlock.
func IsRetryable(err error) bool {
	switch sqlState(err) {
	case pgSerializationFailure, pgDeadlockDetected:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return sqlState(err) == pgUniqueViolation
}

// IsForeignKeyViolation reports whether err references a missing parent row.
func IsForeignKeyViolation(err error) bool {
	return sqlState(err) == pgForeignKeyViolation
}

// IsCheckViolation reports whether err broke a CHECK constraint.
func IsCheckViolation(err error) bool {
	return sqlState(err) == pgCheckViolation
}
