package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Insert(ctx context.Context, t Transaction) (Transaction, error)
	SetProviderRef(ctx context.Context, id, ref string) error
	// Settle moves a Pending transaction to status. It reports false when the
	// row is missing or already settled.
	Settle(ctx context.Context, id string, status TransactionStatus, resultCode *int) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	FindByID(ctx context.Context, id string) (Transaction, error)
	FindIDByProviderRef(ctx context.Context, ref string) (string, error)
	SaveCallback(ctx context.Context, rec CallbackRecord) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const transactionColumns = "id, user_id, amount, phone_number, status, result_code, provider_ref, created_at, settled_at"

func scanTransaction(row interface{ Scan(...any) error }) (Transaction, error) {
	var t Transaction
	var code sql.NullInt64
	var ref sql.NullString
	var settled sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.Amount, &t.PhoneNumber, &t.Status, &code, &ref, &t.CreatedAt, &settled)
	if code.Valid {
		c := int(code.Int64)
		t.ResultCode = &c
	}
	if ref.Valid {
		t.ProviderRef = &ref.String
	}
	if settled.Valid {
		t.SettledAt = &settled.Time
	}
	return t, err
}

func (r *repository) Insert(ctx context.Context, t Transaction) (Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (id, user_id, amount, phone_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+transactionColumns,
		t.ID, t.UserID, t.Amount, t.PhoneNumber, t.Status,
	)
	created, err := scanTransaction(row)
	if err != nil {
		logger.FromCtx(ctx).Error("insert transaction failed",
			zap.String("layer", "repository"),
			zap.String("transaction_id", t.ID),
			zap.Error(err),
		)
		return Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return created, nil
}

func (r *repository) SetProviderRef(ctx context.Context, id, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET provider_ref = $1 WHERE id = $2`, ref, id)
	if err != nil {
		return fmt.Errorf("set provider ref: %w", err)
	}
	return nil
}

func (r *repository) Settle(ctx context.Context, id string, status TransactionStatus, resultCode *int) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, result_code = $2, settled_at = NOW()
		WHERE id = $3 AND status = 'Pending'
	`, status, resultCode, id)
	if err != nil {
		return false, fmt.Errorf("settle transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("settle transaction: %w", err)
	}
	return n == 1, nil
}

func (r *repository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check transaction: %w", err)
	}
	return exists, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (Transaction, error) {
	t, err := scanTransaction(r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (r *repository) FindIDByProviderRef(ctx context.Context, ref string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM transactions WHERE provider_ref = $1`, ref,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTransactionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find transaction by provider ref: %w", err)
	}
	return id, nil
}

func (r *repository) SaveCallback(ctx context.Context, rec CallbackRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_callbacks (transaction_id, provider_ref, result_code, payload)
		VALUES ($1, $2, $3, $4)
	`, rec.TransactionID, rec.ProviderRef, rec.ResultCode, rec.Payload)
	if err != nil {
		return fmt.Errorf("save payment callback: %w", err)
	}
	return nil
}
