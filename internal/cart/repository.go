package cart

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"bookstore-be/internal/db"
	"bookstore-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	Upsert(ctx context.Context, userID, bookID int64, quantity int) (CartItem, error)
	ListByUser(ctx context.Context, userID int64) ([]CartLine, error)

	// LockForCheckoutTx and DeleteItemsTx run inside the checkout transaction.
	LockForCheckoutTx(ctx context.Context, tx *sql.Tx, userID int64) ([]LockedItem, error)
	DeleteItemsTx(ctx context.Context, tx *sql.Tx, ids []int64) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const userFKConstraint = "cart_items_user_id_fkey"

// Upsert adds quantity to the (user, book) row, creating it when missing. The
// accumulation happens in a single statement, so concurrent adds never lose
// an increment.
func (r *repository) Upsert(ctx context.Context, userID, bookID int64, quantity int) (CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Upsert"),
		zap.Int64("book_id", bookID),
	)

	var item CartItem
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO cart_items (user_id, book_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, book_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity,
		              updated_at = NOW()
		RETURNING id, user_id, book_id, quantity, created_at, updated_at
	`, userID, bookID, quantity).Scan(
		&item.ID, &item.UserID, &item.BookID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			// A still-valid token can outlive its deleted user.
			if db.ConstraintName(err) == userFKConstraint {
				return CartItem{}, ErrAccountGone
			}
			return CartItem{}, ErrBookNotFound
		}
		log.Error("failed to upsert cart item", zap.Error(err))
		return CartItem{}, fmt.Errorf("upsert cart item: %w", err)
	}

	return item, nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]CartLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.book_id, b.title, b.price, ci.quantity
		FROM cart_items ci
		JOIN store_books b ON b.id = ci.book_id
		WHERE ci.user_id = $1
		ORDER BY ci.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	lines := []CartLine{}
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.ID, &l.BookID, &l.Title, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		l.Subtotal = Round2(l.UnitPrice * float64(l.Quantity))
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) LockForCheckoutTx(ctx context.Context, tx *sql.Tx, userID int64) ([]LockedItem, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, book_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY book_id
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("lock cart items: %w", err)
	}
	defer rows.Close()

	var items []LockedItem
	for rows.Next() {
		var it LockedItem
		if err := rows.Scan(&it.ID, &it.BookID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// DeleteItemsTx removes exactly the given rows, so an item added after the
// checkout locked the cart survives.
func (r *repository) DeleteItemsTx(ctx context.Context, tx *sql.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	if n != int64(len(ids)) {
		return fmt.Errorf("clear cart items: deleted %d of %d rows", n, len(ids))
	}
	return nil
}

// Round2 rounds a money amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
