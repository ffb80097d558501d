package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	LockBooksTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]LockedBook, error)
	DecrementStockTx(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) error
	RestoreStockTx(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) error
	InsertSaleTx(ctx context.Context, tx *sql.Tx, s Sale) (Sale, error)
	LockSaleTx(ctx context.Context, tx *sql.Tx, id int64) (Sale, error)
	SetSaleStatusTx(ctx context.Context, tx *sql.Tx, id int64, status SaleStatus) error

	ListByUser(ctx context.Context, userID int64) ([]Sale, error)
	ListAll(ctx context.Context) ([]Sale, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const saleColumns = "id, user_id, book_id, date_of_sale, quantity, total_price, status"

func scanSale(row interface{ Scan(...any) error }) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.UserID, &s.BookID, &s.DateOfSale, &s.Quantity, &s.TotalPrice, &s.Status)
	return s, err
}

// LockBooksTx locks the given store books in ascending id order.
func (r *repository) LockBooksTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]LockedBook, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, title, price, stock
		FROM store_books
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock store books: %w", err)
	}
	defer rows.Close()

	books := make(map[int64]LockedBook, len(ids))
	for rows.Next() {
		var b LockedBook
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.Stock); err != nil {
			return nil, fmt.Errorf("scan store book: %w", err)
		}
		books[b.ID] = b
	}
	return books, rows.Err()
}

func (r *repository) DecrementStockTx(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE store_books
		SET stock = stock - $1
		WHERE id = $2 AND stock >= $1
	`, quantity, bookID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n != 1 {
		// The row is locked, so this means the caller skipped the stock check.
		return fmt.Errorf("decrement stock: book %d not updated", bookID)
	}
	return nil
}

func (r *repository) RestoreStockTx(ctx context.Context, tx *sql.Tx, bookID int64, quantity int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE store_books SET stock = stock + $1 WHERE id = $2`, quantity, bookID)
	if err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}

func (r *repository) InsertSaleTx(ctx context.Context, tx *sql.Tx, s Sale) (Sale, error) {
	created, err := scanSale(tx.QueryRowContext(ctx, `
		INSERT INTO sales (user_id, book_id, quantity, total_price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+saleColumns,
		s.UserID, s.BookID, s.Quantity, s.TotalPrice, s.Status,
	))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert sale",
			zap.String("layer", "repository"),
			zap.Int64("book_id", s.BookID),
			zap.Error(err),
		)
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	return created, nil
}

func (r *repository) LockSaleTx(ctx context.Context, tx *sql.Tx, id int64) (Sale, error) {
	s, err := scanSale(tx.QueryRowContext(ctx,
		`SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Sale{}, ErrSaleNotFound
	}
	if err != nil {
		return Sale{}, fmt.Errorf("lock sale: %w", err)
	}
	return s, nil
}

func (r *repository) SetSaleStatusTx(ctx context.Context, tx *sql.Tx, id int64, status SaleStatus) error {
	_, err := tx.ExecContext(ctx, `UPDATE sales SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Sale, error) {
	return r.list(ctx, `SELECT `+saleColumns+` FROM sales WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *repository) ListAll(ctx context.Context) ([]Sale, error) {
	return r.list(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY id`)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]Sale, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := []Sale{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}
