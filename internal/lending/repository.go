package lending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookstore-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	LockBookTx(ctx context.Context, tx *sql.Tx, bookID int64) (available int, err error)
	TakeCopyTx(ctx context.Context, tx *sql.Tx, bookID int64) error
	ReleaseCopyTx(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)

	InsertBorrowingTx(ctx context.Context, tx *sql.Tx, b Borrowing) (Borrowing, error)
	LockBorrowingTx(ctx context.Context, tx *sql.Tx, id int64) (Borrowing, error)
	UpdateBorrowingTx(ctx context.Context, tx *sql.Tx, id int64, status BorrowingStatus, returnedAt *time.Time) error

	ListByUser(ctx context.Context, userID int64) ([]Borrowing, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(conn *sql.DB) Repository {
	return &repository{db: conn}
}

const borrowingColumns = "id, user_id, book_id, date_borrowed, due_date, date_returned, status"

func scanBorrowing(row interface{ Scan(...any) error }) (Borrowing, error) {
	var b Borrowing
	var returned sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.BookID, &b.DateBorrowed, &b.DueDate, &returned, &b.Status)
	if returned.Valid {
		b.DateReturned = &returned.Time
	}
	return b, err
}

func (r *repository) LockBookTx(ctx context.Context, tx *sql.Tx, bookID int64) (int, error) {
	var available int
	err := tx.QueryRowContext(ctx,
		`SELECT available_copies FROM library_books WHERE id = $1 FOR UPDATE`, bookID,
	).Scan(&available)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrBookNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock library book: %w", err)
	}
	return available, nil
}

func (r *repository) TakeCopyTx(ctx context.Context, tx *sql.Tx, bookID int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE library_books
		SET available_copies = available_copies - 1
		WHERE id = $1 AND available_copies > 0
	`, bookID)
	if err != nil {
		return fmt.Errorf("take copy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("take copy: %w", err)
	}
	if n == 0 {
		return ErrNoCopiesAvailable
	}
	return nil
}

// ReleaseCopyTx puts one copy back, never above total_copies. It reports
// whether a copy was actually released.
func (r *repository) ReleaseCopyTx(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE library_books
		SET available_copies = available_copies + 1
		WHERE id = $1 AND available_copies < total_copies
	`, bookID)
	if err != nil {
		return false, fmt.Errorf("release copy: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("release copy: %w", err)
	}
	return n == 1, nil
}

func (r *repository) InsertBorrowingTx(ctx context.Context, tx *sql.Tx, b Borrowing) (Borrowing, error) {
	created, err := scanBorrowing(tx.QueryRowContext(ctx, `
		INSERT INTO borrowings (user_id, book_id, date_borrowed, due_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+borrowingColumns,
		b.UserID, b.BookID, b.DateBorrowed, b.DueDate, b.Status,
	))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert borrowing",
			zap.String("layer", "repository"),
			zap.Int64("book_id", b.BookID),
			zap.Error(err),
		)
		return Borrowing{}, fmt.Errorf("insert borrowing: %w", err)
	}
	return created, nil
}

func (r *repository) LockBorrowingTx(ctx context.Context, tx *sql.Tx, id int64) (Borrowing, error) {
	b, err := scanBorrowing(tx.QueryRowContext(ctx,
		`SELECT `+borrowingColumns+` FROM borrowings WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Borrowing{}, ErrBorrowingNotFound
	}
	if err != nil {
		return Borrowing{}, fmt.Errorf("lock borrowing: %w", err)
	}
	return b, nil
}

func (r *repository) UpdateBorrowingTx(ctx context.Context, tx *sql.Tx, id int64, status BorrowingStatus, returnedAt *time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE borrowings SET status = $1, date_returned = $2 WHERE id = $3`,
		status, returnedAt, id)
	if err != nil {
		return fmt.Errorf("update borrowing: %w", err)
	}
	return nil
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Borrowing, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+borrowingColumns+` FROM borrowings WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list borrowings: %w", err)
	}
	defer rows.Close()

	out := []Borrowing{}
	for rows.Next() {
		b, err := scanBorrowing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan borrowing: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
