package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-be/internal/apperror"
	"bookstore-be/internal/db"
	"bookstore-be/internal/logger"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	tableStoreBooks   = "store_books"
	tableLibraryBooks = "library_books"
)

var (
	dialect = goqu.Dialect("postgres")

	storeBookCols   = []any{"id", "title", "author", "genre", "isbn", "price", "stock", "image_url"}
	libraryBookCols = []any{"id", "title", "author", "genre", "isbn", "available_copies", "total_copies", "image_url"}
)

type Repository interface {
	InsertStoreBook(ctx context.Context, in CreateStoreBookInput) (StoreBook, error)
	GetStoreBook(ctx context.Context, id int64) (StoreBook, error)
	ListStoreBooks(ctx context.Context) ([]StoreBook, error)
	UpdateStoreBook(ctx context.Context, id int64, in UpdateStoreBookInput) (StoreBook, error)
	DeleteStoreBook(ctx context.Context, id int64) error

	InsertLibraryBook(ctx context.Context, in CreateLibraryBookInput) (LibraryBook, error)
	GetLibraryBook(ctx context.Context, id int64) (LibraryBook, error)
	ListLibraryBooks(ctx context.Context) ([]LibraryBook, error)
	UpdateLibraryBook(ctx context.Context, id int64, in UpdateLibraryBookInput) (LibraryBook, error)
	DeleteLibraryBook(ctx context.Context, id int64) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStoreBook(row rowScanner) (StoreBook, error) {
	var b StoreBook
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.ISBN, &b.Price, &b.Stock, &b.ImageURL)
	return b, err
}

func scanLibraryBook(row rowScanner) (LibraryBook, error) {
	var b LibraryBook
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &b.ISBN, &b.AvailableCopies, &b.TotalCopies, &b.ImageURL)
	return b, err
}

// mapWriteErr turns constraint violations into domain errors.
func mapWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrDuplicateISBN
	case db.IsForeignKeyViolation(err):
		return ErrBookInUse
	case db.IsCheckViolation(err):
		return apperror.Wrap(apperror.KindInvalidArgument, "book violates an inventory constraint", err)
	}
	return err
}

func insertReturning[T any](ctx context.Context, conn *sqlx.DB, table string, rec goqu.Record, cols []any) (T, error) {
	var out T
	query, args, err := dialect.Insert(table).Rows(rec).Returning(cols...).Prepared(true).ToSQL()
	if err != nil {
		return out, fmt.Errorf("build insert %s: %w", table, err)
	}
	if err := conn.QueryRowxContext(ctx, query, args...).StructScan(&out); err != nil {
		return out, mapWriteErr(err)
	}
	return out, nil
}

func getByID[T any](ctx context.Context, conn *sqlx.DB, table string, cols []any, id int64) (T, error) {
	var out T
	query, args, err := dialect.From(table).Select(cols...).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return out, fmt.Errorf("build select %s: %w", table, err)
	}
	err = conn.GetContext(ctx, &out, query, args...)
	return out, err
}

func listAll[T any](ctx context.Context, conn *sqlx.DB, table string, cols []any) ([]T, error) {
	query, args, err := dialect.From(table).Select(cols...).Order(goqu.I("id").Asc()).Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", table, err)
	}
	out := []T{}
	if err := conn.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return out, nil
}

func deleteByID(ctx context.Context, conn *sqlx.DB, table string, id int64) (bool, error) {
	query, args, err := dialect.Delete(table).Where(goqu.C("id").Eq(id)).Prepared(true).ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete %s: %w", table, err)
	}
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, mapWriteErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func lockQuery(table string, cols []any, id int64) (string, []any, error) {
	return dialect.From(table).
		Select(cols...).
		Where(goqu.C("id").Eq(id)).
		ForUpdate(exp.Wait).
		Prepared(true).
		ToSQL()
}

func updateQuery(table string, rec goqu.Record, cols []any, id int64) (string, []any, error) {
	return dialect.Update(table).
		Set(rec).
		Where(goqu.C("id").Eq(id)).
		Returning(cols...).
		Prepared(true).
		ToSQL()
}

func (r *repository) InsertStoreBook(ctx context.Context, in CreateStoreBookInput) (StoreBook, error) {
	b, err := insertReturning[StoreBook](ctx, r.db, tableStoreBooks, in.record(), storeBookCols)
	if err != nil && !errors.Is(err, ErrDuplicateISBN) {
		logger.FromCtx(ctx).Error("failed to insert store book",
			zap.String("layer", "repository"),
			zap.String("isbn", in.ISBN),
			zap.Error(err),
		)
	}
	return b, err
}

func (r *repository) GetStoreBook(ctx context.Context, id int64) (StoreBook, error) {
	b, err := getByID[StoreBook](ctx, r.db, tableStoreBooks, storeBookCols, id)
	if errors.Is(err, sql.ErrNoRows) {
		return StoreBook{}, ErrStoreBookNotFound
	}
	return b, err
}

func (r *repository) ListStoreBooks(ctx context.Context) ([]StoreBook, error) {
	return listAll[StoreBook](ctx, r.db, tableStoreBooks, storeBookCols)
}

// UpdateStoreBook locks the row, merges in and writes only the changed columns.
func (r *repository) UpdateStoreBook(ctx context.Context, id int64, in UpdateStoreBookInput) (StoreBook, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStoreBook"),
		zap.Int64("book_id", id),
	)

	var updated StoreBook
	err := db.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		query, args, err := lockQuery(tableStoreBooks, storeBookCols, id)
		if err != nil {
			return err
		}
		current, err := scanStoreBook(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStoreBookNotFound
		}
		if err != nil {
			return fmt.Errorf("lock store book: %w", err)
		}

		rec, err := in.apply(&current)
		if err != nil {
			return err
		}
		if len(rec) == 0 {
			updated = current
			return nil
		}

		query, args, err = updateQuery(tableStoreBooks, rec, storeBookCols, id)
		if err != nil {
			return err
		}
		updated, err = scanStoreBook(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return mapWriteErr(err)
		}
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Error("failed to update store book", zap.Error(err))
		}
		return StoreBook{}, err
	}

	return updated, nil
}

func (r *repository) DeleteStoreBook(ctx context.Context, id int64) error {
	ok, err := deleteByID(ctx, r.db, tableStoreBooks, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStoreBookNotFound
	}
	return nil
}

func (r *repository) InsertLibraryBook(ctx context.Context, in CreateLibraryBookInput) (LibraryBook, error) {
	b, err := insertReturning[LibraryBook](ctx, r.db, tableLibraryBooks, in.record(), libraryBookCols)
	if err != nil && !errors.Is(err, ErrDuplicateISBN) {
		logger.FromCtx(ctx).Error("failed to insert library book",
			zap.String("layer", "repository"),
			zap.String("isbn", in.ISBN),
			zap.Error(err),
		)
	}
	return b, err
}

func (r *repository) GetLibraryBook(ctx context.Context, id int64) (LibraryBook, error) {
	b, err := getByID[LibraryBook](ctx, r.db, tableLibraryBooks, libraryBookCols, id)
	if errors.Is(err, sql.ErrNoRows) {
		return LibraryBook{}, ErrLibraryBookNotFound
	}
	return b, err
}

func (r *repository) ListLibraryBooks(ctx context.Context) ([]LibraryBook, error) {
	return listAll[LibraryBook](ctx, r.db, tableLibraryBooks, libraryBookCols)
}

func (r *repository) UpdateLibraryBook(ctx context.Context, id int64, in UpdateLibraryBookInput) (LibraryBook, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateLibraryBook"),
		zap.Int64("book_id", id),
	)

	var updated LibraryBook
	err := db.WithTx(ctx, r.db.DB, func(tx *sql.Tx) error {
		query, args, err := lockQuery(tableLibraryBooks, libraryBookCols, id)
		if err != nil {
			return err
		}
		current, err := scanLibraryBook(tx.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLibraryBookNotFound
		}
		if err != nil {
			return fmt.Errorf("lock library book: %w", err)
		}

		rec, err := in.apply(&current)
		if err != nil {
			return err
		}
		if len(rec) == 0 {
			updated = current
			return nil
		}

		query, args, err = updateQuery(tableLibraryBooks, rec, libraryBookCols, id)
		if err != nil {
			return err
		}
		updated, err = scanLibraryBook(tx.QueryRowContext(ctx, query, args...))
		if err != nil {
			return mapWriteErr(err)
		}
		return nil
	})
	if err != nil {
		if apperror.KindOf(err) == apperror.KindInternal {
			log.Error("failed to update library book", zap.Error(err))
		}
		return LibraryBook{}, err
	}

	return updated, nil
}

func (r *repository) DeleteLibraryBook(ctx context.Context, id int64) error {
	ok, err := deleteByID(ctx, r.db, tableLibraryBooks, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLibraryBookNotFound
	}
	return nil
}
