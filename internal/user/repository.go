package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bookstore-be/internal/db"
	"bookstore-be/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, params CreateUserParams) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id int64) (User, error)
	List(ctx context.Context) ([]User, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(conn *sqlx.DB) Repository {
	return &repository{db: conn}
}

const userColumns = "id, name, email, password_hash, is_admin, created_at"

func (r *repository) Create(ctx context.Context, params CreateUserParams) (User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Create"),
	)

	var u User
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO users (name, email, password_hash, is_admin)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+userColumns,
		params.Name, params.Email, params.PasswordHash, params.IsAdmin,
	).StructScan(&u)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrEmailExists
		}
		log.Error("failed to insert user", zap.String("email", params.Email), zap.Error(err))
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *repository) List(ctx context.Context) ([]User, error) {
	users := []User{}
	if err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		logger.FromCtx(ctx).Error("failed to list users",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Delete removes the user; cart items, sales and borrowings go with it via
// ON DELETE CASCADE.
func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
