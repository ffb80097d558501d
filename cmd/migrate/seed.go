package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"bookstore-be/internal/auth"
	"bookstore-be/internal/config"

	"github.com/doug-martin/goqu/v9"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var dialect = goqu.Dialect("postgres")

type seedUser struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

var sampleStoreBooks = []goqu.Record{
	{"title": "Sample Book 1", "author": "Author 1", "genre": "Fiction", "isbn": "1234567890", "price": 19.99, "stock": 10},
	{"title": "Sample Book 2", "author": "Author 2", "genre": "Non-Fiction", "isbn": "0987654321", "price": 24.99, "stock": 5},
}

var sampleLibraryBooks = []goqu.Record{
	{"title": "Library Book 1", "author": "Author 1", "genre": "Fiction", "isbn": "1122334455", "available_copies": 5, "total_copies": 5},
	{"title": "Library Book 2", "author": "Author 2", "genre": "Non-Fiction", "isbn": "5566778899", "available_copies": 3, "total_copies": 3},
}

// passwordReader lets tests replace the terminal prompt.
var passwordReader = func(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal; pass --admin-password")
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func newSeedCmd() *cobra.Command {
	var adminEmail, adminPassword string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert sample books, a demo user and an admin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if adminPassword == "" {
				p, err := passwordReader("Admin password: ")
				if err != nil {
					return err
				}
				adminPassword = p
			}
			if adminPassword == "" {
				return errors.New("admin password must not be empty")
			}

			return withDB(func(conn *sql.DB) error {
				hasher, err := auth.NewPasswordHasher(config.LoadConfig().BcryptCost)
				if err != nil {
					return err
				}
				users := []seedUser{
					{Name: "John Doe", Email: "john@example.com", Password: "password123"},
					{Name: "Admin User", Email: adminEmail, Password: adminPassword, IsAdmin: true},
				}
				return seed(cmd, conn, hasher, users)
			})
		},
	}
	cmd.Flags().StringVar(&adminEmail, "admin-email", "admin@example.com", "email of the seeded admin")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "admin password (prompted when empty)")
	return cmd
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// seed is idempotent: rows whose unique key already exists are skipped.
func seed(cmd *cobra.Command, conn *sql.DB, hasher passwordHasher, users []seedUser) error {
	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	inserts := []*goqu.InsertDataset{
		dialect.Insert("store_books").Rows(recordsToAny(sampleStoreBooks)...).OnConflict(goqu.DoNothing()),
		dialect.Insert("library_books").Rows(recordsToAny(sampleLibraryBooks)...).OnConflict(goqu.DoNothing()),
	}

	for _, u := range users {
		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		inserts = append(inserts, dialect.Insert("users").Rows(goqu.Record{
			"name":          u.Name,
			"email":         u.Email,
			"password_hash": hash,
			"is_admin":      u.IsAdmin,
		}).OnConflict(goqu.DoNothing()))
	}

	for _, ds := range inserts {
		query, args, err := ds.Prepared(true).ToSQL()
		if err != nil {
			return fmt.Errorf("build seed query: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	cmd.Println("database seeded")
	return nil
}

func recordsToAny(rs []goqu.Record) []any {
	out := make([]any, len(rs))
	for i, r := range rs {
		out[i] = r
	}
	return out
}
