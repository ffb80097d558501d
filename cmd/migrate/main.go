package main

import (
	"context"
	"database/sql"
	"os"

	"bookstore-be/internal/config"
	"bookstore-be/internal/db"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string
	var steps int

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the bookstore database schema and sample data",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "./migrations", "directory holding *.sql migrations")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, dir, func(ctx context.Context, m *migrator, files []migrationFile) error {
				n, err := m.Down(ctx, files, steps)
				if err != nil {
					return err
				}
				if n == 0 {
					cmd.Println("no migrations to roll back")
					return nil
				}
				cmd.Printf("rolled back %d migration(s)\n", n)
				return nil
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, dir, func(ctx context.Context, m *migrator, files []migrationFile) error {
					n, err := m.Up(ctx, files)
					if err != nil {
						return err
					}
					cmd.Printf("applied %d migration(s)\n", n)
					return nil
				})
			},
		},
		down,
		&cobra.Command{
			Use:   "status",
			Short: "List applied and pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, dir, func(ctx context.Context, m *migrator, files []migrationFile) error {
					return m.Status(ctx, files)
				})
			},
		},
		newSeedCmd(),
	)
	return root
}

func withMigrator(cmd *cobra.Command, dir string, fn func(context.Context, *migrator, []migrationFile) error) error {
	files, err := loadMigrations(dir)
	if err != nil {
		return err
	}
	return withDB(func(conn *sql.DB) error {
		m := &migrator{conn: conn, out: cmd.OutOrStdout()}
		if err := m.ensureTable(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd.Context(), m, files)
	})
}

func withDB(fn func(conn *sql.DB) error) error {
	cfg := config.LoadConfig()
	conn, err := db.NewDatabase(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}
