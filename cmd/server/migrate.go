package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-catalog/internal/database"
)

// NewMigrateCmd creates the migrate command and its up/down/version
// subcommands. Running it bare applies pending migrations.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the embedded MySQL schema migrations.`,
		RunE:  runMigrateUp,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE:  runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (drops every table)",
		RunE:  runMigrateDown,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the current migration version",
		RunE:  runMigrateVersion,
	})
	return cmd
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	cmd.Println("Running migrations...")
	if err := migrateUp(cfg.Database()); err != nil {
		return err
	}
	cmd.Println("Migrations completed successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return withMigrator(cfg.Database(), func(m *database.Migrator) error {
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("All migrations rolled back")
		return nil
	})
}

func runMigrateVersion(cmd *cobra.Command, _ []string) error {
	cfg, _, err := setup()
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	return withMigrator(cfg.Database(), func(m *database.Migrator) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("version %d (dirty: %t)\n", v, dirty)
		return nil
	})
}

func migrateUp(o database.Options) error {
	return withMigrator(o, func(m *database.Migrator) error { return m.Up() })
}

func withMigrator(o database.Options, fn func(*database.Migrator) error) (err error) {
	m, err := database.NewMigrator(o)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(m)
}
