package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pawfect-match/internal/adapters/storage/postgres"
	"pawfect-match/internal/config"
)

// migrationRunner es lo que usan los subcomandos; postgres.Migrator lo cumple.
type migrationRunner interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

// newMigrator se reemplaza en tests.
var newMigrator = func(dsn string) (migrationRunner, error) {
	return postgres.NewMigrator(dsn)
}

// NewMigrateCmd crea el subcomando migrate con up/down/version.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
		Long: `Apply or roll back the embedded PostgreSQL migrations.
Requires storage.postgres_dsn (DATABASE_URL).`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner) error {
			if err := m.Up(); err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}
			cmd.Println("migrations applied")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner) error {
			if err := m.Down(); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			cmd.Println("migrations rolled back")
			return nil
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: withMigrator(func(cmd *cobra.Command, m migrationRunner) error {
			v, dirty, err := m.Version()
			if err != nil {
				return fmt.Errorf("migrate version: %w", err)
			}
			cmd.Printf("version %d (dirty: %t)\n", v, dirty)
			return nil
		}),
	})

	return cmd
}

func withMigrator(run func(cmd *cobra.Command, m migrationRunner) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn (DATABASE_URL) is required")
		}
		if cfg.Storage.Driver != config.StoragePostgres {
			cmd.PrintErrf("warning: storage.driver is %q, migrating postgres anyway\n", cfg.Storage.Driver)
		}

		m, err := newMigrator(cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("migrator: %w", err)
		}
		defer func() {
			err = errors.Join(err, m.Close())
		}()

		return run(cmd, m)
	}
}
