package main

import (
	"fmt"

	"todo-gpt/backend/internal/repositories"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(func(app *Application, mc *repositories.MigrationConfig) error {
			return repositories.RunMigrations(app.DB.DB, mc)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(func(app *Application, mc *repositories.MigrationConfig) error {
			return repositories.RollbackMigration(app.DB.DB, mc)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrations(func(app *Application, mc *repositories.MigrationConfig) error {
			version, dirty, err := repositories.GetMigrationVersion(app.DB.DB, mc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

// withMigrations opens the database without serving traffic and closes it
// once fn returns.
func withMigrations(fn func(app *Application, mc *repositories.MigrationConfig) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	app := &Application{Config: cfg, DB: pool}
	defer app.cleanup()

	return fn(app, migrationConfig(cfg))
}
