package main

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/go-waitlist/config"
	"github.com/akeren/go-waitlist/pkg/migrations"
	"github.com/akeren/go-waitlist/pkg/utils"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations to the postgres store",
	Long: `Apply the waitlist schema to PostgreSQL with golang-migrate.

The schema compiled into the binary is used unless --dir (or MIGRATIONS_DIR)
points at a directory of *.up.sql / *.down.sql files.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().String("dir", "", "migrations directory (default: embedded schema, or MIGRATIONS_DIR)")
	migrateCmd.Flags().Duration("timeout", 5*time.Minute, "give up after this long")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger := cliLogger()

	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = utils.GetEnvTrimmed("MIGRATIONS_DIR")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	db, err := config.NewDatabase(logger, config.NewDBConfig())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer config.CloseDatabase(db, logger)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := migrations.Up(ctx, sqlDB, migrations.Config{Dir: dir, Logger: logger}); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Database migrations completed")
	return nil
}
