package main

import (
	"fmt"

	"github.com/aretw0/leadflow/internal/adapters/postgres"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply Postgres schema migrations",
	Long:  `Runs the embedded migrations against DATABASE_URL. Only the postgres store needs this; the sqlite store creates its schema on open.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is not set")
		}
		version, err := postgres.Migrate(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "version", version)
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d.\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
