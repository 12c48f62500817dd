package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/leadflow/internal/config"
	"github.com/aretw0/leadflow/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "leadflow",
	Short: "leadflow runs scripted lead qualification conversations",
	Long: `leadflow loads a declarative conversation flow and drives each lead through it,
one inbound message at a time, calling AI and rendering capabilities on action steps.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg = config.Load()

		if cmd.Flags().Changed("flow") {
			cfg.FlowPath, _ = cmd.Flags().GetString("flow")
		}
		if cmd.Flags().Changed("store") {
			cfg.Store, _ = cmd.Flags().GetString("store")
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
		}
		logger = logging.New(logging.ParseLevel(cfg.LogLevel))
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("flow", "", "Flow definition file (overrides FLOW_PATH)")
	rootCmd.PersistentFlags().String("store", "", "Lead store: memory, file, redis, sqlite or postgres (overrides STORE)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Environment file to load before reading settings")
}
