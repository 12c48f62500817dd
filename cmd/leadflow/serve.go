package main

import (
	"github.com/aretw0/leadflow/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook HTTP server",
	Long:  `Loads the flow, wires the configured lead store and capabilities, and serves the webhook, lead and flow APIs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetString("port")
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		logger.Info("flow loaded",
			"path", cfg.FlowPath,
			"version", app.Flow.Version(),
			"steps", len(app.Flow.Steps()),
			"store", cfg.Store,
		)
		if err := cli.Serve(ctx, nil, ":"+cfg.Port, app.Handler(), logger); err != nil {
			return err
		}
		if sig := ctx.Signal(); sig != nil {
			logger.Info("stopped by signal", "signal", sig.String())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on (overrides PORT)")
}
