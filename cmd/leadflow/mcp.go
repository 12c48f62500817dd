package main

import (
	"os"
	"strings"

	"github.com/aretw0/leadflow"
	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the flow as a Model Context Protocol server on stdio",
	Long: `Exposes the engine to MCP clients. Tools: send_message, get_lead, list_leads
and flow_graph. The resource leadflow://flow holds the Mermaid chart of the flow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(mcp.Config{
			Engine:  app.Engine,
			Leads:   app.Leads,
			Flow:    app.Flow,
			Version: strings.TrimSpace(leadflow.Version),
			Logger:  logger,
		})
		logger.Info("MCP server listening on stdio")
		return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
