package main

import (
	"fmt"

	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/internal/presentation/graph"
	"github.com/aretw0/leadflow/pkg/flow"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [flow-file]",
	Short: "Export the flow graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of the flow. With --lead, the lead's answered steps and current position are highlighted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			cfg.FlowPath = args[0]
		}
		channel, _ := cmd.Flags().GetString("lead")

		if channel == "" {
			def, err := flow.Load(cfg.FlowPath)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(def, nil))
			return nil
		}

		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		lead, err := app.Leads.Get(cmd.Context(), channel)
		if err != nil {
			return fmt.Errorf("failed to load lead %q: %w", channel, err)
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(app.Flow, graph.OverlayFor(app.Flow, lead)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("lead", "", "Channel id of a lead to highlight")
}
