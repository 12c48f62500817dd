package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/leadflow/internal/cli"
	"github.com/spf13/cobra"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect stored leads",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every lead in the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		leads, err := app.Leads.List(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(leads)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CHANNEL\tNAME\tSTEP\tANSWERS\tUPDATED")
		for _, l := range leads {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", l.ChannelID, l.DisplayName, l.CurrentStepID, len(l.Answers), l.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

var leadsShowCmd = &cobra.Command{
	Use:   "show <channel-id>",
	Short: "Print one lead as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		lead, err := app.Leads.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(lead)
	},
}

var leadsDeleteCmd = &cobra.Command{
	Use:   "delete <channel-id>",
	Short: "Forget a lead so its next message starts over",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		if err := app.Store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Lead %s deleted.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(leadsListCmd, leadsShowCmd, leadsDeleteCmd)
	leadsListCmd.Flags().Bool("json", false, "Print the full records as JSON")
}
