package main

import (
	"os"

	"github.com/aretw0/leadflow/internal/cli"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the flow from the terminal",
	Long:  `Plays the participant side of a conversation. Each line you type is delivered as an inbound message; /lead shows the stored answers, /reset forgets the lead and /quit leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		channel, _ := cmd.Flags().GetString("channel")
		name, _ := cmd.Flags().GetString("name")
		plain, _ := cmd.Flags().GetBool("plain")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		var render tui.Renderer = tui.Plain
		if !plain {
			render = tui.NewRenderer()
		}
		if !quiet {
			tui.PrintBanner(os.Stdout)
		}
		return cli.Chat(ctx, app, os.Stdin, os.Stdout, cli.ChatOptions{
			ChannelID:   channel,
			DisplayName: name,
			Render:      render,
			Quiet:       quiet,
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().String("channel", "cli", "Channel id of the simulated participant")
	chatCmd.Flags().String("name", "Visitante", "Display name of the simulated participant")
	chatCmd.Flags().Bool("plain", false, "Print messages without markdown rendering")
	chatCmd.Flags().BoolP("quiet", "q", false, "Hide banner, prompts and system messages")
}
