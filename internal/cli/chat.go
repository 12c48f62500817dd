package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/leadflow/internal/engine"
	"github.com/aretw0/leadflow/internal/presentation/tui"
	"github.com/aretw0/leadflow/pkg/domain"
)

// ChatOptions configures an interactive session.
type ChatOptions struct {
	ChannelID   string
	DisplayName string
	Render      tui.Renderer
	Quiet       bool
}

// Chat plays the participant side of a conversation on a terminal.
// Lines starting with "/" are session commands: /lead, /reset and /quit.
func Chat(ctx context.Context, app *App, in io.Reader, out io.Writer, opts ChatOptions) error {
	if opts.ChannelID == "" {
		opts.ChannelID = "cli"
	}
	if opts.Render == nil {
		opts.Render = tui.Plain
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		err := scanner.Err()
		if err == nil {
			err = io.EOF
		}
		readErr <- err
	}()

	if !opts.Quiet {
		if lead, err := app.Leads.Get(ctx, opts.ChannelID); err == nil {
			printSystemMessage(out, "Resuming lead %s at step '%s'.", lead.ID, lead.CurrentStepID)
			if last := lead.LastOutgoing(); last != "" {
				writeRendered(out, opts.Render, last)
			}
		} else {
			printSystemMessage(out, "New conversation on channel '%s'. Say hello to start.", opts.ChannelID)
		}
	}

	for {
		if !opts.Quiet {
			fmt.Fprint(out, "> ")
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case err := <-readErr:
			if isInterrupted(err) {
				return nil
			}
			return err
		case line = <-lines:
		}

		switch cmd := strings.TrimSpace(line); cmd {
		case "/quit", "/exit":
			return nil
		case "/lead":
			printLead(ctx, app, out, opts.ChannelID)
			continue
		case "/reset":
			if err := app.Store.Delete(ctx, opts.ChannelID); err != nil {
				return fmt.Errorf("failed to reset lead: %w", err)
			}
			printSystemMessage(out, "Lead removed.")
			continue
		}

		resp, err := app.Engine.Handle(ctx, engine.Inbound{
			ChannelID:   opts.ChannelID,
			DisplayName: opts.DisplayName,
			Text:        line,
		})
		if err != nil {
			if isInterrupted(err) {
				return nil
			}
			var cycle *domain.FlowCycleError
			if errors.As(err, &cycle) {
				return fmt.Errorf("flow is broken: %w", err)
			}
			printSystemMessage(out, "Error: %v", err)
			continue
		}

		for _, entry := range resp.Outgoing {
			writeRendered(out, opts.Render, entry.Text)
			if entry.Artifact != "" {
				printSystemMessage(out, "Attachment: %s", entry.Artifact)
			}
		}
		if resp.Status == engine.StatusCompleted && !opts.Quiet {
			printSystemMessage(out, "Conversation finished at '%s'.", resp.CurrentStepID)
		}
	}
}

func writeRendered(out io.Writer, render tui.Renderer, text string) {
	if text == "" {
		return
	}
	rendered, err := render(text)
	if err != nil {
		rendered = text + "\n"
	}
	fmt.Fprint(out, rendered)
}

func printLead(ctx context.Context, app *App, out io.Writer, channelID string) {
	lead, err := app.Leads.Get(ctx, channelID)
	if err != nil {
		printSystemMessage(out, "No lead for '%s'.", channelID)
		return
	}
	printSystemMessage(out, "Lead %s at step '%s'", lead.ID, lead.CurrentStepID)
	keys := make([]string, 0, len(lead.Answers))
	for k := range lead.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "    %s = %s\n", k, lead.Answers[k])
	}
}
