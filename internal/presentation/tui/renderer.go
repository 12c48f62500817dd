// Package tui renders bot messages for the terminal chat.
package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns message text into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a markdown renderer backed by glamour.
// It falls back to Plain when the terminal style cannot be detected.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return Plain
	}
	return r.Render
}

// Plain returns the text unchanged, trimmed, with a trailing newline.
func Plain(text string) (string, error) {
	return strings.TrimSpace(text) + "\n", nil
}
