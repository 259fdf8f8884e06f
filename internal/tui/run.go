// Package tui is the interactive terminal front end for a document session.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run blocks until the user quits.
func Run(ctx context.Context, s SessionPort, file string, showAll bool) error {
	p := tea.NewProgram(New(ctx, s, file, showAll), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
