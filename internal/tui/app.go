package tui

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vitaminmoo/mt7697-tool/internal/ble"
	"github.com/vitaminmoo/mt7697-tool/internal/config"
)

// Run starts the TUI application.
func Run(s config.Settings) error {
	// Log lines would tear the alt screen.
	config.Log.SetOutput(io.Discard)

	m := NewModel(s, connectBLE)
	p := tea.NewProgram(m, tea.WithAltScreen())

	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.shutdown()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return err
	}

	return nil
}

func connectBLE(ctx context.Context, s config.Settings) (Link, error) {
	t, err := ble.Connect(ctx, s.Device, s.ScanTimeout)
	if err != nil {
		return nil, err
	}
	return t, nil
}
