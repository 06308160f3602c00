package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/desertthunder/vibecast/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI for picking and analyzing playlists.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	if token == "" {
		return fmt.Errorf("%w: pass --token or set VIBECAST_TOKEN", shared.ErrNotAuthenticated)
	}

	// Logs would interfere with TUI rendering
	logger := shared.DiscardLogger()
	if path := cmd.String("log-file"); path != "" {
		fileLogger, closer, err := shared.NewFileLogger(path)
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = fileLogger
	}
	if err := shared.SetLogLevel(logger, r.config.Log.Level); err != nil {
		logger.Warn("unknown log level", "level", r.config.Log.Level)
	}
	previous := r.logger
	r.logger = logger
	defer func() { r.logger = previous }()

	engine, closeRuns, err := r.newEngine(cmd.String("strategy"))
	if err != nil {
		return err
	}
	defer closeRuns()

	model := ui.NewModel(ctx, token, r.catalog, engine)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
