package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/vibecast/internal/formatter"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/desertthunder/vibecast/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Analyze runs the analysis pipeline for one playlist and prints the mood profile.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	playlistID := cmd.StringArg("playlist")
	if playlistID == "" {
		return fmt.Errorf("%w: playlist ID", shared.ErrMissingArgument)
	}
	token := cmd.String("token")
	if token == "" {
		return fmt.Errorf("%w: pass --token or set VIBECAST_TOKEN", shared.ErrNotAuthenticated)
	}

	useJSON := cmd.Bool("json")
	quiet := useJSON || cmd.Bool("markdown")

	engine, closeRuns, err := r.newEngine(cmd.String("strategy"))
	if err != nil {
		return err
	}
	defer closeRuns()

	progress := make(chan tasks.ProgressUpdate, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if quiet || update.Phase == tasks.Done {
				continue
			}
			r.writePlain("→ [%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	profile, err := engine.Analyze(ctx, playlistID, token, progress)
	close(progress)
	wg.Wait()

	if err != nil {
		r.logger.Error("analysis failed", "playlist", playlistID, "kind", shared.Kind(err))
		return err
	}

	switch {
	case useJSON:
		return r.writeJSON(profile, cmd.Bool("pretty"))
	case cmd.Bool("markdown"):
		return r.writePlain("%s", formatter.ProfileToMarkdown(profile, ""))
	case cmd.Bool("plain"):
		return r.writePlain("%s", formatter.ProfileToText(profile))
	default:
		return r.writePlain("\n%s\n", formatter.RenderProfile(profile))
	}
}
