package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/vibecast/internal/formatter"
	"github.com/desertthunder/vibecast/internal/models"
	"github.com/desertthunder/vibecast/internal/repositories"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/urfave/cli/v3"
)

type runJSON struct {
	ID         string `json:"id"`
	PlaylistID string `json:"playlistId"`
	Strategy   string `json:"strategy"`
	TrackCount int    `json:"trackCount"`
	Status     string `json:"status"`
	ErrorKind  string `json:"errorKind,omitempty"`
	DurationMS int64  `json:"durationMs"`
	Created    string `json:"created"`
}

func toRunJSON(runs []*models.AnalysisRun) []runJSON {
	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, runJSON{
			ID:         run.RunID,
			PlaylistID: run.PlaylistID,
			Strategy:   run.Strategy,
			TrackCount: run.TrackCount,
			Status:     run.Status,
			ErrorKind:  run.ErrorKind,
			DurationMS: run.Duration.Milliseconds(),
			Created:    run.Created.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// History lists recent entries from the run log, optionally pruning old ones first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	runs, db, err := repositories.Open(r.config.Database)
	if err != nil {
		return err
	}
	if runs == nil {
		return fmt.Errorf("%w: run log disabled, set database.path or VIBECAST_DB_PATH", shared.ErrMissingConfig)
	}
	defer db.Close()

	if age := cmd.Duration("prune"); age > 0 {
		removed, err := runs.Prune(ctx, time.Now().Add(-age))
		if err != nil {
			return fmt.Errorf("failed to prune run log: %w", err)
		}
		r.logger.Info("pruned run log", "removed", removed, "older_than", age)
	}

	limit := cmd.Int("limit")
	var list []*models.AnalysisRun
	if playlistID := cmd.String("playlist"); playlistID != "" {
		list, err = runs.ForPlaylist(ctx, playlistID, limit)
	} else {
		list, err = runs.Recent(ctx, limit)
	}
	if err != nil {
		return fmt.Errorf("failed to read run log: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(toRunJSON(list), cmd.Bool("pretty"))
	}
	return r.writePlain("%s\n", formatter.RenderRuns(list))
}
