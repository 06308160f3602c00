package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/vibecast/internal/formatter"
	"github.com/desertthunder/vibecast/internal/services"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/urfave/cli/v3"
)

// Playlists lists the token owner's playlists. With --json the provider's payload is written unmodified.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	if token == "" {
		return fmt.Errorf("%w: pass --token or set VIBECAST_TOKEN", shared.ErrNotAuthenticated)
	}

	raw, err := r.catalog.UserPlaylists(ctx, token)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if cmd.Bool("pretty") {
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return fmt.Errorf("failed to format JSON: %w", err)
			}
			raw = buf.Bytes()
		}
		return r.writePlain("%s\n", raw)
	}

	playlists, total, err := services.DecodePlaylists(raw)
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d of %d)", len(playlists), total))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   %s\n", formatter.Hint(fmt.Sprintf("%s · %d tracks · %s · %s",
			p.ID, p.TrackCount, p.Owner, shared.VisibilityString(p.Public))))
	}
	return nil
}
