package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config template to --output, or to the root --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("output")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: config path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or SPOTIFY_CLIENT_ID / SPOTIFY_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'vibecast login' to get an access token\n")
	return nil
}

// SetupDatabase initializes the run log database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	if path := cmd.String("path"); path != "" {
		cfg.Path = path
	}
	if cfg.Path == "" {
		return fmt.Errorf("%w: set database.path, VIBECAST_DB_PATH or --path", shared.ErrMissingConfig)
	}

	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", cfg.Path)
	return r.writePlain("✓ Run log ready at %s\n", cfg.Path)
}
