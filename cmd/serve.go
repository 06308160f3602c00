package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibecast/internal/server"
	"github.com/desertthunder/vibecast/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve validates the configuration and runs the HTTP service until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if port := cmd.Int("port"); port != 0 {
		r.config.Server.Port = port
	}

	if err := r.config.Validate(); err != nil {
		return err
	}
	if r.auth == nil {
		return fmt.Errorf("%w: spotify client credentials", shared.ErrMissingCredentials)
	}

	engine, closeRuns, err := r.newEngine("")
	if err != nil {
		return err
	}
	defer closeRuns()

	router := server.NewRouter(server.Deps{
		Login:     r.auth,
		Playlists: r.catalog,
		Analyzer:  engine,
		UIOrigin:  r.config.Server.UIOrigin,
		Logger:    r.logger,
	})

	for _, pattern := range router.Patterns() {
		r.logger.Debug("route", "pattern", pattern)
	}

	addr := r.config.Server.Addr()
	r.logger.Info("starting server",
		"addr", addr,
		"strategy", r.config.Analysis.Strategy,
		"run_log", r.config.Database.Path != "",
	)

	return server.New(addr, router, r.logger).Run(ctx)
}
