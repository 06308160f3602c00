// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/vibecast/internal/repositories"
	"github.com/urfave/cli/v3"
)

func tokenFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Spotify access token (see `vibecast login`)",
		Sources: cli.EnvVars("VIBECAST_TOKEN"),
	}
}

func outputFlags(pretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: pretty,
		},
	}
}

// serveCommand runs the HTTP service
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the login and playlist analysis HTTP service",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// analyzeCommand describes the mood of one playlist
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "analyze",
		Aliases: []string{"vibe"},
		Usage:   "Analyze the mood of a playlist",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "playlist"},
		},
		Flags: append([]cli.Flag{
			tokenFlag(),
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Aggregation strategy: numeric or generative (overrides config)",
			},
			&cli.BoolFlag{
				Name:  "markdown",
				Usage: "Output Markdown",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Output unstyled text",
			},
		}, outputFlags(true)...),
		Action: r.Analyze,
	}
}

// browseCommand launches the interactive TUI
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Pick playlists interactively and view their mood",
		Flags: []cli.Flag{
			tokenFlag(),
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Aggregation strategy: numeric or generative (overrides config)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Write logs to this file while the TUI is running",
			},
		},
		Action: r.Browse,
	}
}

// playlistsCommand lists the token owner's playlists
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "playlists",
		Usage:  "List your Spotify playlists",
		Flags:  append([]cli.Flag{tokenFlag()}, outputFlags(false)...),
		Action: r.Playlists,
	}
}

// loginCommand runs the authorization flow from the terminal
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with Spotify using OAuth2 and print the tokens",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output tokens as JSON",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the login URL instead of opening a browser",
			},
		},
		Action: r.Login,
	}
}

// historyCommand reads the run log
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent analyses from the run log",
		Flags: append([]cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   repositories.DefaultListLimit,
			},
			&cli.StringFlag{
				Name:  "playlist",
				Usage: "Only show runs for this playlist ID",
			},
			&cli.DurationFlag{
				Name:  "prune",
				Usage: "Delete runs older than this age (e.g. 720h) before listing",
			},
		}, outputFlags(false)...),
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path of the config file to create (defaults to --config)",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the run log database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Database path (overrides config)",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
