// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize the sync history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "cookie",
				Usage: "Configure session cookie from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupCookie,
			},
		},
	}
}

// initCommand creates a repository from a remote collection.
func initCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a repository tracking a remote collection and run the first sync",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "collection",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Repository name (default: collection title)",
			},
			&cli.IntFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Quality tier (120, 116, 112, 80, 74, 64, 32, 16)",
				Value:   80,
			},
			&cli.BoolFlag{
				Name:    "audio",
				Aliases: []string{"a"},
				Usage:   "Keep audio only",
			},
		},
		Action: r.Init,
	}
}

// pullCommand syncs a repository against its remote collection.
func pullCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "pull",
		Usage: "Sync a repository against its remote collection",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "repo",
			},
		},
		Action: r.Pull,
	}
}

// listCommand prints all known repositories.
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List repositories",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.List,
	}
}

// updateCommand changes repository settings.
func updateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "Change repository quality or download mode",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "repo",
			},
		},
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "New quality tier",
			},
			&cli.BoolFlag{
				Name:  "audio-only",
				Usage: "Switch to audio-only mode",
			},
			&cli.BoolFlag{
				Name:  "video",
				Usage: "Switch to video mode",
			},
			&cli.BoolFlag{
				Name:  "redownload",
				Usage: "Confirm purging and re-downloading all items on a mode change",
			},
		},
		Action: r.Update,
	}
}

// exportCommand writes the item listing in a portable format.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the repository item listing",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "repo",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (csv, markdown, txt)",
				Value:   "csv",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output base path (default: repository name)",
			},
		},
		Action: r.Export,
	}
}

// historyCommand shows recorded sync runs.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent sync history",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "repo",
				Usage: "Filter by repository name",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of records to show",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// tuiCommand returns the top-level TUI command for interactive repository syncing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for repository syncing",
		Action:  r.TUI,
	}
}
