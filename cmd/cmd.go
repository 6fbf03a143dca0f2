package main

import (
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Authorize with Spotify and export every playlist to JSON",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory for playlist files (overrides export.output_dir)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent playlist fetches (overrides export.workers)",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorize URL instead of opening a browser",
			},
			&cli.BoolFlag{
				Name:  "keep-serving",
				Usage: "Keep the callback listener running after the export finishes",
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not record the run in the history database",
			},
		},
		Action: r.Export,
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Spotify authorization helpers",
		Commands: []*cli.Command{
			{
				Name:   "url",
				Usage:  "Print the authorize URL without starting the listener",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthURL,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded export runs",
		Commands: []*cli.Command{
			{
				Name:  "runs",
				Usage: "List export runs, newest first",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.HistoryRuns,
			},
			{
				Name:  "show",
				Usage: "Show one run and the outcome of each playlist",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name:      "run-id",
						UsageText: "ID of the export run",
					},
				},
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and history database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write the example configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the configuration file",
						Value: "config.toml",
					},
					&cli.StringFlag{
						Name:  "client-id",
						Usage: "Spotify client ID to write into the new config",
					},
					&cli.StringFlag{
						Name:  "client-secret",
						Usage: "Spotify client secret to write into the new config",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}
