// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/soundmatch/internal/formatter"
	"github.com/desertthunder/soundmatch/internal/services"
	"github.com/desertthunder/soundmatch/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultUser = "local"

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (" + formatNames() + ")",
			Value:   string(formatter.Styled),
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output JSON (same as --format json)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the rendered output to a file",
		},
		&cli.BoolFlag{
			Name:  "save",
			Usage: "Save the rendered output under a default file name",
		},
	}
}

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "User whose history is read or written",
		Value:   defaultUser,
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles database and config initialization
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and the history database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the history database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
		},
	}
}

// searchCommand fans a query out to every platform
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     `Search all platforms, e.g. search 'song:"Hello" artist:"Adele"'`,
		ArgsUsage: "<query>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "platform",
				Aliases: []string{"p"},
				Usage:   "Restrict the search to one platform",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print per-platform progress",
			},
		}, outputFlags()...),
		Action: r.Search,
	}
}

// identifyCommand resolves a title/artist or an audio file to a single track
func identifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "identify",
		Aliases: []string{"id"},
		Usage:   "Identify a song by title and artist, or from an audio file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Audio sample (" + strings.Join(services.AudioExtensions, ", ") + ")",
			},
			&cli.StringFlag{
				Name:    "title",
				Aliases: []string{"t"},
				Usage:   "Song title",
			},
			&cli.StringFlag{
				Name:    "artist",
				Aliases: []string{"a"},
				Usage:   "Artist name",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			userFlag(),
		},
		Action: r.Identify,
	}
}

// recommendCommand ranks tracks from a user's history
func recommendCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "recommend",
		Aliases: []string{"rec"},
		Usage:   "Recommend tracks based on listening history",
		Flags: append([]cli.Flag{
			userFlag(),
			&cli.StringFlag{
				Name:    "mood",
				Aliases: []string{"m"},
				Usage:   "Mood (" + strings.Join(tasks.Moods(), ", ") + ")",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print per-strategy progress",
			},
		}, outputFlags()...),
		Action: r.Recommend,
	}
}

// historyCommand manages a user's listening history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Listening history operations",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Record a song in the history",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Artist name"},
					&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Genre"},
					&cli.StringFlag{Name: "url", Usage: "Source link"},
				},
				Action: r.HistoryAdd,
			},
			{
				Name:  "list",
				Usage: "List recent history, newest first",
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{Name: "artist", Aliases: []string{"a"}, Usage: "Only records by this artist"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Maximum number of records", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "csv", Usage: "Output CSV"},
				},
				Action: r.HistoryList,
			},
			{
				Name:   "clear",
				Usage:  "Delete a user's history",
				Flags:  []cli.Flag{userFlag()},
				Action: r.HistoryClear,
			},
		},
	}
}

// statsCommand summarizes a user's full history
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show listening stats",
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Stats,
	}
}

// analyzeCommand prints the signal set recommendations are seeded from
func analyzeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Show the top artists and genres recommendations are built from",
		Flags: []cli.Flag{
			userFlag(),
			&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
		},
		Action: r.Analyze,
	}
}

// serveCommand runs the HTTP API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to [server] host:port)",
			},
		},
		Action: r.Serve,
	}
}
