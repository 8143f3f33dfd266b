// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/spotunisia/internal/formatter"
	"github.com/desertthunder/spotunisia/internal/tasks"
	"github.com/urfave/cli/v3"
)

// outputFlags are shared by every command that can print JSON.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
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
				Name:   "rollback",
				Usage:  "Revert the most recent database migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// loginCommand runs the implicit-grant login.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to Spotify through the browser",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "redirect-url",
				Usage: "Redirect URL copied from the browser, instead of starting the local listener",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser redirect",
				Value: defaultLoginTimeout,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Replace a session that is still valid",
			},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored session",
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show whether a session is stored and when it expires",
		Flags:  outputFlags(),
		Action: r.Status,
	}
}

func homeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "home",
		Usage:  "Show top tracks, recommendations, new releases and featured playlists",
		Flags:  outputFlags(),
		Action: r.Home,
	}
}

func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search songs, albums and artists",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "query",
			},
		},
		Flags:  outputFlags(),
		Action: r.Search,
	}
}

func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "library",
		Usage:  "List your playlists and top artists",
		Flags:  outputFlags(),
		Action: r.Library,
	}
}

func likedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "liked",
		Usage: "List your liked songs",
		Flags: append(outputFlags(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of songs, 0 for all",
				Value: tasks.LikedLimit,
			},
		),
		Action: r.Liked,
	}
}

func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlist",
		Usage: "List the tracks of a playlist",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Title shown above the tracks",
			},
		),
		Action: r.Playlist,
	}
}

func albumCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "album",
		Usage: "List the tracks of an album",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Album ID",
				Required: true,
			},
		),
		Action: r.Album,
	}
}

func resolveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Find external audio for a track without a preview",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "track-id",
			},
		},
		Flags:  outputFlags(),
		Action: r.Resolve,
	}
}

func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Save a track's audio to disk",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "track-id",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"o"},
				Usage:   "Download directory (default: player.download_dir)",
			},
		},
		Action: r.Download,
	}
}

func downloadsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "downloads",
		Usage: "List previously downloaded tracks",
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:  "track-id",
				Usage: "Only show downloads of this track",
			},
		),
		Action: r.Downloads,
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export playlists to files",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "id",
				Usage: "Playlist ID to export, repeatable (default: every playlist in your library)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown, txt",
				Value:   formatter.Formats[0],
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent file writers",
				Value: 5,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Catalog requests per second",
				Value: 5,
			},
		},
		Action: r.Export,
	}
}

// playCommand returns the top-level TUI command.
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "play",
		Aliases: []string{"tui", "ui"},
		Usage:   "Launch the interactive player",
		Action:  r.Play,
	}
}
