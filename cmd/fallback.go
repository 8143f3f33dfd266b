package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spotunisia/internal/fallback"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/urfave/cli/v3"
)

type resolveReport struct {
	Track      models.Track        `json:"track"`
	Query      string              `json:"query"`
	Resolution fallback.Resolution `json:"resolution"`
}

type downloadRow struct {
	ID        string    `json:"id"`
	TrackID   string    `json:"track_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Path      string    `json:"path"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

// Resolve looks up external audio for a track.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	track, err := r.trackArg(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Info("resolving track", "id", track.ID, "query", fallback.Query(track))
	res := r.resolver.Resolve(ctx, track)
	report := resolveReport{Track: track, Query: fallback.Query(track), Resolution: res}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlain("%s • %s\n", track.Title, track.Artist.Name)
	if track.Playable() {
		r.writePlain("Preview: %s\n", track.PreviewURL)
	}
	r.writePlain("%s\n", res.Notice)
	if res.URL != "" {
		r.writePlain("%s: %s\n", res.Kind, res.URL)
	}
	if res.Kind == fallback.KindNone {
		return &fallback.Error{Resolution: res}
	}
	return nil
}

// Download saves a track's audio into --dir.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	track, err := r.trackArg(ctx, cmd)
	if err != nil {
		return err
	}

	dir := cmd.String("dir")
	if dir == "" {
		dir = r.config.Player.DownloadDir
	}

	path, res, err := r.downloader().Download(ctx, track, dir)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	if path == "" {
		return r.writePlain("%s\n", res.Notice)
	}
	return r.writePlain("✓ Saved %s\n", path)
}

// Downloads lists recorded downloads, newest first.
func (r *Runner) Downloads(ctx context.Context, cmd *cli.Command) error {
	if err := r.connect(); err != nil {
		return err
	}
	if r.downloads == nil {
		return fmt.Errorf("%w: download history needs the database", shared.ErrServiceUnavailable)
	}

	criteria := map[string]any{}
	if id := cmd.String("track-id"); id != "" {
		criteria["track_id"] = id
	}
	downloads, err := r.downloads.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]downloadRow, 0, len(downloads))
		for _, d := range downloads {
			rows = append(rows, downloadRow{
				ID: d.ID(), TrackID: d.TrackID, Title: d.Title, Artist: d.Artist,
				Path: d.Path, Source: string(d.Source), CreatedAt: d.CreatedAt(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}
	if len(downloads) == 0 {
		return r.writePlain("No downloads yet.\n")
	}
	for _, d := range downloads {
		r.writePlain("%s  %s • %s [%s]\n    %s\n", d.CreatedAt().Format("2006-01-02 15:04"), d.Title, d.Artist, d.Source, d.Path)
	}
	return nil
}

// trackArg loads the track named by the track-id argument.
func (r *Runner) trackArg(ctx context.Context, cmd *cli.Command) (models.Track, error) {
	id := strings.TrimSpace(cmd.StringArg("track-id"))
	if id == "" {
		return models.Track{}, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	if err := r.authorize(ctx); err != nil {
		return models.Track{}, err
	}
	track, err := r.loader.Track(ctx, id)
	if err != nil {
		return models.Track{}, r.check(err)
	}
	return track, nil
}

// downloader records into the download history when the database is open.
func (r *Runner) downloader() *fallback.Downloader {
	if r.downloads == nil {
		return fallback.NewDownloader(r.resolver, nil)
	}
	return fallback.NewDownloader(r.resolver, r.downloads)
}
