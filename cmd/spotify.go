package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/spotunisia/internal/formatter"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/desertthunder/spotunisia/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Home prints the landing view.
func (r *Runner) Home(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize(ctx); err != nil {
		return err
	}

	r.logger.Info("loading home")
	progress := make(chan tasks.ProgressUpdate, 8)
	done := r.logProgress(progress)
	home, err := r.loader.Home(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return r.check(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(home, cmd.Bool("pretty"))
	}

	if home.Empty() {
		return r.writePlain("No data available.\n")
	}

	name := home.User.DisplayName
	if name == "" {
		name = home.User.ID
	}
	r.writePlainHeader(fmt.Sprintf("Welcome, %s", name))
	if home.Placeholder {
		r.writePlain("No listening history yet, showing new releases.\n")
	}
	r.writeContainer(home.Top)
	if !home.Placeholder {
		r.writeContainer(home.Recommended)
	}
	r.writeAlbums("New Releases", home.FeaturedAlbums)
	r.writePlaylists("Featured Playlists", home.FeaturedPlaylists)
	return nil
}

// Search prints tracks, albums and artists matching the query argument.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if err := r.authorize(ctx); err != nil {
		return err
	}

	r.logger.Info("searching", "query", query)
	results, err := r.loader.Search(ctx, query)
	if err != nil {
		return r.check(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}
	if results.Empty() {
		return r.writePlain("No results for %q.\n", query)
	}

	r.writeContainer(results.Tracks)
	r.writeAlbums("Albums", results.Albums)
	r.writeArtists("Artists", results.Artists)
	return nil
}

// Library prints the account's playlists and top artists.
func (r *Runner) Library(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 4)
	done := r.logProgress(progress)
	library, err := r.loader.Library(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return r.check(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(library, cmd.Bool("pretty"))
	}

	r.writePlaylists("Your Playlists", library.Playlists)
	r.writeArtists("Your Top Artists", library.Artists)
	return nil
}

// Liked prints saved tracks.
func (r *Runner) Liked(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize(ctx); err != nil {
		return err
	}

	liked, err := r.loader.Liked(ctx, cmd.Int("limit"))
	if err != nil {
		return r.check(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(liked, cmd.Bool("pretty"))
	}
	r.writeContainer(liked)
	return nil
}

// Playlist prints every track of the playlist given by --id.
func (r *Runner) Playlist(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 4)
	done := r.logProgress(progress)
	playlist, err := r.loader.Playlist(ctx, cmd.String("id"), cmd.String("title"), progress)
	close(progress)
	<-done
	if err != nil {
		return r.check(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlist, cmd.Bool("pretty"))
	}
	r.writeContainer(playlist)
	return nil
}

// Album prints every track of the album given by --id.
func (r *Runner) Album(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize(ctx); err != nil {
		return err
	}

	id := cmd.String("id")
	card := tasks.AlbumCard{
		Album: models.Album{ID: id, Title: id},
		Raw:   services.SpotifyAlbum{ID: id},
	}
	album, err := r.loader.Album(ctx, card)
	if err != nil {
		return r.check(err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(album, cmd.Bool("pretty"))
	}
	r.writeContainer(album)
	return nil
}

// Export writes playlists to files in the chosen format.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format := strings.ToLower(cmd.String("format"))
	if !slices.Contains(formatter.Formats, format) {
		return fmt.Errorf("%w: format must be one of %s", shared.ErrInvalidArgument, strings.Join(formatter.Formats, ", "))
	}
	if err := r.authorize(ctx); err != nil {
		return err
	}

	var playlists []models.Playlist
	if ids := cmd.StringSlice("id"); len(ids) > 0 {
		for _, id := range ids {
			playlists = append(playlists, models.Playlist{ID: id, Name: id})
		}
	} else {
		library, err := r.loader.Library(ctx, nil)
		if err != nil {
			return r.check(err)
		}
		playlists = library.Playlists
	}
	if len(playlists) == 0 {
		return r.writePlain("No playlists to export.\n")
	}

	r.logger.Info("exporting playlists", "count", len(playlists), "format", format)
	progress := make(chan tasks.ProgressUpdate, len(playlists)*2)
	done := r.logProgress(progress)
	result, err := r.loader.Export(ctx, progress, playlists, tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		Fetcher:    r.api,
	})
	close(progress)
	<-done
	if err != nil {
		return r.check(err)
	}

	r.writePlainln("✓ Exported %d/%d playlists to %s", result.SuccessfulExports, result.TotalPlaylists, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.PlaylistName, res.Error)
		}
	}
	return nil
}

// logProgress logs updates until progress is closed; the returned channel closes after the last one.
func (r *Runner) logProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()
	return done
}

func (r *Runner) writeContainer(c *models.Container) {
	if c == nil {
		return
	}
	r.writePlainln("%s (%d)", c.Title, c.Len())
	for i, t := range c.Items {
		r.writeTrack(i+1, t)
	}
}

func (r *Runner) writeTrack(n int, t models.Track) {
	source := "preview"
	if !t.Playable() {
		source = "no preview"
	}
	r.writePlain("%3d. %s • %s • %s (%s) [%s] %s\n", n, t.Title, t.Artist.Name, t.Album.Title, t.Duration, source, t.ID)
}

func (r *Runner) writeAlbums(title string, cards []tasks.AlbumCard) {
	if len(cards) == 0 {
		return
	}
	r.writePlainln("%s (%d)", title, len(cards))
	for i, card := range cards {
		year := ""
		if card.Album.Year > 0 {
			year = fmt.Sprintf(" (%d)", card.Album.Year)
		}
		r.writePlain("%3d. %s • %s%s %s\n", i+1, card.Album.Title, card.Artist.Name, year, card.Album.ID)
	}
}

func (r *Runner) writePlaylists(title string, playlists []models.Playlist) {
	if len(playlists) == 0 {
		return
	}
	r.writePlainln("%s (%d)", title, len(playlists))
	for i, pl := range playlists {
		r.writePlain("%3d. %s • %d tracks • %s %s\n", i+1, pl.Name, pl.TrackCount, pl.Owner, pl.ID)
	}
}

func (r *Runner) writeArtists(title string, artists []models.Artist) {
	if len(artists) == 0 {
		return
	}
	r.writePlainln("%s (%d)", title, len(artists))
	for i, a := range artists {
		r.writePlain("%3d. %s %s\n", i+1, a.Name, a.ID)
	}
}
