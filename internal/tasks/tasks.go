package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/normalize"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/desertthunder/spotunisia/internal/session"
	"github.com/desertthunder/spotunisia/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Request sizes used by the views.
const (
	TopTracksLimit       = 20
	NewReleasesLimit     = 10
	FeaturedLimit        = 6
	RecommendationSeeds  = 5
	RecommendationsLimit = 20
	LikedLimit           = 50
	PlaylistsLimit       = 50
	TopArtistsLimit      = 20
	SearchLimit          = 20
	PlaylistPageSize     = 100
)

// AlbumCard is an album shown on a view, kept with its catalog form so its tracks can be loaded.
type AlbumCard struct {
	Album  models.Album          `json:"album"`
	Artist models.Artist         `json:"artist"`
	Raw    services.SpotifyAlbum `json:"-"`
}

func albumCards(raw []services.SpotifyAlbum) []AlbumCard {
	cards := make([]AlbumCard, 0, len(raw))
	for i := range raw {
		cards = append(cards, AlbumCard{
			Album:  normalize.Album(&raw[i]),
			Artist: normalize.AlbumArtist(raw[i]),
			Raw:    raw[i],
		})
	}
	return cards
}

// HomeView is the landing view.
//
// When the account has no top tracks, Top and Recommended both hold new releases presented as
// tracks and Placeholder is set.
type HomeView struct {
	User              models.User       `json:"user"`
	Top               *models.Container `json:"top"`
	Recommended       *models.Container `json:"recommended"`
	FeaturedAlbums    []AlbumCard       `json:"featured_albums"`
	FeaturedPlaylists []models.Playlist `json:"featured_playlists"`
	Placeholder       bool              `json:"placeholder"`
}

// Empty reports the "no data" state.
func (h *HomeView) Empty() bool {
	return h == nil || (h.Top.Len() == 0 && h.Recommended.Len() == 0 && len(h.FeaturedAlbums) == 0)
}

// Known returns the items used as the queue for selections outside a container.
func (h *HomeView) Known() []models.Track {
	if h == nil || h.Top == nil {
		return nil
	}
	return h.Top.Items
}

// LibraryView holds the account's playlists and top artists.
type LibraryView struct {
	Playlists []models.Playlist `json:"playlists"`
	Artists   []models.Artist   `json:"artists"`
}

// SearchView holds search results. A blank term yields an empty view.
type SearchView struct {
	Term    string            `json:"term"`
	Tracks  *models.Container `json:"tracks"`
	Artists []models.Artist   `json:"artists"`
	Albums  []AlbumCard       `json:"albums"`
}

// Empty reports whether the search found nothing.
func (s *SearchView) Empty() bool {
	return s == nil || (s.Tracks.Len() == 0 && len(s.Artists) == 0 && len(s.Albums) == 0)
}

// Loader builds views from the catalog.
type Loader struct {
	catalog services.Catalog
	guard   *session.Guard
	logger  *log.Logger
}

// NewLoader creates a loader. guard may be nil when the catalog is already authorized.
func NewLoader(catalog services.Catalog, guard *session.Guard, logger *log.Logger) *Loader {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Loader{catalog: catalog, guard: guard, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// authorize fails fast when there is no usable session.
func (l *Loader) authorize(ctx context.Context) error {
	if l.catalog == nil {
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if l.guard == nil {
		return nil
	}
	_, err := l.guard.Require(ctx)
	return err
}

// check maps a rejected token to [shared.ErrNotAuthenticated] and clears the session.
func (l *Loader) check(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrTokenExpired) {
		if l.guard != nil {
			if ierr := l.guard.Invalidate(ctx); ierr != nil {
				l.logger.Warn("failed to clear rejected session", "error", ierr)
			}
		}
		return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	return err
}

// Home loads the profile, top tracks and new releases (required), then featured playlists and
// recommendations seeded from the top tracks (optional, logged and left empty on failure).
func (l *Loader) Home(ctx context.Context, progress chan<- ProgressUpdate) (*HomeView, error) {
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}

	const total = 5
	sendProgress(progress, stepUpdate(FetchProfile, 1, total))
	user, err := l.catalog.UserProfile(ctx)
	if err != nil {
		return nil, l.check(ctx, fmt.Errorf("failed to fetch profile: %w", err))
	}

	sendProgress(progress, stepUpdate(FetchTopTracks, 2, total))
	top, err := l.catalog.TopTracks(ctx, TopTracksLimit)
	if err != nil {
		return nil, l.check(ctx, fmt.Errorf("failed to fetch top tracks: %w", err))
	}

	sendProgress(progress, stepUpdate(FetchNewReleases, 3, total))
	releases, err := l.catalog.NewReleases(ctx, NewReleasesLimit)
	if err != nil {
		return nil, l.check(ctx, fmt.Errorf("failed to fetch new releases: %w", err))
	}

	view := &HomeView{
		User:           normalize.User(user),
		FeaturedAlbums: albumCards(releases.Albums.Items),
	}

	sendProgress(progress, stepUpdate(FetchFeatured, 4, total))
	if featured, err := l.catalog.FeaturedPlaylists(ctx, FeaturedLimit); err != nil {
		l.logger.Warn("failed to fetch featured playlists", "error", err)
	} else {
		view.FeaturedPlaylists = normalize.Playlists(featured.Playlists.Items)
	}

	sendProgress(progress, stepUpdate(FetchRecommendations, 5, total))
	if len(top.Items) == 0 {
		albums := releases.Albums.Items
		if len(albums) > NewReleasesLimit {
			albums = albums[:NewReleasesLimit]
		}
		items := normalize.AlbumsAsTracks(albums)
		view.Top = models.NewContainer(models.KindTop, "me", "Your Top Tracks", items)
		view.Recommended = models.NewContainer(models.KindRecommendations, "me", "Recommended for You", items)
		view.Placeholder = true
		return view, nil
	}

	view.Top = models.NewContainer(models.KindTop, "me", "Your Top Tracks", normalize.Tracks(top.Items))

	seeds := make([]string, 0, RecommendationSeeds)
	for _, t := range top.Items[:min(len(top.Items), RecommendationSeeds)] {
		seeds = append(seeds, t.ID)
	}
	var recommended []models.Track
	if recs, err := l.catalog.Recommendations(ctx, seeds, RecommendationsLimit); err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			return nil, l.check(ctx, err)
		}
		l.logger.Warn("failed to fetch recommendations", "error", err)
	} else {
		recommended = normalize.Tracks(recs.Tracks)
	}
	view.Recommended = models.NewContainer(models.KindRecommendations, "me", "Recommended for You", recommended)

	return view, nil
}

// Liked loads saved tracks. A non-positive limit walks every page.
func (l *Loader) Liked(ctx context.Context, limit int) (*models.Container, error) {
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}

	var raw []services.SpotifySavedTrack
	if limit > 0 {
		page, err := l.catalog.SavedTracks(ctx, limit, 0)
		if err != nil {
			return nil, l.check(ctx, fmt.Errorf("failed to fetch liked songs: %w", err))
		}
		raw = page.Items
	} else {
		all, err := services.Paginate(ctx, LikedLimit, l.catalog.SavedTracks)
		if err != nil {
			return nil, l.check(ctx, fmt.Errorf("failed to fetch liked songs: %w", err))
		}
		raw = all
	}

	return models.NewContainer(models.KindLiked, "me", "Liked Songs", normalize.SavedTracks(raw)), nil
}

// Library loads playlists and top artists concurrently. Either failing fails the view.
func (l *Loader) Library(ctx context.Context, progress chan<- ProgressUpdate) (*LibraryView, error) {
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}

	var (
		playlists *services.Page[services.SpotifySimplePlaylist]
		artists   *services.Page[services.SpotifyArtist]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sendProgress(progress, stepUpdate(FetchPlaylists, 1, 2))
		var err error
		playlists, err = l.catalog.UserPlaylists(gctx, PlaylistsLimit, 0)
		if err != nil {
			return fmt.Errorf("failed to fetch playlists: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sendProgress(progress, stepUpdate(FetchArtists, 2, 2))
		var err error
		artists, err = l.catalog.TopArtists(gctx, TopArtistsLimit)
		if err != nil {
			return fmt.Errorf("failed to fetch top artists: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, l.check(ctx, err)
	}

	return &LibraryView{
		Playlists: normalize.Playlists(playlists.Items),
		Artists:   normalize.Artists(artists.Items),
	}, nil
}

// Search runs a catalog search. A blank term returns an empty view without a request.
func (l *Loader) Search(ctx context.Context, term string) (*SearchView, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return &SearchView{Tracks: models.NewContainer(models.KindSearch, "", "Search", nil)}, nil
	}
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}

	res, err := l.catalog.Search(ctx, term, SearchLimit)
	if err != nil {
		return nil, l.check(ctx, fmt.Errorf("search failed: %w", err))
	}

	return &SearchView{
		Term:    term,
		Tracks:  models.NewContainer(models.KindSearch, term, fmt.Sprintf("Results for %q", term), normalize.Tracks(res.Tracks.Items)),
		Artists: normalize.Artists(res.Artists.Items),
		Albums:  albumCards(res.Albums.Items),
	}, nil
}

// Playlist loads every track of a playlist. title labels the container; the id is used when blank.
func (l *Loader) Playlist(ctx context.Context, id, title string, progress chan<- ProgressUpdate) (*models.Container, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}
	if title == "" {
		title = id
	}

	sendProgress(progress, fetchPlaylistUpdate(title))
	raw, err := l.catalog.PlaylistTracks(ctx, id, PlaylistPageSize)
	if err != nil {
		return nil, l.check(ctx, fmt.Errorf("failed to fetch playlist %s: %w", id, err))
	}

	items := normalize.PlaylistTracks(raw)
	sendProgress(progress, foundPlaylistUpdate(title, len(items)))
	return models.NewContainer(models.KindPlaylist, id, title, items), nil
}

// Album loads the tracks of an album shown on a view.
func (l *Loader) Album(ctx context.Context, card AlbumCard) (*models.Container, error) {
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}

	raw, err := l.catalog.AlbumTracks(ctx, card.Raw)
	if err != nil {
		return nil, l.check(ctx, fmt.Errorf("failed to fetch album %s: %w", card.Album.ID, err))
	}
	return models.NewContainer(models.KindAlbum, card.Album.ID, card.Album.Title, normalize.Tracks(raw)), nil
}

// Track loads a single track by id.
func (l *Loader) Track(ctx context.Context, id string) (models.Track, error) {
	if strings.TrimSpace(id) == "" {
		return models.Track{}, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	if err := l.authorize(ctx); err != nil {
		return models.Track{}, err
	}

	raw, err := l.catalog.Track(ctx, id)
	if err != nil {
		return models.Track{}, l.check(ctx, fmt.Errorf("failed to fetch track %s: %w", id, err))
	}
	return normalize.Track(raw), nil
}
