// Spotify Web API implementation of [Catalog]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL = "https://accounts.spotify.com/authorize"
	spotifyBaseURL = "https://api.spotify.com/v1"

	// Pinned to the Spotify listing caps.
	maxPageLimit     = 50
	maxPlaylistLimit = 100
)

// Scopes requested at login.
var Scopes = []string{
	"user-top-read",
	"user-read-private",
	"user-read-email",
	"user-library-read",
	"user-library-modify",
	"user-read-playback-state",
	"user-modify-playback-state",
	"user-read-currently-playing",
	"playlist-read-private",
	"playlist-read-collaborative",
	"streaming",
}

// SpotifyOptions configures a [SpotifyService]. Empty URLs fall back to the public endpoints.
type SpotifyOptions struct {
	ClientID    string
	RedirectURI string
	AuthURL     string
	BaseURL     string
	Country     string
	HTTPClient  *http.Client
	Logger      *log.Logger
}

// SpotifyService implements [Catalog] against the Spotify Web API.
type SpotifyService struct {
	config     *oauth2.Config
	baseURL    string
	country    string
	base       *http.Client
	httpClient *http.Client
	token      *oauth2.Token
	logger     *log.Logger
}

// NewSpotifyService creates a catalog client. The client ID is required.
func NewSpotifyService(opts SpotifyOptions) (*SpotifyService, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}
	if opts.RedirectURI == "" {
		opts.RedirectURI = "http://127.0.0.1:8888/callback"
	}
	if opts.AuthURL == "" {
		opts.AuthURL = spotifyAuthURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = spotifyBaseURL
	}
	if opts.Country == "" {
		opts.Country = "US"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		config: &oauth2.Config{
			ClientID:    opts.ClientID,
			RedirectURL: opts.RedirectURI,
			Scopes:      Scopes,
			Endpoint:    oauth2.Endpoint{AuthURL: opts.AuthURL},
		},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		country: opts.Country,
		base:    opts.HTTPClient,
		logger:  opts.Logger,
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// ImplicitGrantURL returns the authorize URL that redirects back with the token in the fragment.
func (s *SpotifyService) ImplicitGrantURL(state string) string {
	q := url.Values{}
	q.Set("client_id", s.config.ClientID)
	q.Set("redirect_uri", s.config.RedirectURL)
	q.Set("response_type", "token")
	if state != "" {
		q.Set("state", state)
	}
	// scopes are joined with a literal %20, not the + that url.Values would emit
	return s.config.Endpoint.AuthURL + "?" + q.Encode() + "&scope=" + strings.Join(s.config.Scopes, "%20")
}

// RedirectURI returns the registered redirect target.
func (s *SpotifyService) RedirectURI() string {
	return s.config.RedirectURL
}

// Authenticate installs accessToken as the bearer credential for subsequent requests.
func (s *SpotifyService) Authenticate(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return fmt.Errorf("%w: empty access token", shared.ErrAuthFailed)
	}
	s.token = &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.base)
	s.httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(s.token))
	return nil
}

// Authenticated reports whether a token has been installed.
func (s *SpotifyService) Authenticated() bool {
	return s.token != nil
}

// get performs an authenticated GET against endpoint and decodes the JSON body into result.
func (s *SpotifyService) get(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	s.logger.Debug("catalog request", "endpoint", endpoint)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil && json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Error.Message
		}
		s.logger.Warn("catalog request failed", "endpoint", endpoint, "status", resp.StatusCode)
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func clampLimit(limit, def, ceiling int) int {
	if limit <= 0 {
		return def
	}
	return min(limit, ceiling)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.get(ctx, "/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*Page[SpotifySimplePlaylist], error) {
	limit = clampLimit(limit, 20, maxPageLimit)
	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var page Page[SpotifySimplePlaylist]
	if err := s.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SavedTracks retrieves one page of the user's liked songs.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*Page[SpotifySavedTrack], error) {
	limit = clampLimit(limit, 20, maxPageLimit)
	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var page Page[SpotifySavedTrack]
	if err := s.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// AllSavedTracks walks every page of liked songs.
func (s *SpotifyService) AllSavedTracks(ctx context.Context) ([]SpotifySavedTrack, error) {
	return Paginate(ctx, maxPageLimit, s.SavedTracks)
}

// TopArtists retrieves the user's short-term top artists.
func (s *SpotifyService) TopArtists(ctx context.Context, limit int) (*Page[SpotifyArtist], error) {
	limit = clampLimit(limit, 10, maxPageLimit)
	endpoint := fmt.Sprintf("/me/top/artists?limit=%d&time_range=short_term", limit)

	var page Page[SpotifyArtist]
	if err := s.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// TopTracks retrieves the user's short-term top tracks.
func (s *SpotifyService) TopTracks(ctx context.Context, limit int) (*Page[SpotifyTrack], error) {
	limit = clampLimit(limit, 10, maxPageLimit)
	endpoint := fmt.Sprintf("/me/top/tracks?limit=%d&time_range=short_term", limit)

	var page Page[SpotifyTrack]
	if err := s.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Search looks up tracks, artists and albums matching query.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) (*SpotifySearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty search query", shared.ErrInvalidInput)
	}
	limit = clampLimit(limit, 20, maxPageLimit)

	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track,artist,album")
	q.Set("limit", strconv.Itoa(limit))

	var results SpotifySearchResults
	if err := s.get(ctx, "/search?"+q.Encode(), &results); err != nil {
		return nil, err
	}
	return &results, nil
}

// Track retrieves a single track by ID.
func (s *SpotifyService) Track(ctx context.Context, id string) (*SpotifyTrack, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}

	var track SpotifyTrack
	if err := s.get(ctx, "/tracks/"+url.PathEscape(id), &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// AlbumTracks retrieves every track of album. The simplified tracks carry no album, so album is attached to each.
func (s *SpotifyService) AlbumTracks(ctx context.Context, album SpotifyAlbum) ([]SpotifyTrack, error) {
	if album.ID == "" {
		return nil, fmt.Errorf("%w: album id", shared.ErrMissingArgument)
	}

	tracks, err := Paginate(ctx, maxPageLimit, func(ctx context.Context, limit, offset int) (*Page[SpotifyTrack], error) {
		var page Page[SpotifyTrack]
		endpoint := fmt.Sprintf("/albums/%s/tracks?limit=%d&offset=%d", url.PathEscape(album.ID), limit, offset)
		if err := s.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
	if err != nil {
		return nil, err
	}

	for i := range tracks {
		a := album
		tracks[i].Album = &a
	}
	return tracks, nil
}

// FeaturedPlaylists retrieves editorially featured playlists for the configured country.
func (s *SpotifyService) FeaturedPlaylists(ctx context.Context, limit int) (*SpotifyFeaturedPlaylists, error) {
	limit = clampLimit(limit, 6, maxPageLimit)
	endpoint := fmt.Sprintf("/browse/featured-playlists?country=%s&limit=%d", url.QueryEscape(s.country), limit)

	var featured SpotifyFeaturedPlaylists
	if err := s.get(ctx, endpoint, &featured); err != nil {
		return nil, err
	}
	return &featured, nil
}

// NewReleases retrieves recently released albums.
func (s *SpotifyService) NewReleases(ctx context.Context, limit int) (*SpotifyNewReleases, error) {
	limit = clampLimit(limit, 10, maxPageLimit)

	var releases SpotifyNewReleases
	if err := s.get(ctx, fmt.Sprintf("/browse/new-releases?limit=%d", limit), &releases); err != nil {
		return nil, err
	}
	return &releases, nil
}

// Recommendations retrieves tracks seeded by up to five track IDs.
func (s *SpotifyService) Recommendations(ctx context.Context, seedTrackIDs []string, limit int) (*SpotifyRecommendations, error) {
	if len(seedTrackIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one seed track", shared.ErrMissingArgument)
	}
	if len(seedTrackIDs) > 5 {
		seedTrackIDs = seedTrackIDs[:5]
	}
	limit = clampLimit(limit, 20, maxPlaylistLimit)
	endpoint := fmt.Sprintf("/recommendations?seed_tracks=%s&limit=%d", strings.Join(seedTrackIDs, ","), limit)

	var recs SpotifyRecommendations
	if err := s.get(ctx, endpoint, &recs); err != nil {
		return nil, err
	}
	return &recs, nil
}

// PlaylistTracks retrieves every entry of a playlist, one page of pageSize at a time.
func (s *SpotifyService) PlaylistTracks(ctx context.Context, playlistID string, pageSize int) ([]SpotifyPlaylistTrack, error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	pageSize = clampLimit(pageSize, maxPlaylistLimit, maxPlaylistLimit)

	return Paginate(ctx, pageSize, func(ctx context.Context, limit, offset int) (*Page[SpotifyPlaylistTrack], error) {
		var page Page[SpotifyPlaylistTrack]
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), limit, offset)
		if err := s.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		return &page, nil
	})
}

var _ Catalog = (*SpotifyService)(nil)
