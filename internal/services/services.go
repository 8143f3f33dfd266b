// package services defines the catalog gateway and web fetchers used by spotunisia
package services

import (
	"context"
)

// Catalog is the read surface of the music catalog used by views and commands.
type Catalog interface {
	UserProfile(ctx context.Context) (*SpotifyUser, error)
	UserPlaylists(ctx context.Context, limit, offset int) (*Page[SpotifySimplePlaylist], error)
	SavedTracks(ctx context.Context, limit, offset int) (*Page[SpotifySavedTrack], error)
	TopArtists(ctx context.Context, limit int) (*Page[SpotifyArtist], error)
	TopTracks(ctx context.Context, limit int) (*Page[SpotifyTrack], error)
	Search(ctx context.Context, query string, limit int) (*SpotifySearchResults, error)
	Track(ctx context.Context, id string) (*SpotifyTrack, error)
	AlbumTracks(ctx context.Context, album SpotifyAlbum) ([]SpotifyTrack, error)
	FeaturedPlaylists(ctx context.Context, limit int) (*SpotifyFeaturedPlaylists, error)
	NewReleases(ctx context.Context, limit int) (*SpotifyNewReleases, error)
	Recommendations(ctx context.Context, seedTrackIDs []string, limit int) (*SpotifyRecommendations, error)
	PlaylistTracks(ctx context.Context, playlistID string, pageSize int) ([]SpotifyPlaylistTrack, error)
}
