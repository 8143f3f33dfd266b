// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

type followers struct {
	Total int `json:"total"`
}

// ExternalURLs holds links into the Spotify web player.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID           string         `json:"id"`
	DisplayName  string         `json:"display_name"`
	Email        string         `json:"email"`
	Country      string         `json:"country"`
	Product      string         `json:"product"` // premium, free, etc.
	Followers    followers      `json:"followers"`
	Images       []SpotifyImage `json:"images"`
	ExternalURLs ExternalURLs   `json:"external_urls"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

// SpotifyTrack represents a Spotify track. PreviewURL is empty when the API returns null.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        *SpotifyAlbum   `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	PreviewURL   string          `json:"preview_url"`
	Explicit     bool            `json:"explicit"`
	Popularity   int             `json:"popularity"`
	URI          string          `json:"uri"`
	ExternalURLs ExternalURLs    `json:"external_urls"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Genres       []string       `json:"genres"`
	Images       []SpotifyImage `json:"images"`
	URI          string         `json:"uri"`
	ExternalURLs ExternalURLs   `json:"external_urls"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	ReleaseDate  string          `json:"release_date"`
	TotalTracks  int             `json:"total_tracks"`
	Images       []SpotifyImage  `json:"images"`
	URI          string          `json:"uri"`
	ExternalURLs ExternalURLs    `json:"external_urls"`
}

// Owner is a playlist owner.
type Owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type trackTotal struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Owner        Owner          `json:"owner"`
	Public       bool           `json:"public"`
	Tracks       trackTotal     `json:"tracks"`
	Images       []SpotifyImage `json:"images"`
	URI          string         `json:"uri"`
	ExternalURLs ExternalURLs   `json:"external_urls"`
}

// SpotifySavedTrack wraps a liked song. Track can be null for removed items.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPlaylistTrack is an entry in a playlist's track list.
type SpotifyPlaylistTrack struct {
	AddedAt string        `json:"added_at"`
	IsLocal bool          `json:"is_local"`
	Track   *SpotifyTrack `json:"track"`
}

// Page is one offset page of a paginated listing.
type Page[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Total    int     `json:"total"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// HasNext reports whether the service advertised another page.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// SpotifySearchResults is the /search response for track, artist and album types.
type SpotifySearchResults struct {
	Tracks  Page[SpotifyTrack]  `json:"tracks"`
	Artists Page[SpotifyArtist] `json:"artists"`
	Albums  Page[SpotifyAlbum]  `json:"albums"`
}

// SpotifyFeaturedPlaylists is the /browse/featured-playlists response.
type SpotifyFeaturedPlaylists struct {
	Message   string                      `json:"message"`
	Playlists Page[SpotifySimplePlaylist] `json:"playlists"`
}

// SpotifyNewReleases is the /browse/new-releases response.
type SpotifyNewReleases struct {
	Albums Page[SpotifyAlbum] `json:"albums"`
}

// SpotifyRecommendations is the /recommendations response.
type SpotifyRecommendations struct {
	Tracks []SpotifyTrack `json:"tracks"`
}
