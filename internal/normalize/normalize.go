// Package normalize maps raw catalog payloads onto the canonical models.
//
// Every function here is total: missing or null fields become documented defaults and
// nothing returns an error.
package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/google/uuid"
)

const (
	UnknownID     = "unknown"
	LocalIDPrefix = "local:"
	UnknownTrack  = "Unknown Track"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
	ZeroDuration  = "0:00"

	// PlaceholderDurationMS is the nominal runtime given to an album shown as a single item.
	PlaceholderDurationMS = 180000
)

// Duration formats ms as M:SS. Seconds are rounded to the nearest whole second and a
// rounded 60 carries into the minutes, so 59999 becomes "1:00".
func Duration(ms int) string {
	if ms <= 0 {
		return ZeroDuration
	}
	minutes := ms / 60000
	seconds := int(math.Round(float64(ms%60000) / 1000))
	if seconds == 60 {
		minutes++
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// ParseDuration reverses [Duration]. Unparseable input yields 0.
func ParseDuration(s string) int {
	m, sec, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	minutes, err1 := strconv.Atoi(m)
	seconds, err2 := strconv.Atoi(sec)
	if err1 != nil || err2 != nil || minutes < 0 || seconds < 0 {
		return 0
	}
	return (minutes*60 + seconds) * 1000
}

// Year reads the leading year of a release date ("2019", "2019-03", "2019-03-08"). Unknown is 0.
func Year(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

func firstImage(images []services.SpotifyImage) string {
	for _, img := range images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Artist maps a catalog artist, using its own images.
func Artist(raw services.SpotifyArtist) models.Artist {
	return models.Artist{
		ID:       orDefault(raw.ID, UnknownID),
		Name:     orDefault(raw.Name, UnknownArtist),
		ImageURL: firstImage(raw.Images),
	}
}

// Album maps a catalog album. A nil album yields the unknown album.
func Album(raw *services.SpotifyAlbum) models.Album {
	if raw == nil {
		return models.Album{ID: UnknownID, Title: UnknownAlbum}
	}
	return models.Album{
		ID:       orDefault(raw.ID, UnknownID),
		Title:    orDefault(raw.Name, UnknownAlbum),
		Year:     Year(raw.ReleaseDate),
		CoverURL: firstImage(raw.Images),
	}
}

// AlbumArtist returns the album's primary artist pictured with the album cover.
func AlbumArtist(raw services.SpotifyAlbum) models.Artist {
	artist := models.Artist{ID: UnknownID, Name: UnknownArtist}
	if len(raw.Artists) > 0 {
		artist = Artist(raw.Artists[0])
	}
	artist.ImageURL = firstImage(raw.Images)
	return artist
}

// Track maps a raw catalog track onto a [models.Track]. A nil track yields the unknown track.
//
// The artist is the first credited artist and is pictured with the album cover.
func Track(raw *services.SpotifyTrack) models.Track {
	if raw == nil {
		return models.Track{
			ID:       UnknownID,
			Title:    UnknownTrack,
			Artist:   models.Artist{ID: UnknownID, Name: UnknownArtist},
			Album:    models.Album{ID: UnknownID, Title: UnknownAlbum},
			Duration: ZeroDuration,
		}
	}

	album := Album(raw.Album)
	artist := models.Artist{ID: UnknownID, Name: UnknownArtist}
	if len(raw.Artists) > 0 {
		artist = Artist(raw.Artists[0])
	}
	artist.ImageURL = album.CoverURL

	return models.Track{
		ID:          trackID(raw),
		Title:       orDefault(raw.Name, UnknownTrack),
		Artist:      artist,
		Album:       album,
		Duration:    Duration(raw.DurationMS),
		CoverURL:    album.CoverURL,
		PreviewURL:  raw.PreviewURL,
		ExternalURL: raw.ExternalURLs.Spotify,
	}
}

// trackID is the catalog id, or a name-derived id for tracks the catalog left without one
// (local files in playlists) so two of them are never the same item.
func trackID(raw *services.SpotifyTrack) string {
	if raw.ID != "" {
		return raw.ID
	}
	if raw.Name == "" && raw.URI == "" {
		return UnknownID
	}
	names := make([]string, 0, len(raw.Artists))
	for _, a := range raw.Artists {
		names = append(names, a.Name)
	}
	album := ""
	if raw.Album != nil {
		album = raw.Album.Name
	}
	key := strings.Join([]string{raw.URI, raw.Name, strings.Join(names, ","), album, strconv.Itoa(raw.DurationMS)}, "\x00")
	return LocalIDPrefix + uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// SavedTrack unwraps a liked-song entry.
func SavedTrack(raw services.SpotifySavedTrack) models.Track {
	return Track(raw.Track)
}

// PlaylistTrack unwraps a playlist entry.
func PlaylistTrack(raw services.SpotifyPlaylistTrack) models.Track {
	return Track(raw.Track)
}

// AlbumAsTrack presents an album as one item with a nominal runtime and no preview.
func AlbumAsTrack(raw services.SpotifyAlbum) models.Track {
	album := raw
	return Track(&services.SpotifyTrack{
		ID:           raw.ID,
		Name:         raw.Name,
		Artists:      raw.Artists,
		Album:        &album,
		DurationMS:   PlaceholderDurationMS,
		ExternalURLs: raw.ExternalURLs,
	})
}

// Playlist maps a simplified playlist.
func Playlist(raw services.SpotifySimplePlaylist) models.Playlist {
	return models.Playlist{
		ID:          orDefault(raw.ID, UnknownID),
		Name:        orDefault(raw.Name, "Untitled Playlist"),
		Description: raw.Description,
		Owner:       raw.Owner.DisplayName,
		TrackCount:  raw.Tracks.Total,
		CoverURL:    firstImage(raw.Images),
		Public:      raw.Public,
	}
}

// User maps the profile of the authenticated account.
func User(raw *services.SpotifyUser) models.User {
	if raw == nil {
		return models.User{ID: UnknownID}
	}
	return models.User{
		ID:          raw.ID,
		DisplayName: orDefault(raw.DisplayName, raw.ID),
		Email:       raw.Email,
		Country:     raw.Country,
		Product:     raw.Product,
		ImageURL:    firstImage(raw.Images),
	}
}

// Tracks maps a slice of raw tracks in order.
func Tracks(raw []services.SpotifyTrack) []models.Track {
	out := make([]models.Track, 0, len(raw))
	for i := range raw {
		out = append(out, Track(&raw[i]))
	}
	return out
}

// SavedTracks maps liked-song entries in order.
func SavedTracks(raw []services.SpotifySavedTrack) []models.Track {
	out := make([]models.Track, 0, len(raw))
	for _, item := range raw {
		out = append(out, SavedTrack(item))
	}
	return out
}

// PlaylistTracks maps playlist entries in order.
func PlaylistTracks(raw []services.SpotifyPlaylistTrack) []models.Track {
	out := make([]models.Track, 0, len(raw))
	for _, item := range raw {
		out = append(out, PlaylistTrack(item))
	}
	return out
}

// AlbumsAsTracks maps albums to placeholder items in order.
func AlbumsAsTracks(raw []services.SpotifyAlbum) []models.Track {
	out := make([]models.Track, 0, len(raw))
	for _, album := range raw {
		out = append(out, AlbumAsTrack(album))
	}
	return out
}

// Albums maps albums in order.
func Albums(raw []services.SpotifyAlbum) []models.Album {
	out := make([]models.Album, 0, len(raw))
	for i := range raw {
		out = append(out, Album(&raw[i]))
	}
	return out
}

// Artists maps artists in order.
func Artists(raw []services.SpotifyArtist) []models.Artist {
	out := make([]models.Artist, 0, len(raw))
	for _, a := range raw {
		out = append(out, Artist(a))
	}
	return out
}

// Playlists maps simplified playlists in order.
func Playlists(raw []services.SpotifySimplePlaylist) []models.Playlist {
	out := make([]models.Playlist, 0, len(raw))
	for _, p := range raw {
		out = append(out, Playlist(p))
	}
	return out
}
