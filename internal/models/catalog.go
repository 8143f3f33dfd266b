package models

import "slices"

// Artist is a display-ready performer.
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

// Album is a display-ready release.
type Album struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Year     int    `json:"year,omitempty"`
	CoverURL string `json:"cover_url"`
}

// Track is the canonical playable item every view and the playback controller work with.
//
// PreviewURL is empty when the catalog offers no preview; such items go through the fallback resolver.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      Artist `json:"artist"`
	Album       Album  `json:"album"`
	Duration    string `json:"duration"`
	CoverURL    string `json:"cover_url"`
	PreviewURL  string `json:"preview_url,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// Playable reports whether the catalog supplied a preview URL.
func (t Track) Playable() bool {
	return t.PreviewURL != ""
}

// Playlist is a display-ready user playlist.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner"`
	TrackCount  int    `json:"track_count"`
	CoverURL    string `json:"cover_url"`
	Public      bool   `json:"public"`
}

// User is the authenticated account's profile.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// ContainerKind names the view a [Container] was built from.
type ContainerKind string

const (
	KindAlbum           ContainerKind = "album"
	KindLiked           ContainerKind = "liked"
	KindSearch          ContainerKind = "search"
	KindPlaylist        ContainerKind = "playlist"
	KindTop             ContainerKind = "top"
	KindRecommendations ContainerKind = "recommendations"
)

// Container is an identified, ordered collection of tracks. Membership is decided by track ID.
type Container struct {
	ID    string        `json:"id"`
	Kind  ContainerKind `json:"kind"`
	Title string        `json:"title"`
	Items []Track       `json:"items"`
}

// NewContainer builds a container whose ID combines kind and key.
func NewContainer(kind ContainerKind, key, title string, items []Track) *Container {
	return &Container{ID: string(kind) + ":" + key, Kind: kind, Title: title, Items: items}
}

// IndexOf returns the position of the track with id, or -1.
func (c *Container) IndexOf(id string) int {
	if c == nil {
		return -1
	}
	return slices.IndexFunc(c.Items, func(t Track) bool { return t.ID == id })
}

// Contains reports whether a track with id is a member.
func (c *Container) Contains(id string) bool {
	return c.IndexOf(id) >= 0
}

// Len returns the number of items; a nil container is empty.
func (c *Container) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// PlaylistExport is a playlist together with its tracks, used for file exports.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// ExportFromContainer wraps a container as an export with playlist metadata built from it.
func ExportFromContainer(c *Container) *PlaylistExport {
	if c == nil {
		return &PlaylistExport{}
	}
	return &PlaylistExport{
		Playlist: Playlist{ID: c.ID, Name: c.Title, TrackCount: len(c.Items)},
		Tracks:   c.Items,
	}
}
