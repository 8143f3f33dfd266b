package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/tasks"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
	_ list.Item = albumItem{}
	_ list.Item = artistItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string       { return i.playlist.Name }
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("Playlist • %d tracks", i.playlist.TrackCount)
	if i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] with the container it was listed in.
type trackItem struct {
	track     models.Track
	container *models.Container
	section   string
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s", i.track.Artist.Name, i.track.Album.Title, i.track.Duration)
	if !i.track.Playable() {
		desc += " • no preview"
	}
	if i.section != "" {
		desc = fmt.Sprintf("%s • %s", i.section, desc)
	}
	return desc
}

// albumItem wraps [tasks.AlbumCard].
type albumItem struct {
	card tasks.AlbumCard
}

func (i albumItem) FilterValue() string { return i.card.Album.Title }
func (i albumItem) Title() string       { return i.card.Album.Title }
func (i albumItem) Description() string {
	if i.card.Album.Year > 0 {
		return fmt.Sprintf("Album • %s • %d", i.card.Artist.Name, i.card.Album.Year)
	}
	return fmt.Sprintf("Album • %s", i.card.Artist.Name)
}

// artistItem wraps [models.Artist]. Selecting one searches for the artist.
type artistItem struct {
	artist models.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string { return "Artist" }

func trackItems(c *models.Container, section string) []list.Item {
	if c == nil {
		return nil
	}
	items := make([]list.Item, 0, len(c.Items))
	for _, t := range c.Items {
		items = append(items, trackItem{track: t, container: c, section: section})
	}
	return items
}

func albumItems(cards []tasks.AlbumCard) []list.Item {
	items := make([]list.Item, 0, len(cards))
	for _, card := range cards {
		items = append(items, albumItem{card: card})
	}
	return items
}

func playlistItems(playlists []models.Playlist) []list.Item {
	items := make([]list.Item, 0, len(playlists))
	for _, pl := range playlists {
		items = append(items, playlistItem{playlist: pl})
	}
	return items
}

func artistItems(artists []models.Artist) []list.Item {
	items := make([]list.Item, 0, len(artists))
	for _, a := range artists {
		items = append(items, artistItem{artist: a})
	}
	return items
}

// newList builds a list whose own bindings do not collide with the player keys.
func newList(title string, items []list.Item, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.PrevPage = key.NewBinding(key.WithKeys("pgup", "b"))
	l.KeyMap.NextPage = key.NewBinding(key.WithKeys("pgdown", "f"))
	return l
}
