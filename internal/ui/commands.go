package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/tasks"
)

// runActions applies player commands one at a time in the order keys were pressed.
func (m *Model) runActions() {
	for {
		select {
		case <-m.ctx.Done():
			return
		case fn := <-m.actions:
			err := fn()
			select {
			case m.done <- err:
			default:
				if err != nil {
					m.logger.Warn("dropped player error", "error", err)
				}
			}
		}
	}
}

// act queues fn for [Model.runActions].
func (m *Model) act(fn func() error) tea.Cmd {
	select {
	case m.actions <- fn:
	default:
		m.status = "Player is busy"
	}
	return nil
}

func (m *Model) waitForResult() tea.Cmd {
	done := m.done
	return func() tea.Msg {
		return actionDoneMsg(<-done)
	}
}

func (m *Model) waitForState() tea.Cmd {
	states := m.states
	return func() tea.Msg {
		state, ok := <-states
		if !ok {
			return nil
		}
		return playerStateMsg(state)
	}
}

func waitForProgress(ch <-chan tasks.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-ch
		if !ok {
			return nil
		}
		return progressUpdateMsg(update, ch)
	}
}

// tick samples playback progress off the update loop once a second.
func (m *Model) tick() tea.Cmd {
	p := m.player
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		elapsed, duration := p.Progress()
		return tickMsg(elapsed, duration)
	})
}

func (m *Model) loadHome() tea.Cmd {
	m.loading[HomeView] = true
	ch := make(chan tasks.ProgressUpdate, 8)
	load := func() tea.Msg {
		defer close(ch)
		home, err := m.loader.Home(m.ctx, ch)
		return homeLoadedMsg(home, err)
	}
	return tea.Batch(load, waitForProgress(ch))
}

func (m *Model) loadLibrary() tea.Cmd {
	m.loading[LibraryView] = true
	ch := make(chan tasks.ProgressUpdate, 8)
	load := func() tea.Msg {
		defer close(ch)
		library, err := m.loader.Library(m.ctx, ch)
		return libraryLoadedMsg(library, err)
	}
	return tea.Batch(load, waitForProgress(ch))
}

func (m *Model) loadLiked() tea.Cmd {
	m.loading[LikedView] = true
	return func() tea.Msg {
		liked, err := m.loader.Liked(m.ctx, tasks.LikedLimit)
		return likedLoadedMsg(liked, err)
	}
}

func (m *Model) loadPlaylist(pl models.Playlist) tea.Cmd {
	m.loading[DetailView] = true
	ch := make(chan tasks.ProgressUpdate, 8)
	load := func() tea.Msg {
		defer close(ch)
		c, err := m.loader.Playlist(m.ctx, pl.ID, pl.Name, ch)
		return containerLoadedMsg(c, err)
	}
	return tea.Batch(load, waitForProgress(ch))
}

func (m *Model) loadAlbum(card tasks.AlbumCard) tea.Cmd {
	m.loading[DetailView] = true
	return func() tea.Msg {
		c, err := m.loader.Album(m.ctx, card)
		return containerLoadedMsg(c, err)
	}
}

func (m *Model) runSearch(term string) tea.Cmd {
	m.term = strings.TrimSpace(term)
	m.loading[SearchView] = true
	return func() tea.Msg {
		results, err := m.loader.Search(m.ctx, term)
		return searchLoadedMsg(results, err)
	}
}

func (m *Model) download() tea.Cmd {
	if m.downloader == nil {
		m.status = "Downloads are not configured"
		return nil
	}
	track, ok := m.selected()
	if !ok {
		m.status = "Select a song to download"
		return nil
	}

	m.status = fmt.Sprintf("Downloading %s...", track.Title)
	dir := m.downloadDir
	return func() tea.Msg {
		path, res, err := m.downloader.Download(m.ctx, track, dir)
		return downloadedMsg(path, res, err)
	}
}
