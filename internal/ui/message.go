package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spotunisia/internal/fallback"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/player"
	"github.com/desertthunder/spotunisia/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgHomeLoaded MsgKind = iota
	MsgLibraryLoaded
	MsgLikedLoaded
	MsgSearchLoaded
	MsgContainerLoaded
	MsgProgressUpdate
	MsgPlayerState
	MsgTick
	MsgActionDone
	MsgDownloaded
)

// loaded carries the outcome of a load.
type loaded[T any] struct {
	value T
	err   error
}

// homeLoadedMsg is the constructor for [MsgHomeLoaded]
func homeLoadedMsg(home *tasks.HomeView, err error) Msg {
	return Msg{kind: MsgHomeLoaded, data: loaded[*tasks.HomeView]{home, err}}
}

// libraryLoadedMsg is the constructor for [MsgLibraryLoaded]
func libraryLoadedMsg(library *tasks.LibraryView, err error) Msg {
	return Msg{kind: MsgLibraryLoaded, data: loaded[*tasks.LibraryView]{library, err}}
}

// likedLoadedMsg is the constructor for [MsgLikedLoaded]
func likedLoadedMsg(liked *models.Container, err error) Msg {
	return Msg{kind: MsgLikedLoaded, data: loaded[*models.Container]{liked, err}}
}

// searchLoadedMsg is the constructor for [MsgSearchLoaded]
func searchLoadedMsg(results *tasks.SearchView, err error) Msg {
	return Msg{kind: MsgSearchLoaded, data: loaded[*tasks.SearchView]{results, err}}
}

// containerLoadedMsg is the constructor for [MsgContainerLoaded]
func containerLoadedMsg(c *models.Container, err error) Msg {
	return Msg{kind: MsgContainerLoaded, data: loaded[*models.Container]{c, err}}
}

type progress struct {
	update tasks.ProgressUpdate
	ch     <-chan tasks.ProgressUpdate
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate, ch <-chan tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: progress{update, ch}}
}

// playerStateMsg is the constructor for [MsgPlayerState]
func playerStateMsg(state player.State) Msg {
	return Msg{kind: MsgPlayerState, data: state}
}

type clock struct {
	elapsed  time.Duration
	duration time.Duration
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(elapsed, duration time.Duration) Msg {
	return Msg{kind: MsgTick, data: clock{elapsed, duration}}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(err error) Msg {
	return Msg{kind: MsgActionDone, data: err}
}

type download struct {
	path       string
	resolution fallback.Resolution
	err        error
}

// downloadedMsg is the constructor for [MsgDownloaded]
func downloadedMsg(path string, res fallback.Resolution, err error) Msg {
	return Msg{kind: MsgDownloaded, data: download{path, res, err}}
}
