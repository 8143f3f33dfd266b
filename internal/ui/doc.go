// Package ui implements an interactive terminal client using bubbletea's Elm architecture.
//
// The TUI moves between a handful of views:
//  1. [HomeView] : Top tracks, recommendations, new releases and featured playlists
//  2. [SearchView] : Tracks, albums and artists matching a term
//  3. [LibraryView] : The account's playlists and top artists
//  4. [LikedView] : Saved tracks
//  5. [QueueView] : What plays next
//  6. [DetailView] : Tracks of an opened album or playlist
//
// A player bar under every view renders the [player.State] snapshots the controller publishes.
// Loads and controller commands run as bubbletea commands; their results come back through the Msg union.
//
// Keys: enter select, space play/pause, n next, p previous, ←/→ seek, +/- volume, d download,
// tab next view, / search, r retry, esc back, q quit.
package ui
