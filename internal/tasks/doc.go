// Package tasks loads the data behind each view from the catalog.
//
// # Views
//
// [Loader] has one method per view:
//
//  1. [Loader.Home] : profile, top tracks, new releases, featured playlists and recommendations
//     - profile, top tracks and new releases are required; a failure fails the view
//     - featured playlists and recommendations are optional and logged on failure
//     - with no top tracks, new releases stand in as placeholder items for both sections
//
//  2. [Loader.Liked], [Loader.Playlist], [Loader.Album] : containers of tracks ready for playback
//
//  3. [Loader.Library] : playlists and top artists fetched concurrently
//
//  4. [Loader.Search] : tracks, artists and albums; a blank term makes no request
//
// # Sessions
//
// Loaders consult the [session.Guard] before any request. A 401 from the catalog clears the
// stored session and is returned as [shared.ErrNotAuthenticated] so callers send the user to login.
//
// # Progress Reporting
//
// Multi-step loaders take a progress channel. [ProgressUpdate] values are sent with select and
// default so a slow reader never blocks a load.
//
// # Export
//
// [Loader.Export] writes playlists to files with a rate-limited worker pool and a JSON manifest.
package tasks
