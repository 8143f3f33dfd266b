package tasks

import "fmt"

// ProgressUpdate represents a progress event during a multi-step load.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProfile Phase = iota
	FetchTopTracks
	FetchNewReleases
	FetchFeatured
	FetchRecommendations
	FetchPlaylists
	FetchArtists
	FetchPlaylistTracks
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchTopTracks:
		return "fetch_top_tracks"
	case FetchNewReleases:
		return "fetch_new_releases"
	case FetchFeatured:
		return "fetch_featured"
	case FetchRecommendations:
		return "fetch_recommendations"
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchArtists:
		return "fetch_artists"
	case FetchPlaylistTracks:
		return "fetch_playlist_tracks"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func (p Phase) message() string {
	switch p {
	case FetchProfile:
		return "Fetching your profile..."
	case FetchTopTracks:
		return "Fetching your top tracks..."
	case FetchNewReleases:
		return "Fetching new releases..."
	case FetchFeatured:
		return "Fetching featured playlists..."
	case FetchRecommendations:
		return "Fetching recommendations..."
	case FetchPlaylists:
		return "Fetching your playlists..."
	case FetchArtists:
		return "Fetching your top artists..."
	default:
		return "Working..."
	}
}

func stepUpdate(phase Phase, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: phase.message(),
	}
}

func fetchPlaylistUpdate(name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylistTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist (%s)...", name),
	}
}

func foundPlaylistUpdate(name string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylistTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", name, count),
		Data:    count,
	}
}

func exportingPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
