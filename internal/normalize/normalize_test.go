package normalize

import (
	"strings"
	"testing"

	"github.com/desertthunder/spotunisia/internal/services"
)

func TestDuration(t *testing.T) {
	tc := []struct {
		ms   int
		want string
	}{
		{ms: 0, want: "0:00"},
		{ms: -5, want: "0:00"},
		{ms: 125000, want: "2:05"},
		{ms: 59999, want: "1:00"},
		{ms: 59499, want: "0:59"},
		{ms: 1500, want: "0:02"},
		{ms: 180000, want: "3:00"},
		{ms: 3599999, want: "60:00"},
		{ms: 601000, want: "10:01"},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := Duration(tt.ms); got != tt.want {
				t.Errorf("Duration(%d) = %s, want %s", tt.ms, got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("2:05"); got != 125000 {
		t.Errorf("expected 125000, got %d", got)
	}
	if got := ParseDuration("garbage"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestYear(t *testing.T) {
	for in, want := range map[string]int{"2019-03-08": 2019, "1999": 1999, "": 0, "abcd-01": 0} {
		if got := Year(in); got != want {
			t.Errorf("Year(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestTrack(t *testing.T) {
	t.Run("full track", func(t *testing.T) {
		raw := &services.SpotifyTrack{
			ID:         "t1",
			Name:       "Song",
			DurationMS: 125000,
			PreviewURL: "https://p.example/t1.mp3",
			Artists:    []services.SpotifyArtist{{ID: "a1", Name: "First"}, {ID: "a2", Name: "Second"}},
			Album: &services.SpotifyAlbum{
				ID:          "al1",
				Name:        "Record",
				ReleaseDate: "2020-02-02",
				Images:      []services.SpotifyImage{{URL: "https://img.example/al1.jpg"}},
			},
			ExternalURLs: services.ExternalURLs{Spotify: "https://open.spotify.com/track/t1"},
		}

		got := Track(raw)
		if got.ID != "t1" || got.Title != "Song" || got.Duration != "2:05" {
			t.Errorf("unexpected track %+v", got)
		}
		if got.Artist.Name != "First" {
			t.Errorf("expected first credited artist, got %s", got.Artist.Name)
		}
		if got.Artist.ImageURL != "https://img.example/al1.jpg" || got.CoverURL != got.Album.CoverURL {
			t.Errorf("cover should come from album images: %+v", got)
		}
		if got.Album.Year != 2020 {
			t.Errorf("expected year 2020, got %d", got.Album.Year)
		}
		if !got.Playable() {
			t.Error("track with preview should be playable")
		}
	})

	t.Run("album without images", func(t *testing.T) {
		raw := &services.SpotifyTrack{ID: "t2", Name: "Bare", Album: &services.SpotifyAlbum{ID: "al2", Name: "No Art"}}
		got := Track(raw)
		if got.CoverURL != "" || got.Album.CoverURL != "" {
			t.Errorf("expected empty cover, got %q", got.CoverURL)
		}
	})

	t.Run("missing fields use defaults", func(t *testing.T) {
		got := Track(&services.SpotifyTrack{})
		if got.ID != UnknownID || got.Title != UnknownTrack {
			t.Errorf("unexpected id/title %q %q", got.ID, got.Title)
		}
		if got.Artist.Name != UnknownArtist || got.Album.Title != UnknownAlbum {
			t.Errorf("unexpected artist/album %q %q", got.Artist.Name, got.Album.Title)
		}
		if got.Duration != ZeroDuration || got.PreviewURL != "" || got.Playable() {
			t.Errorf("unexpected duration/preview %+v", got)
		}
	})

	t.Run("nil track", func(t *testing.T) {
		got := Track(nil)
		if got.Title != UnknownTrack || got.Artist.Name != UnknownArtist {
			t.Errorf("unexpected %+v", got)
		}
	})

	t.Run("tracks without an id get distinct derived ids", func(t *testing.T) {
		first := &services.SpotifyTrack{Name: "Home Demo", Artists: []services.SpotifyArtist{{Name: "Me"}}, URI: "spotify:local:Me::Home+Demo:200"}
		second := &services.SpotifyTrack{Name: "Garage Take", Artists: []services.SpotifyArtist{{Name: "Me"}}, URI: "spotify:local:Me::Garage+Take:180"}

		a, b := Track(first), Track(second)
		if !strings.HasPrefix(a.ID, LocalIDPrefix) || !strings.HasPrefix(b.ID, LocalIDPrefix) {
			t.Fatalf("expected derived ids, got %q %q", a.ID, b.ID)
		}
		if a.ID == b.ID {
			t.Errorf("expected distinct ids, both %q", a.ID)
		}
		if Track(first).ID != a.ID {
			t.Error("derived id must be stable across normalizations")
		}
	})

	t.Run("stable id", func(t *testing.T) {
		raw := &services.SpotifyTrack{ID: "same", Name: "x"}
		if Track(raw).ID != Track(raw).ID {
			t.Error("id must be stable across normalizations")
		}
	})
}

func TestSavedTrack(t *testing.T) {
	got := SavedTrack(services.SpotifySavedTrack{Track: &services.SpotifyTrack{ID: "liked", Name: "Loved"}})
	if got.ID != "liked" {
		t.Errorf("expected wrapper to unwrap, got %s", got.ID)
	}

	removed := SavedTrack(services.SpotifySavedTrack{})
	if removed.Title != UnknownTrack {
		t.Errorf("null track should normalize to unknown, got %s", removed.Title)
	}
}

func TestAlbumAsTrack(t *testing.T) {
	raw := services.SpotifyAlbum{
		ID:      "al9",
		Name:    "Fresh",
		Artists: []services.SpotifyArtist{{ID: "a9", Name: "New Act"}},
		Images:  []services.SpotifyImage{{URL: "https://img.example/al9.jpg"}},
	}

	got := AlbumAsTrack(raw)
	if got.ID != "al9" || got.Title != "Fresh" {
		t.Errorf("unexpected identity %+v", got)
	}
	if got.Duration != "3:00" {
		t.Errorf("expected nominal 3:00, got %s", got.Duration)
	}
	if got.PreviewURL != "" {
		t.Error("placeholder must have no preview")
	}
	if got.Album.ID != "al9" || got.CoverURL == "" {
		t.Errorf("album data should carry through: %+v", got.Album)
	}
}

func TestPlaylistAndUser(t *testing.T) {
	p := Playlist(services.SpotifySimplePlaylist{ID: "p1", Owner: services.Owner{DisplayName: "me"}})
	if p.Name != "Untitled Playlist" || p.Owner != "me" {
		t.Errorf("unexpected playlist %+v", p)
	}

	u := User(&services.SpotifyUser{ID: "user1"})
	if u.DisplayName != "user1" {
		t.Errorf("display name should fall back to id, got %s", u.DisplayName)
	}
}

func TestSliceHelpers(t *testing.T) {
	tracks := Tracks([]services.SpotifyTrack{{ID: "a"}, {ID: "b"}})
	if len(tracks) != 2 || tracks[1].ID != "b" {
		t.Errorf("unexpected tracks %+v", tracks)
	}
	if got := AlbumsAsTracks(nil); len(got) != 0 {
		t.Errorf("expected empty slice, got %d", len(got))
	}
}
