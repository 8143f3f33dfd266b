package fallback

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/desertthunder/spotunisia/internal/shared"
	tu "github.com/desertthunder/spotunisia/internal/testing"
)

const videoID = "dQw4w9WgXcQ"

type upstream struct {
	server       *httptest.Server
	searchBody   string
	searchStatus int
	streamStatus int
	audioStatus  int
	streamHits   atomic.Int32
	lastQuery    atomic.Value
}

func newUpstream(t *testing.T) *upstream {
	t.Helper()
	u := &upstream{
		searchBody:   `<html><body><a href="/watch?v=` + videoID + `">Song</a><a href="/watch?v=zzzzzzzzzzz">Other</a></body></html>`,
		searchStatus: http.StatusOK,
		streamStatus: http.StatusOK,
		audioStatus:  http.StatusOK,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/results", func(w http.ResponseWriter, r *http.Request) {
		u.lastQuery.Store(r.URL.Query().Get("search_query"))
		w.WriteHeader(u.searchStatus)
		io.WriteString(w, u.searchBody)
	})
	mux.HandleFunc("/streams/", func(w http.ResponseWriter, r *http.Request) {
		u.streamHits.Add(1)
		if u.streamStatus != http.StatusOK {
			w.WriteHeader(u.streamStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"audioStreams":[
			{"url":"`+u.server.URL+`/audio/low","bitrate":48000},
			{"url":"`+u.server.URL+`/audio/high","bitrate":"160000"},
			{"url":"`+u.server.URL+`/audio/mid","bitrate":128000}
		]}`)
	})
	mux.HandleFunc("/audio/", func(w http.ResponseWriter, r *http.Request) {
		if u.audioStatus != http.StatusOK {
			w.WriteHeader(u.audioStatus)
			return
		}
		io.WriteString(w, "audio:"+strings.TrimPrefix(r.URL.Path, "/audio/"))
	})
	u.server = httptest.NewServer(mux)
	t.Cleanup(u.server.Close)
	return u
}

func (u *upstream) resolver(opener *tu.RecordingOpener) *Resolver {
	return NewResolver(services.NewAPIService(u.server.Client()), Options{
		SearchURL:         u.server.URL + "/results",
		StreamURL:         u.server.URL,
		WatchURL:          "https://video.example/watch",
		RequestsPerSecond: 1000,
		Opener:            opener.Open,
		Logger:            shared.NewLogger(&tu.FWriter{}),
	})
}

var song = models.Track{ID: "t1", Title: "Never Gonna Give You Up", Artist: models.Artist{Name: "Rick Astley"}}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolve", func(t *testing.T) {
		t.Run("picks the highest bitrate stream", func(t *testing.T) {
			up := newUpstream(t)
			opener := &tu.RecordingOpener{}

			res := up.resolver(opener).Resolve(ctx, song)
			if res.Kind != KindStream || res.Notice != NoticeResolved {
				t.Fatalf("expected resolved stream, got %+v", res)
			}
			if want := up.server.URL + "/audio/high"; res.URL != want {
				t.Errorf("expected %s, got %s", want, res.URL)
			}
			if res.VideoID != videoID {
				t.Errorf("expected video id %s, got %s", videoID, res.VideoID)
			}
			if q, _ := up.lastQuery.Load().(string); q != "Never Gonna Give You Up Rick Astley audio" {
				t.Errorf("unexpected search query %q", q)
			}
			if len(opener.URLs) != 0 {
				t.Errorf("expected no page opened, got %v", opener.URLs)
			}
		})

		t.Run("search miss", func(t *testing.T) {
			up := newUpstream(t)
			up.searchBody = "<html><body>No results</body></html>"
			opener := &tu.RecordingOpener{}

			res := up.resolver(opener).Resolve(ctx, song)
			if res.Kind != KindNone || res.Notice != NoticeSearchMiss {
				t.Errorf("expected search miss, got %+v", res)
			}
			if up.streamHits.Load() != 0 {
				t.Error("expected no stream lookup")
			}
		})

		t.Run("search unavailable", func(t *testing.T) {
			up := newUpstream(t)
			up.searchStatus = http.StatusBadGateway

			res := up.resolver(&tu.RecordingOpener{}).Resolve(ctx, song)
			if res.Kind != KindNone || res.Notice != NoticeNetwork {
				t.Errorf("expected network notice, got %+v", res)
			}
		})

		t.Run("stream miss opens the page", func(t *testing.T) {
			up := newUpstream(t)
			up.streamStatus = http.StatusInternalServerError
			opener := &tu.RecordingOpener{}

			res := up.resolver(opener).Resolve(ctx, song)
			if res.Kind != KindPage || res.Notice != NoticePageOpened {
				t.Fatalf("expected opened page, got %+v", res)
			}
			want := "https://video.example/watch?v=" + videoID
			if len(opener.URLs) != 1 || opener.URLs[0] != want {
				t.Errorf("expected %s opened, got %v", want, opener.URLs)
			}
		})

		t.Run("page that cannot be opened", func(t *testing.T) {
			up := newUpstream(t)
			up.streamStatus = http.StatusNotFound
			opener := &tu.RecordingOpener{Err: errors.New("no browser")}

			res := up.resolver(opener).Resolve(ctx, song)
			if res.Kind != KindPage || res.Notice != NoticeStreamMiss {
				t.Errorf("expected stream miss page, got %+v", res)
			}
		})
	})

	t.Run("Source", func(t *testing.T) {
		up := newUpstream(t)
		up.searchBody = "nothing"

		_, err := up.resolver(&tu.RecordingOpener{}).Source(ctx, song)
		if !errors.Is(err, shared.ErrNoSource) {
			t.Errorf("expected ErrNoSource, got %v", err)
		}
		var ferr *Error
		if !errors.As(err, &ferr) || ferr.Resolution.Notice != NoticeSearchMiss {
			t.Errorf("expected search miss error, got %v", err)
		}
	})

	t.Run("Stream trips the breaker", func(t *testing.T) {
		up := newUpstream(t)
		up.streamStatus = http.StatusServiceUnavailable
		r := up.resolver(&tu.RecordingOpener{})

		for range 6 {
			if _, err := r.Stream(ctx, videoID); err == nil {
				t.Fatal("expected error")
			}
		}
		hits := up.streamHits.Load()

		_, err := r.Stream(ctx, videoID)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if up.streamHits.Load() != hits {
			t.Error("expected open breaker to skip the request")
		}
	})

	t.Run("SearchURL", func(t *testing.T) {
		r := NewResolver(nil, Options{RelayURL: "https://relay.example/?", Logger: shared.NewLogger(&tu.FWriter{})})
		got := r.SearchURL("a b&c")

		raw, ok := strings.CutPrefix(got, "https://relay.example/?")
		if !ok {
			t.Fatalf("expected relay prefix, got %s", got)
		}
		target, err := url.QueryUnescape(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if target != "https://www.youtube.com/results?search_query=a+b%26c" {
			t.Errorf("unexpected relayed target %s", target)
		}
	})
}

func TestFirstVideoID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"anchor", `<a href="/watch?v=abcdefghijk&list=x">x</a>`, "abcdefghijk"},
		{"script only", `<script>var d = {"url":"/watch?v=ABCDEFGHIJ_"};</script>`, "ABCDEFGHIJ_"},
		{"short id", `<a href="/watch?v=short">x</a>`, ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstVideoID([]byte(tt.body)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

type recordingHistory struct {
	downloads []*models.Download
}

func (h *recordingHistory) Create(d *models.Download) error {
	h.downloads = append(h.downloads, d)
	return nil
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()

	t.Run("Filename", func(t *testing.T) {
		track := models.Track{Title: "T.N.T.", Artist: models.Artist{Name: "AC/DC"}}
		if got := Filename(track); got != "ACDC - T.N.T..mp3" {
			t.Errorf("unexpected filename %q", got)
		}
	})

	t.Run("preview", func(t *testing.T) {
		up := newUpstream(t)
		history := &recordingHistory{}
		dir := filepath.Join(t.TempDir(), "downloads")
		track := song
		track.PreviewURL = up.server.URL + "/audio/preview"

		path, res, err := NewDownloader(up.resolver(&tu.RecordingOpener{}), history).Download(ctx, track, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if want := filepath.Join(dir, "Rick Astley - Never Gonna Give You Up.mp3"); path != want {
			t.Errorf("expected %s, got %s", want, path)
		}
		if got := tu.MustReadFile(t, path); got != "audio:preview" {
			t.Errorf("unexpected contents %q", got)
		}
		if res.Kind != KindStream {
			t.Errorf("expected stream kind, got %v", res.Kind)
		}
		if len(history.downloads) != 1 || history.downloads[0].Source != models.SourcePreview {
			t.Errorf("expected one preview download recorded, got %+v", history.downloads)
		}
		if up.streamHits.Load() != 0 {
			t.Error("expected no fallback lookup")
		}
	})

	t.Run("resolved stream", func(t *testing.T) {
		up := newUpstream(t)
		history := &recordingHistory{}
		dir := t.TempDir()

		path, _, err := NewDownloader(up.resolver(&tu.RecordingOpener{}), history).Download(ctx, song, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := tu.MustReadFile(t, path); got != "audio:high" {
			t.Errorf("unexpected contents %q", got)
		}
		if history.downloads[0].Source != models.SourceStream {
			t.Errorf("expected stream source, got %s", history.downloads[0].Source)
		}
	})

	t.Run("page only writes nothing", func(t *testing.T) {
		up := newUpstream(t)
		up.streamStatus = http.StatusNotFound
		opener := &tu.RecordingOpener{}
		dir := t.TempDir()

		path, res, err := NewDownloader(up.resolver(opener), nil).Download(ctx, song, dir)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if path != "" || res.Kind != KindPage {
			t.Errorf("expected page result, got path=%q res=%+v", path, res)
		}
		if len(opener.URLs) != 1 {
			t.Errorf("expected page opened once, got %v", opener.URLs)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected empty directory, got %d entries", len(entries))
		}
	})

	t.Run("nothing found", func(t *testing.T) {
		up := newUpstream(t)
		up.searchBody = "none"

		_, res, err := NewDownloader(up.resolver(&tu.RecordingOpener{}), nil).Download(ctx, song, t.TempDir())
		if !errors.Is(err, shared.ErrNoSource) {
			t.Errorf("expected ErrNoSource, got %v", err)
		}
		if res.Notice != NoticeSearchMiss {
			t.Errorf("expected search miss, got %s", res.Notice)
		}
	})

	t.Run("unfetchable stream opens the page", func(t *testing.T) {
		up := newUpstream(t)
		up.audioStatus = http.StatusForbidden
		opener := &tu.RecordingOpener{}
		history := &recordingHistory{}
		dir := t.TempDir()

		path, res, err := NewDownloader(up.resolver(opener), history).Download(ctx, song, dir)
		if err != nil {
			t.Fatalf("expected page fallback without error, got %v", err)
		}
		if path != "" || res.Kind != KindPage || res.Notice != NoticePageOpened {
			t.Errorf("expected opened page result, got path=%q res=%+v", path, res)
		}
		if want := "https://video.example/watch?v=" + videoID; len(opener.URLs) != 1 || opener.URLs[0] != want {
			t.Errorf("expected %s opened, got %v", want, opener.URLs)
		}
		if len(history.downloads) != 0 {
			t.Errorf("expected nothing recorded, got %+v", history.downloads)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected empty directory, got %d entries", len(entries))
		}
	})

	t.Run("failed preview fetch leaves no file", func(t *testing.T) {
		up := newUpstream(t)
		dir := t.TempDir()
		track := song
		track.PreviewURL = up.server.URL + "/missing"

		if _, _, err := NewDownloader(up.resolver(&tu.RecordingOpener{}), nil).Download(ctx, track, dir); err == nil {
			t.Fatal("expected error")
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected empty directory, got %d entries", len(entries))
		}
	})
}
