package player

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/normalize"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/desertthunder/spotunisia/internal/shared"
	tu "github.com/desertthunder/spotunisia/internal/testing"
)

func track(id string) models.Track {
	return models.Track{ID: id, Title: "Song " + id, Duration: "3:00", PreviewURL: "https://p.example/" + id}
}

func ids(tracks []models.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func newTestController(opts ...Option) (*Controller, *tu.FakeMedium) {
	medium := &tu.FakeMedium{}
	return NewController(medium, opts...), medium
}

func TestController(t *testing.T) {
	ctx := context.Background()
	a, b, c, d := track("a"), track("b"), track("c"), track("d")

	t.Run("SelectItem", func(t *testing.T) {
		t.Run("selecting the current item twice toggles play and pause", func(t *testing.T) {
			ctrl, medium := newTestController()
			container := models.NewContainer(models.KindAlbum, "x", "X", []models.Track{a, b})

			if err := ctrl.SelectItem(ctx, a, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := ctrl.SelectItem(ctx, a, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := ctrl.State()
			if st.Current == nil || st.Current.ID != "a" {
				t.Fatalf("expected current a, got %+v", st.Current)
			}
			if st.IsPlaying {
				t.Error("expected paused after second select")
			}

			if err := ctrl.SelectItem(ctx, a, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ctrl.State().IsPlaying {
				t.Error("expected playing after third select")
			}
			want := []string{"load", "volume", "play", "pause", "play"}
			if got := medium.Ops(); !slices.Equal(got, want) {
				t.Errorf("expected medium ops %v, got %v", want, got)
			}
		})

		t.Run("queue wraps around the container", func(t *testing.T) {
			ctrl, medium := newTestController()
			container := models.NewContainer(models.KindPlaylist, "p", "P", []models.Track{a, b, c, d})

			if err := ctrl.SelectItem(ctx, c, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := ctrl.State()
			if got, want := ids(st.Queue), []string{"d", "a", "b"}; !slices.Equal(got, want) {
				t.Errorf("expected queue %v, got %v", want, got)
			}
			if st.ContainerID != "playlist:p" {
				t.Errorf("expected container id playlist:p, got %q", st.ContainerID)
			}
			if call, ok := medium.Last("load"); !ok || call.URL != c.PreviewURL {
				t.Errorf("expected load of %s, got %+v", c.PreviewURL, call)
			}
		})

		t.Run("without a container the queue is every other known item", func(t *testing.T) {
			ctrl, _ := newTestController()
			ctrl.SetKnown([]models.Track{a, b, c})

			if err := ctrl.SelectItem(ctx, b, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := ctrl.State()
			if got, want := ids(st.Queue), []string{"a", "c"}; !slices.Equal(got, want) {
				t.Errorf("expected queue %v, got %v", want, got)
			}
			if st.ContainerID != "" {
				t.Errorf("expected no container id, got %q", st.ContainerID)
			}
		})

		t.Run("container without the item falls back to known items", func(t *testing.T) {
			ctrl, _ := newTestController()
			ctrl.SetKnown([]models.Track{a, d})
			container := models.NewContainer(models.KindAlbum, "x", "X", []models.Track{b, c})

			if err := ctrl.SelectItem(ctx, a, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got, want := ids(ctrl.State().Queue), []string{"d"}; !slices.Equal(got, want) {
				t.Errorf("expected queue %v, got %v", want, got)
			}
		})

		t.Run("tracks the catalog left without an id switch instead of toggling", func(t *testing.T) {
			ctrl, _ := newTestController()
			first := normalize.Track(&services.SpotifyTrack{Name: "Home Demo", PreviewURL: "https://p.example/demo"})
			second := normalize.Track(&services.SpotifyTrack{Name: "Garage Take", PreviewURL: "https://p.example/take"})

			_ = ctrl.SelectItem(ctx, first, nil)
			if err := ctrl.SelectItem(ctx, second, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := ctrl.State()
			if st.Current == nil || st.Current.Title != "Garage Take" || !st.IsPlaying {
				t.Errorf("expected Garage Take playing, got %+v", st)
			}
		})

		t.Run("single item container leaves an empty queue", func(t *testing.T) {
			ctrl, _ := newTestController()
			container := models.NewContainer(models.KindSearch, "q", "Q", []models.Track{a})

			if err := ctrl.SelectItem(ctx, a, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n := len(ctrl.State().Queue); n != 0 {
				t.Errorf("expected empty queue, got %d items", n)
			}
		})
	})

	t.Run("SelectContainer", func(t *testing.T) {
		t.Run("plays the first item and queues the rest", func(t *testing.T) {
			ctrl, _ := newTestController()
			container := models.NewContainer(models.KindAlbum, "s", "S", []models.Track{track("s1"), track("s2"), track("s3")})

			if err := ctrl.SelectContainer(ctx, container); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			st := ctrl.State()
			if st.Current == nil || st.Current.ID != "s1" || !st.IsPlaying {
				t.Fatalf("expected s1 playing, got %+v", st)
			}
			if got, want := ids(st.Queue), []string{"s2", "s3"}; !slices.Equal(got, want) {
				t.Errorf("expected queue %v, got %v", want, got)
			}
		})

		t.Run("empty container changes nothing", func(t *testing.T) {
			ctrl, medium := newTestController()
			_ = ctrl.SelectItem(ctx, a, nil)
			before := ctrl.State()
			medium.Reset()

			err := ctrl.SelectContainer(ctx, models.NewContainer(models.KindAlbum, "e", "E", nil))
			if !errors.Is(err, shared.ErrEmptyContainer) {
				t.Errorf("expected ErrEmptyContainer, got %v", err)
			}
			if err := ctrl.SelectContainer(ctx, nil); !errors.Is(err, shared.ErrEmptyContainer) {
				t.Errorf("expected ErrEmptyContainer for nil, got %v", err)
			}
			after := ctrl.State()
			if after.Current.ID != before.Current.ID || after.IsPlaying != before.IsPlaying {
				t.Errorf("expected state unchanged, got %+v", after)
			}
			if ops := medium.Ops(); len(ops) != 0 {
				t.Errorf("expected no medium calls, got %v", ops)
			}
		})
	})

	t.Run("Advance", func(t *testing.T) {
		t.Run("pops the queue head until empty", func(t *testing.T) {
			ctrl, _ := newTestController()
			container := models.NewContainer(models.KindAlbum, "x", "X", []models.Track{a, b, c})
			_ = ctrl.SelectItem(ctx, a, container)

			for _, want := range []string{"b", "c"} {
				moved, err := ctrl.Advance(ctx)
				if err != nil || !moved {
					t.Fatalf("expected advance, got moved=%v err=%v", moved, err)
				}
				if got := ctrl.State().Current.ID; got != want {
					t.Errorf("expected current %s, got %s", want, got)
				}
			}

			moved, err := ctrl.Advance(ctx)
			if err != nil || moved {
				t.Errorf("expected no-op on empty queue, got moved=%v err=%v", moved, err)
			}
			if got := ctrl.State().Current.ID; got != "c" {
				t.Errorf("expected current to stay c, got %s", got)
			}
		})

		t.Run("item end behaves like advance", func(t *testing.T) {
			ctrl, _ := newTestController()
			_ = ctrl.SelectContainer(ctx, models.NewContainer(models.KindTop, "me", "Top", []models.Track{a, b}))

			if moved, _ := ctrl.OnItemEnded(ctx); !moved {
				t.Fatal("expected item end to advance")
			}
			st := ctrl.State()
			if st.Current.ID != "b" || !st.IsPlaying || len(st.Queue) != 0 {
				t.Errorf("expected b playing with empty queue, got %+v", st)
			}
		})

		t.Run("advance resumes a paused controller", func(t *testing.T) {
			ctrl, _ := newTestController()
			_ = ctrl.SelectContainer(ctx, models.NewContainer(models.KindTop, "me", "Top", []models.Track{a, b}))
			_ = ctrl.TogglePlayPause()

			_, _ = ctrl.Advance(ctx)
			if !ctrl.State().IsPlaying {
				t.Error("expected playing after advance")
			}
		})
	})

	t.Run("Retreat rewinds without changing the item", func(t *testing.T) {
		ctrl, medium := newTestController()
		medium.Length = 30 * time.Second
		_ = ctrl.SelectContainer(ctx, models.NewContainer(models.KindAlbum, "x", "X", []models.Track{a, b}))
		_, _ = ctrl.Advance(ctx)
		_ = ctrl.Seek(12 * time.Second)

		if err := ctrl.Retreat(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := ctrl.State().Current.ID; got != "b" {
			t.Errorf("expected current b, got %s", got)
		}
		if pos := medium.Position(); pos != 0 {
			t.Errorf("expected position 0, got %v", pos)
		}
	})

	t.Run("TogglePlayPause without an item", func(t *testing.T) {
		ctrl, medium := newTestController()
		if err := ctrl.TogglePlayPause(); !errors.Is(err, shared.ErrNoCurrentItem) {
			t.Errorf("expected ErrNoCurrentItem, got %v", err)
		}
		if ctrl.State().IsPlaying {
			t.Error("expected not playing")
		}
		if ops := medium.Ops(); len(ops) != 0 {
			t.Errorf("expected no medium calls, got %v", ops)
		}
	})

	t.Run("Seek clamps to the item duration", func(t *testing.T) {
		ctrl, medium := newTestController()
		medium.Length = 30 * time.Second
		_ = ctrl.SelectItem(ctx, a, nil)

		tests := []struct {
			name string
			pos  time.Duration
			want time.Duration
		}{
			{"inside", 10 * time.Second, 10 * time.Second},
			{"negative", -5 * time.Second, 0},
			{"past the end", 45 * time.Second, 30 * time.Second},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := ctrl.Seek(tt.pos); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got := medium.Position(); got != tt.want {
					t.Errorf("expected %v, got %v", tt.want, got)
				}
			})
		}

		t.Run("falls back to the nominal runtime", func(t *testing.T) {
			medium.Length = 0
			_ = ctrl.Seek(10 * time.Minute)
			if got := medium.Position(); got != 3*time.Minute {
				t.Errorf("expected 3m, got %v", got)
			}
		})

		t.Run("relative", func(t *testing.T) {
			medium.Length = 30 * time.Second
			_ = ctrl.Seek(28 * time.Second)
			_ = ctrl.SeekBy(5 * time.Second)
			if got := medium.Position(); got != 30*time.Second {
				t.Errorf("expected 30s, got %v", got)
			}
		})
	})

	t.Run("SetVolume clamps to the unit range", func(t *testing.T) {
		ctrl, medium := newTestController()
		for _, tt := range []struct{ in, want float64 }{{0.5, 0.5}, {-1, 0}, {1.7, 1}} {
			if err := ctrl.SetVolume(tt.in); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := ctrl.State().Volume; got != tt.want {
				t.Errorf("SetVolume(%v): expected %v, got %v", tt.in, tt.want, got)
			}
			if call, _ := medium.Last("volume"); call.Vol != tt.want {
				t.Errorf("SetVolume(%v): expected medium volume %v, got %v", tt.in, tt.want, call.Vol)
			}
		}
	})

	t.Run("items without a preview", func(t *testing.T) {
		silent := models.Track{ID: "s", Title: "Silent", Duration: "3:00"}

		t.Run("resolved through the source", func(t *testing.T) {
			var asked string
			ctrl, medium := newTestController(WithSource(func(_ context.Context, tr models.Track) (string, error) {
				asked = tr.ID
				return "https://stream.example/s", nil
			}))

			if err := ctrl.SelectItem(ctx, silent, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if asked != "s" {
				t.Errorf("expected source lookup for s, got %q", asked)
			}
			if call, _ := medium.Last("load"); call.URL != "https://stream.example/s" {
				t.Errorf("expected stream load, got %+v", call)
			}
			if st := ctrl.State(); st.Source != "https://stream.example/s" {
				t.Errorf("expected source recorded, got %q", st.Source)
			}
		})

		t.Run("unresolved keeps the transition and reports a notice", func(t *testing.T) {
			ctrl, medium := newTestController(WithSource(func(context.Context, models.Track) (string, error) {
				return "", errors.New("no stream found")
			}))

			err := ctrl.SelectItem(ctx, silent, nil)
			if !IsNoSource(err) {
				t.Errorf("expected no source error, got %v", err)
			}
			st := ctrl.State()
			if st.Current == nil || st.Current.ID != "s" {
				t.Errorf("expected current s, got %+v", st.Current)
			}
			if st.Notice == "" {
				t.Error("expected a notice")
			}
			if _, ok := medium.Last("load"); ok {
				t.Error("expected no load")
			}
		})

		// blockingSource returns a source that waits for release and signals started on entry.
		blockingSource := func() (SourceFunc, chan struct{}, chan struct{}) {
			started, release := make(chan struct{}, 1), make(chan struct{})
			return func(ctx context.Context, tr models.Track) (string, error) {
				started <- struct{}{}
				<-release
				return "https://stream.example/" + tr.ID, nil
			}, started, release
		}

		t.Run("lookup runs without holding the controller", func(t *testing.T) {
			source, started, release := blockingSource()
			ctrl, medium := newTestController(WithSource(source))

			selected := make(chan error, 1)
			go func() { selected <- ctrl.SelectItem(ctx, silent, nil) }()
			<-started

			polled := make(chan State, 1)
			go func() {
				ctrl.Progress()
				polled <- ctrl.State()
			}()

			select {
			case st := <-polled:
				if st.Current == nil || st.Current.ID != "s" || !st.IsPlaying {
					t.Errorf("expected s current while resolving, got %+v", st)
				}
			case <-time.After(500 * time.Millisecond):
				t.Fatal("Progress and State blocked while the source lookup was running")
			}

			close(release)
			if err := <-selected; err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if call, _ := medium.Last("load"); call.URL != "https://stream.example/s" {
				t.Errorf("expected stream load, got %+v", call)
			}
		})

		t.Run("a newer selection drops the pending lookup", func(t *testing.T) {
			source, started, release := blockingSource()
			ctrl, medium := newTestController(WithSource(source))

			selected := make(chan error, 1)
			go func() { selected <- ctrl.SelectItem(ctx, silent, nil) }()
			<-started

			if err := ctrl.SelectItem(ctx, b, nil); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			close(release)
			if err := <-selected; err != nil {
				t.Fatalf("expected superseded selection to return nil, got %v", err)
			}

			st := ctrl.State()
			if st.Current == nil || st.Current.ID != "b" || st.Source != b.PreviewURL {
				t.Errorf("expected b to stay current, got %+v", st)
			}
			for _, call := range medium.Calls {
				if call.Op == "load" && call.URL == "https://stream.example/s" {
					t.Error("expected the stale stream not to be loaded")
				}
			}
		})

		t.Run("pausing during the lookup loads without playing", func(t *testing.T) {
			source, started, release := blockingSource()
			ctrl, medium := newTestController(WithSource(source))

			selected := make(chan error, 1)
			go func() { selected <- ctrl.SelectItem(ctx, silent, nil) }()
			<-started

			if err := ctrl.TogglePlayPause(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			medium.Reset()
			close(release)
			if err := <-selected; err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if ops := medium.Ops(); slices.Contains(ops, "play") || !slices.Contains(ops, "load") {
				t.Errorf("expected load without play, got %v", ops)
			}
			if ctrl.State().IsPlaying {
				t.Error("expected paused state")
			}
		})

		t.Run("no source configured", func(t *testing.T) {
			ctrl, _ := newTestController()
			if err := ctrl.SelectItem(ctx, silent, nil); !errors.Is(err, shared.ErrNoSource) {
				t.Errorf("expected ErrNoSource, got %v", err)
			}
		})
	})

	t.Run("Subscribe delivers the latest snapshot", func(t *testing.T) {
		ctrl, _ := newTestController()
		updates := ctrl.Subscribe()

		_ = ctrl.SelectItem(ctx, a, nil)
		_ = ctrl.TogglePlayPause()

		st := <-updates
		if st.Current == nil || st.Current.ID != "a" || st.IsPlaying {
			t.Errorf("expected paused a, got %+v", st)
		}

		st.Queue = append(st.Queue, b)
		if len(ctrl.State().Queue) != 0 {
			t.Error("expected snapshot to be detached from controller state")
		}

		ctrl.Close()
		if _, ok := <-updates; ok {
			t.Error("expected channel closed")
		}
	})

	t.Run("playing implies a current item", func(t *testing.T) {
		ctrl, _ := newTestController()
		ctrl.SetKnown([]models.Track{a, b})
		steps := []func(){
			func() { _ = ctrl.TogglePlayPause() },
			func() { _, _ = ctrl.Advance(ctx) },
			func() { _ = ctrl.Retreat() },
			func() { _ = ctrl.SelectItem(ctx, a, nil) },
			func() { _, _ = ctrl.Advance(ctx) },
			func() { _, _ = ctrl.Advance(ctx) },
			func() { _ = ctrl.TogglePlayPause() },
		}
		for i, step := range steps {
			step()
			if st := ctrl.State(); st.IsPlaying && st.Current == nil {
				t.Fatalf("step %d: playing with no current item", i)
			}
		}
	})
}
