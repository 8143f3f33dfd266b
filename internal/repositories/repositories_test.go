package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestKVRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Get missing key", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		_, ok, err := repo.Get(ctx, "spotify_token")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected missing key")
		}
	})

	t.Run("Set then Get", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		if err := repo.Set(ctx, "spotify_token", "abc"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, ok, err := repo.Get(ctx, "spotify_token")
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if got != "abc" {
			t.Errorf("expected abc, got %s", got)
		}
	})

	t.Run("Set overwrites", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		_ = repo.Set(ctx, "k", "one")
		if err := repo.Set(ctx, "k", "two"); err != nil {
			t.Fatalf("second Set failed: %v", err)
		}
		got, _, _ := repo.Get(ctx, "k")
		if got != "two" {
			t.Errorf("expected two, got %s", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewKVRepository(setupTestDB(t))

		_ = repo.Set(ctx, "a", "1")
		_ = repo.Set(ctx, "b", "2")
		if err := repo.Delete(ctx, "a", "b", "never-set"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		for _, key := range []string{"a", "b"} {
			if _, ok, _ := repo.Get(ctx, key); ok {
				t.Errorf("key %s should be gone", key)
			}
		}
	})
}

func TestDownloadRepository(t *testing.T) {
	track := models.Track{ID: "t1", Title: "Song", Artist: models.Artist{Name: "Band"}}

	t.Run("Create and Get", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		d := models.NewDownload(track, "/tmp/Band - Song.mp3", models.SourcePreview)

		if err := repo.Create(d); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if d.ID() == "" {
			t.Fatal("ID should be set after creation")
		}

		got, err := repo.Get(d.ID())
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.TrackID != "t1" || got.Source != models.SourcePreview {
			t.Errorf("unexpected download %+v", got)
		}
	})

	t.Run("Create validation error", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if err := repo.Create(models.NewDownload(track, "", models.SourcePreview)); err == nil {
			t.Fatal("expected validation error")
		}
	})

	t.Run("Get not found", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List filters by track", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		other := models.Track{ID: "t2", Title: "Other", Artist: models.Artist{Name: "Band"}}

		for _, d := range []*models.Download{
			models.NewDownload(track, "/a.mp3", models.SourcePreview),
			models.NewDownload(other, "/b.mp3", models.SourceStream),
			models.NewDownload(track, "/c.mp3", models.SourceStream),
		} {
			if err := repo.Create(d); err != nil {
				t.Fatalf("Create failed: %v", err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 3 {
			t.Errorf("expected 3 downloads, got %d", len(all))
		}

		filtered, err := repo.List(map[string]any{"track_id": "t1"})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(filtered) != 2 {
			t.Errorf("expected 2 downloads for t1, got %d", len(filtered))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewDownloadRepository(setupTestDB(t))
		d := models.NewDownload(track, "/a.mp3", models.SourcePreview)
		_ = repo.Create(d)

		if err := repo.Delete(d.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := repo.Delete(d.ID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete should be ErrNotFound, got %v", err)
		}
	})
}
