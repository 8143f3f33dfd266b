package fallback

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/shared"
)

// History records finished downloads.
type History interface {
	Create(d *models.Download) error
}

// Filename is the sanitized "Artist - Title.mp3" name for track.
func Filename(track models.Track) string {
	return shared.SanitizeFilename(fmt.Sprintf("%s - %s.mp3", track.Artist.Name, track.Title))
}

// Downloader writes track audio to disk.
type Downloader struct {
	resolver *Resolver
	history  History
}

// NewDownloader creates a downloader. history may be nil.
func NewDownloader(resolver *Resolver, history History) *Downloader {
	return &Downloader{resolver: resolver, history: history}
}

// Download writes the audio for track into dir and returns the file path.
//
// The catalog preview is used when present, otherwise a resolved stream. A page-only
// resolution, or a resolved stream that cannot be fetched, opens the page and writes nothing;
// the returned path is then empty and the error is nil.
func (d *Downloader) Download(ctx context.Context, track models.Track, dir string) (string, Resolution, error) {
	source := models.SourcePreview
	res := Resolution{URL: track.PreviewURL, Kind: KindStream, Notice: NoticeResolved}

	if track.PreviewURL == "" {
		res = d.resolver.Resolve(ctx, track)
		source = models.SourceStream
		switch res.Kind {
		case KindPage:
			return "", res, nil
		case KindNone:
			return "", res, &Error{Resolution: res}
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", res, fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(dir, Filename(track))
	if err := d.write(ctx, res.URL, path); err != nil {
		d.resolver.logger.Warn("download failed", "id", track.ID, "url", res.URL, "error", err)
		if source == models.SourceStream && res.VideoID != "" {
			page := Resolution{URL: d.resolver.WatchURL(res.VideoID), Kind: KindPage, VideoID: res.VideoID, Notice: NoticeStreamMiss}
			d.resolver.openPage(&page)
			return "", page, nil
		}
		return "", res, err
	}

	if d.history != nil {
		if err := d.history.Create(models.NewDownload(track, path, source)); err != nil {
			d.resolver.logger.Warn("failed to record download", "path", path, "error", err)
		}
	}

	d.resolver.logger.Info("downloaded track", "id", track.ID, "path", path, "source", source)
	return path, res, nil
}

// write streams url into a temporary file next to path and renames it into place.
func (d *Downloader) write(ctx context.Context, url, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := d.resolver.api.Fetch(ctx, url, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}
