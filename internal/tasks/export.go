package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/spotunisia/internal/formatter"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/normalize"
	"golang.org/x/time/rate"
)

// ExportOpts contains configuration for playlist exports.
type ExportOpts struct {
	Format     string            // Export format: json, csv, markdown, txt
	OutputDir  string            // Base output directory (default: spotunisia_export_{epoch})
	NumWorkers int               // Concurrent file writers (default: 5, max 10)
	RateLimit  float64           // Catalog requests per second (default: 5)
	Fetcher    formatter.Fetcher // Cover image downloader for markdown, optional
}

type exportJob struct {
	export *models.PlaylistExport
}

// Export fetches each playlist's tracks and writes them in opts.Format.
//
// Catalog requests are rate limited and made one at a time; file writing fans out to a worker pool.
// Failed playlists are recorded in the result and do not stop the run. A manifest is written last.
func (l *Loader) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	playlists []models.Playlist,
	opts ExportOpts,
) (*formatter.BulkExportResult, error) {
	if err := l.authorize(ctx); err != nil {
		return nil, err
	}

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotunisia_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	opts.NumWorkers = min(opts.NumWorkers, 10)
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &formatter.BulkExportResult{
		TotalPlaylists:  len(playlists),
		OutputDirectory: opts.OutputDir,
		Results:         make([]formatter.PlaylistExportResult, 0, len(playlists)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(playlists))
	results := make(chan formatter.PlaylistExportResult, len(playlists))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go l.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, pl := range playlists {
			if ctx.Err() != nil {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			raw, err := l.catalog.PlaylistTracks(ctx, pl.ID, PlaylistPageSize)
			if err != nil {
				results <- formatter.PlaylistExportResult{
					PlaylistID:   pl.ID,
					PlaylistName: pl.Name,
					Error:        fmt.Errorf("failed to fetch playlist: %w", l.check(ctx, err)),
				}
				continue
			}

			jobs <- exportJob{export: &models.PlaylistExport{Playlist: pl, Tracks: normalize.PlaylistTracks(raw)}}
			sendProgress(prog, exportingPlaylistUpdate(i+1, len(playlists), pl.Name))
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, len(playlists), res.PlaylistName, len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, len(playlists), res.PlaylistName, res.Error))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteBulkExportManifest(result, opts.Format, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, ctx.Err()
}

// exportWorker writes playlists from the jobs channel.
func (l *Loader) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- formatter.PlaylistExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		results <- writeExport(ctx, job.export, opts)
	}
}

// writeExport writes a single playlist in the requested format.
func writeExport(ctx context.Context, export *models.PlaylistExport, opts ExportOpts) formatter.PlaylistExportResult {
	result := formatter.PlaylistExportResult{
		PlaylistID:   export.Playlist.ID,
		PlaylistName: export.Playlist.Name,
		Files:        []string{},
	}

	switch opts.Format {
	case "csv":
		csvRes, err := formatter.WriteCSVExport(export, filepath.Join(opts.OutputDir, export.Playlist.ID))
		if err != nil {
			result.Error = fmt.Errorf("CSV export failed: %w", err)
			return result
		}
		result.Files = []string{csvRes.TracksFile, csvRes.MetadataFile}

	case "markdown":
		mdRes, err := formatter.WriteMarkdownExport(ctx, export, filepath.Join(opts.OutputDir, export.Playlist.ID), opts.Fetcher)
		if err != nil {
			result.Error = fmt.Errorf("markdown export failed: %w", err)
			return result
		}
		result.Files = mdRes.Files

	case "txt":
		path, err := formatter.WriteTextExport(export, filepath.Join(opts.OutputDir, export.Playlist.ID+"_tracks.txt"))
		if err != nil {
			result.Error = fmt.Errorf("text export failed: %w", err)
			return result
		}
		result.Files = []string{path}

	default:
		path, err := formatter.WriteJSONExport(export, filepath.Join(opts.OutputDir, export.Playlist.ID+".json"))
		if err != nil {
			result.Error = err
			return result
		}
		result.Files = []string{path}
	}

	result.Success = true
	return result
}
