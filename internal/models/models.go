package models

import (
	"fmt"
	"time"
)

// Model defines the base interface for all persistent models.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// DownloadSource names where a downloaded file's bytes came from.
type DownloadSource string

const (
	SourcePreview DownloadSource = "preview"
	SourceStream  DownloadSource = "stream"
)

// Download records a track file written to disk.
type Download struct {
	id        string
	TrackID   string
	Title     string
	Artist    string
	Path      string
	Source    DownloadSource
	createdAt time.Time
}

// NewDownload builds an unsaved [Download] for track written to path.
func NewDownload(track Track, path string, source DownloadSource) *Download {
	return &Download{
		TrackID:   track.ID,
		Title:     track.Title,
		Artist:    track.Artist.Name,
		Path:      path,
		Source:    source,
		createdAt: time.Now(),
	}
}

// RestoreDownload rebuilds a persisted [Download] from stored columns.
func RestoreDownload(id string, createdAt time.Time, d Download) *Download {
	d.id = id
	d.createdAt = createdAt
	return &d
}

func (d *Download) ID() string           { return d.id }
func (d *Download) SetID(id string)      { d.id = id }
func (d *Download) CreatedAt() time.Time { return d.createdAt }

func (d *Download) Validate() error {
	if d.TrackID == "" {
		return fmt.Errorf("download: track id is required")
	}
	if d.Path == "" {
		return fmt.Errorf("download: path is required")
	}
	switch d.Source {
	case SourcePreview, SourceStream:
	default:
		return fmt.Errorf("download: unknown source %q", d.Source)
	}
	return nil
}
