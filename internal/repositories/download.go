package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/shared"
)

// DownloadRepository implements models.Repository[*models.Download].
type DownloadRepository struct {
	db *sql.DB
}

// NewDownloadRepository creates a new DownloadRepository with the given database connection
func NewDownloadRepository(db *sql.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// Create inserts d with a generated ID.
func (r *DownloadRepository) Create(d *models.Download) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO downloads (id, track_id, title, artist, path, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, id, d.TrackID, d.Title, d.Artist, d.Path, string(d.Source), d.CreatedAt()); err != nil {
		return fmt.Errorf("failed to insert download: %w", err)
	}

	d.SetID(id)
	return nil
}

// Get retrieves a download by ID.
func (r *DownloadRepository) Get(id string) (*models.Download, error) {
	query := `
		SELECT id, track_id, title, artist, path, source, created_at
		FROM downloads
		WHERE id = ?
	`
	d, err := scanDownload(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("download %s: %w", id, ErrNotFound)
	}
	return d, err
}

// Delete removes a download record. The file on disk is left alone.
func (r *DownloadRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM downloads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}
	return checkAffected(result, "download", id)
}

// List returns downloads newest first, optionally filtered by "track_id".
func (r *DownloadRepository) List(criteria map[string]any) ([]*models.Download, error) {
	query := `
		SELECT id, track_id, title, artist, path, source, created_at
		FROM downloads
		WHERE 1 = 1
	`
	args := []any{}

	if trackID, ok := criteria["track_id"].(string); ok && trackID != "" {
		query += " AND track_id = ?"
		args = append(args, trackID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var downloads []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, err
		}
		downloads = append(downloads, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return downloads, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDownload(s scanner) (*models.Download, error) {
	var (
		id        string
		source    string
		createdAt time.Time
		d         models.Download
	)
	if err := s.Scan(&id, &d.TrackID, &d.Title, &d.Artist, &d.Path, &source, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan download: %w", err)
	}
	d.Source = models.DownloadSource(source)
	return models.RestoreDownload(id, createdAt, d), nil
}

var _ models.Repository[*models.Download] = (*DownloadRepository)(nil)
