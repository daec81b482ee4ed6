package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ MetadataRepository = (*SQLMetadataRepository)(nil)

// SQLMetadataRepository is the SQLite-backed metadata cache.
type SQLMetadataRepository struct {
	db *DB
}

func NewMetadataRepository(db *DB) *SQLMetadataRepository {
	return &SQLMetadataRepository{db: db}
}

func (r *SQLMetadataRepository) Get(normalizedKey string) (*MovieMetadata, error) {
	var metadata MovieMetadata
	var tmdbID sql.NullInt64

	err := r.db.QueryRow(`
		SELECT normalized_key, poster_url, external_link, tmdb_id, resolved_at
		FROM movie_metadata
		WHERE normalized_key = ?
	`, normalizedKey).Scan(
		&metadata.NormalizedKey, &metadata.PosterURL,
		&metadata.ExternalLink, &tmdbID, &metadata.ResolvedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata for %q: %w", normalizedKey, err)
	}

	metadata.TMDBID = tmdbID.Int64
	return &metadata, nil
}

func (r *SQLMetadataRepository) Upsert(metadata MovieMetadata) error {
	resolvedAt := metadata.ResolvedAt
	if resolvedAt.IsZero() {
		resolvedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO movie_metadata (normalized_key, poster_url, external_link, tmdb_id, resolved_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(normalized_key) DO UPDATE SET
			poster_url = excluded.poster_url,
			external_link = excluded.external_link,
			tmdb_id = excluded.tmdb_id,
			resolved_at = excluded.resolved_at
	`, metadata.NormalizedKey, metadata.PosterURL, metadata.ExternalLink, metadata.TMDBID, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert metadata for %q: %w", metadata.NormalizedKey, err)
	}

	return nil
}

func (r *SQLMetadataRepository) Invalidate(normalizedKey string) error {
	_, err := r.db.Exec(`DELETE FROM movie_metadata WHERE normalized_key = ?`, normalizedKey)
	if err != nil {
		return fmt.Errorf("failed to invalidate metadata for %q: %w", normalizedKey, err)
	}
	return nil
}

func (r *SQLMetadataRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM movie_metadata`)
	if err != nil {
		return fmt.Errorf("failed to clear metadata cache: %w", err)
	}
	return nil
}
