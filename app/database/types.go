package database

import "time"

// MovieMetadata is one resolved enrichment lookup, persisted across runs.
// Entries never expire; a film's metadata rarely changes, so invalidation
// is manual only.
type MovieMetadata struct {
	NormalizedKey string
	PosterURL     string
	ExternalLink  string
	TMDBID        int64
	ResolvedAt    time.Time
}
