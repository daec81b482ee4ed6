package showtime

import (
	"time"

	"github.com/pdxscreens/marquee/app/config"
)

// Showing is one screening at a known theater, owned by its Movie. It
// references the theater by id only; theater records live in configuration.
type Showing struct {
	TheaterID  string
	StartTime  time.Time // timezone-aware, inside the requested window
	Auditorium string
}

// Movie is one deduplicated title with its screenings across all sources.
// Screenings is never empty: a movie only exists because a showing did.
type Movie struct {
	CanonicalTitle string
	NormalizedKey  string
	RuntimeMin     int
	PosterURL      string
	ExternalLink   string
	Screenings     []Showing
}

// SourceStatus records how one source fared in a run.
type SourceStatus struct {
	OK     bool
	Reason string
}

// AggregateResult is the pipeline's sole externally visible artifact,
// rebuilt in full on every run.
type AggregateResult struct {
	GeneratedAt  time.Time
	Movies       []Movie
	Theaters     []config.Theater
	SourceStatus map[string]SourceStatus
}
