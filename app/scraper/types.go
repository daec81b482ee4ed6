package scraper

import (
	"context"
	"errors"
	"time"
)

// ErrSourceUnavailable wraps any network, timeout or markup failure that
// makes a whole source unusable for this run. The orchestrator recovers it
// per source; it never aborts the run.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrUnknownSource is returned by the registry when a configured theater id
// has no adapter. Only that theater's entry is affected.
var ErrUnknownSource = errors.New("unknown source")

// RawShowing is one screening as a source reported it, before any
// normalization. It is ephemeral: the normalizer consumes it immediately.
type RawShowing struct {
	SourceID    string
	RawTitle    string
	RawDatetime string // site-specific format, resolved by the normalizer
	Screen      string
	RawURL      string
	RuntimeMin  int // 0 when the source does not report it
}

// Adapter fetches raw showings from one theater's website for a date
// window. Implementations share the fetch/browser helpers in this package
// plus a small per-theater extraction function; they hold no mutable state
// shared with other adapters.
type Adapter interface {
	FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error)
}
