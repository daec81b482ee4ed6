package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pdxscreens/marquee/app/config"
	"github.com/pdxscreens/marquee/app/scraper"
	"github.com/pdxscreens/marquee/app/showtime"
)

// Enricher augments merged movies with external metadata. Enrichment
// failures are the enricher's to absorb; it always returns one movie per
// input.
type Enricher interface {
	EnrichAll(ctx context.Context, movies []showtime.Movie) []showtime.Movie
}

// Runner drives every configured source over a date window and assembles
// the aggregate result. One source failing never aborts the run; the
// failure lands in the per-source status instead.
type Runner struct {
	registry      *scraper.Registry
	merger        *showtime.Merger
	enricher      Enricher
	loc           *time.Location
	workerCount   int
	sourceTimeout time.Duration
}

func NewRunner(registry *scraper.Registry, merger *showtime.Merger, enricher Enricher,
	loc *time.Location, workerCount int, sourceTimeout time.Duration) *Runner {
	return &Runner{
		registry:      registry,
		merger:        merger,
		enricher:      enricher,
		loc:           loc,
		workerCount:   workerCount,
		sourceTimeout: sourceTimeout,
	}
}

type sourceResult struct {
	theaterID string
	entries   []showtime.Entry
	dropped   int
	err       error
}

// Run executes one full aggregation pass. The caller bounds total wall
// clock time through ctx; sources still pending at the deadline surface as
// failed with a timeout reason.
func (r *Runner) Run(ctx context.Context, theaters []config.Theater, start time.Time, numDays int) showtime.AggregateResult {
	normalizer := showtime.NewNormalizer(r.loc, start, numDays)

	jobs := make(chan config.Theater)
	results := make(chan sourceResult)

	var wg sync.WaitGroup
	for w := 0; w < r.workerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for theater := range jobs {
				results <- r.scrapeSource(ctx, normalizer, theater, start, numDays)
			}
		}()
	}

	go func() {
		for _, theater := range theaters {
			jobs <- theater
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	status := make(map[string]showtime.SourceStatus, len(theaters))
	var entries []showtime.Entry
	for result := range results {
		if result.err != nil {
			status[result.theaterID] = showtime.SourceStatus{OK: false, Reason: reason(ctx, result.err)}
			continue
		}
		status[result.theaterID] = showtime.SourceStatus{OK: true}
		entries = append(entries, result.entries...)
	}

	movies := r.merger.Merge(entries)
	if r.enricher != nil {
		movies = r.enricher.EnrichAll(ctx, movies)
	}

	return showtime.AggregateResult{
		GeneratedAt:  time.Now().In(r.loc),
		Movies:       movies,
		Theaters:     theaters,
		SourceStatus: status,
	}
}

func (r *Runner) scrapeSource(ctx context.Context, normalizer *showtime.Normalizer,
	theater config.Theater, start time.Time, numDays int) sourceResult {
	result := sourceResult{theaterID: theater.ID}
	began := time.Now()

	adapter, err := r.registry.Resolve(theater)
	if err != nil {
		slog.Error("No adapter for configured theater", "source", theater.ID, "error", err)
		result.err = err
		return result
	}

	srcCtx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
	defer cancel()

	raws, err := adapter.FetchShowings(srcCtx, start, numDays)
	if err != nil {
		slog.Error("Source failed", "source", theater.ID, "duration", time.Since(began), "error", err)
		result.err = err
		return result
	}

	for _, raw := range raws {
		showing, rawTitle, err := normalizer.Run(raw, theater)
		if err != nil {
			// Data-quality signal, not a source failure: drop the single
			// showing and keep the batch.
			slog.Warn("Dropped malformed showing", "source", theater.ID, "title", raw.RawTitle, "error", err)
			result.dropped++
			continue
		}
		result.entries = append(result.entries, showtime.Entry{
			Showing:    showing,
			RawTitle:   rawTitle,
			RuntimeMin: raw.RuntimeMin,
		})
	}

	slog.Info("Source scraped",
		"source", theater.ID,
		"duration", time.Since(began),
		"showings", len(result.entries),
		"dropped", result.dropped)

	return result
}

// reason folds run-deadline expiry into a stable status string so the
// external trigger can tell a slow source from a broken one.
func reason(ctx context.Context, err error) string {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return "timeout: " + err.Error()
	}
	return err.Error()
}
