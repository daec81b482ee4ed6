package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pdxscreens/marquee/app/database"
	"github.com/pdxscreens/marquee/app/showtime"
	"golang.org/x/time/rate"
)

// ErrNoMatch means the provider answered but knows no such film.
var ErrNoMatch = errors.New("no match")

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	posterBaseURL  = "https://image.tmdb.org/t/p/w500"
)

type Options struct {
	APIKey  string
	Rate    float64 // requests per second, shared across all lookups
	Burst   int
	Timeout time.Duration // per-lookup abort threshold
	Workers int
	BaseURL string // provider endpoint, overridable in tests
}

// Client looks up movie metadata (poster, external film-database link)
// against TMDB. Lookups never fail the pipeline: every error path hands the
// movie back unmodified.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	cache   database.MetadataRepository // nil degrades to uncached lookups
	apiKey  string
	timeout time.Duration
	workers int
}

func NewClient(opts Options, cache database.MetadataRepository) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Burst < 1 {
		opts.Burst = 1
	}

	return &Client{
		http:    resty.New().SetBaseURL(baseURL).SetTimeout(opts.Timeout),
		limiter: rate.NewLimiter(rate.Limit(opts.Rate), opts.Burst),
		cache:   cache,
		apiKey:  opts.APIKey,
		timeout: opts.Timeout,
		workers: opts.Workers,
	}
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

// EnrichAll resolves poster/link metadata for every movie, concurrently but
// under one shared rate limiter. It always returns exactly one movie per
// input, in input order.
func (c *Client) EnrichAll(ctx context.Context, movies []showtime.Movie) []showtime.Movie {
	results := make([]showtime.Movie, len(movies))
	indexes := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = c.enrich(ctx, movies[i])
			}
		}()
	}

	for i := range movies {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

func (c *Client) enrich(ctx context.Context, movie showtime.Movie) showtime.Movie {
	if cached := c.lookupCache(movie.NormalizedKey); cached != nil {
		movie.PosterURL = cached.PosterURL
		movie.ExternalLink = cached.ExternalLink
		return movie
	}

	if c.apiKey == "" {
		return movie
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// Shed rather than block: a lookup that cannot get a token before its
	// deadline is skipped so the run finishes with partial enrichment.
	if err := c.limiter.Wait(callCtx); err != nil {
		slog.Warn("Enrichment request shed", "title", movie.CanonicalTitle, "error", err)
		return movie
	}

	match, err := c.search(callCtx, movie.CanonicalTitle)
	if err != nil {
		if errors.Is(err, ErrNoMatch) {
			slog.Debug("No enrichment match", "title", movie.CanonicalTitle)
		} else {
			slog.Warn("Enrichment lookup failed", "title", movie.CanonicalTitle, "error", err)
		}
		return movie
	}

	if match.PosterPath != "" {
		movie.PosterURL = posterBaseURL + match.PosterPath
	}
	movie.ExternalLink = letterboxdURL(movie.CanonicalTitle, match.ID)

	c.storeCache(database.MovieMetadata{
		NormalizedKey: movie.NormalizedKey,
		PosterURL:     movie.PosterURL,
		ExternalLink:  movie.ExternalLink,
		TMDBID:        match.ID,
	})

	return movie
}

func (c *Client) search(ctx context.Context, title string) (*searchResult, error) {
	var out searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  c.apiKey,
			"query":    title,
			"language": "en-US",
			"page":     "1",
		}).
		SetResult(&out).
		Get("/search/movie")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	if len(out.Results) == 0 {
		return nil, ErrNoMatch
	}

	// First result wins; TMDB orders by relevance.
	return &out.Results[0], nil
}

func (c *Client) lookupCache(normalizedKey string) *database.MovieMetadata {
	if c.cache == nil {
		return nil
	}
	metadata, err := c.cache.Get(normalizedKey)
	if err != nil {
		slog.Warn("Metadata cache read failed", "key", normalizedKey, "error", err)
		return nil
	}
	return metadata
}

func (c *Client) storeCache(metadata database.MovieMetadata) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Upsert(metadata); err != nil {
		slog.Warn("Metadata cache write failed", "key", metadata.NormalizedKey, "error", err)
	}
}

var (
	slugStripPattern = regexp.MustCompile(`[^\w\s-]`)
	slugDashPattern  = regexp.MustCompile(`[-\s]+`)
)

func letterboxdURL(title string, tmdbID int64) string {
	if tmdbID > 0 {
		return fmt.Sprintf("https://letterboxd.com/tmdb/%d/", tmdbID)
	}
	slug := slugStripPattern.ReplaceAllString(strings.ToLower(title), "")
	slug = strings.Trim(slugDashPattern.ReplaceAllString(slug, "-"), "-")
	return fmt.Sprintf("https://letterboxd.com/film/%s/", slug)
}
