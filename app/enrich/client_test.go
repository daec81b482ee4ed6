package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdxscreens/marquee/app/database"
	"github.com/pdxscreens/marquee/app/showtime"
)

type memoryRepository struct {
	mu      sync.Mutex
	entries map[string]database.MovieMetadata
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{entries: make(map[string]database.MovieMetadata)}
}

func (r *memoryRepository) Get(normalizedKey string) (*database.MovieMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if metadata, ok := r.entries[normalizedKey]; ok {
		return &metadata, nil
	}
	return nil, nil
}

func (r *memoryRepository) Upsert(metadata database.MovieMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[metadata.NormalizedKey] = metadata
	return nil
}

func (r *memoryRepository) Invalidate(normalizedKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, normalizedKey)
	return nil
}

func (r *memoryRepository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]database.MovieMetadata)
	return nil
}

func testOptions(baseURL string) Options {
	return Options{
		APIKey:  "test-key",
		Rate:    1000,
		Burst:   10,
		Timeout: 2 * time.Second,
		Workers: 2,
		BaseURL: baseURL,
	}
}

func searchServer(t *testing.T, requests *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/search/movie" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("Expected api_key to be sent, got query: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestEnrichAllResolvesMetadata(t *testing.T) {
	var requests atomic.Int64
	server := searchServer(t, &requests,
		`{"results":[{"id":872585,"title":"Oppenheimer","poster_path":"/abc.jpg"}]}`)

	cache := newMemoryRepository()
	client := NewClient(testOptions(server.URL), cache)

	movies := client.EnrichAll(context.Background(), []showtime.Movie{
		{CanonicalTitle: "Oppenheimer", NormalizedKey: "oppenheimer"},
	})

	if len(movies) != 1 {
		t.Fatalf("Expected 1 movie, got: %d", len(movies))
	}
	if movies[0].PosterURL != "https://image.tmdb.org/t/p/w500/abc.jpg" {
		t.Errorf("Expected poster URL, got: %q", movies[0].PosterURL)
	}
	if movies[0].ExternalLink != "https://letterboxd.com/tmdb/872585/" {
		t.Errorf("Expected letterboxd link, got: %q", movies[0].ExternalLink)
	}

	cached, err := cache.Get("oppenheimer")
	if err != nil || cached == nil {
		t.Fatalf("Expected the result to be cached, got: %v, %v", cached, err)
	}
	if cached.TMDBID != 872585 {
		t.Errorf("Expected cached TMDB id 872585, got: %d", cached.TMDBID)
	}
}

func TestEnrichAllUsesCacheWithoutNetwork(t *testing.T) {
	var requests atomic.Int64
	server := searchServer(t, &requests, `{"results":[]}`)

	cache := newMemoryRepository()
	cache.Upsert(database.MovieMetadata{
		NormalizedKey: "oppenheimer",
		PosterURL:     "https://image.tmdb.org/t/p/w500/cached.jpg",
		ExternalLink:  "https://letterboxd.com/tmdb/872585/",
	})

	client := NewClient(testOptions(server.URL), cache)
	movies := client.EnrichAll(context.Background(), []showtime.Movie{
		{CanonicalTitle: "Oppenheimer", NormalizedKey: "oppenheimer"},
	})

	if requests.Load() != 0 {
		t.Errorf("Expected zero provider requests on cache hit, got: %d", requests.Load())
	}
	if movies[0].PosterURL != "https://image.tmdb.org/t/p/w500/cached.jpg" {
		t.Errorf("Expected cached poster, got: %q", movies[0].PosterURL)
	}
}

func TestEnrichAllNoMatchLeavesMovieUntouched(t *testing.T) {
	var requests atomic.Int64
	server := searchServer(t, &requests, `{"results":[]}`)

	cache := newMemoryRepository()
	client := NewClient(testOptions(server.URL), cache)

	movies := client.EnrichAll(context.Background(), []showtime.Movie{
		{CanonicalTitle: "Totally Obscure Short", NormalizedKey: "totally obscure short"},
	})

	if movies[0].PosterURL != "" || movies[0].ExternalLink != "" {
		t.Errorf("Expected no metadata on miss, got: %+v", movies[0])
	}

	// Misses are not cached; a later release with the same title should get
	// a fresh lookup.
	if cached, _ := cache.Get("totally obscure short"); cached != nil {
		t.Errorf("Expected miss to stay uncached, got: %+v", cached)
	}
}

func TestEnrichAllSurvivesProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client := NewClient(testOptions(server.URL), nil)
	input := []showtime.Movie{
		{CanonicalTitle: "Alien", NormalizedKey: "alien"},
		{CanonicalTitle: "Dune", NormalizedKey: "dune"},
	}

	movies := client.EnrichAll(context.Background(), input)

	if len(movies) != len(input) {
		t.Fatalf("Expected one output per input, got: %d", len(movies))
	}
	for i, movie := range movies {
		if movie.NormalizedKey != input[i].NormalizedKey {
			t.Errorf("Movie %d: expected key %q, got: %q", i, input[i].NormalizedKey, movie.NormalizedKey)
		}
		if movie.PosterURL != "" {
			t.Errorf("Movie %d: expected no poster on provider error, got: %q", i, movie.PosterURL)
		}
	}
}

func TestEnrichAllShedsWhenRateExhausted(t *testing.T) {
	var requests atomic.Int64
	server := searchServer(t, &requests,
		`{"results":[{"id":1,"title":"Alien","poster_path":"/a.jpg"}]}`)

	opts := testOptions(server.URL)
	opts.Rate = 0.001 // a token every ~17 minutes
	opts.Burst = 1
	opts.Timeout = 50 * time.Millisecond

	client := NewClient(opts, nil)
	movies := client.EnrichAll(context.Background(), []showtime.Movie{
		{CanonicalTitle: "Alien", NormalizedKey: "alien"},
		{CanonicalTitle: "Dune", NormalizedKey: "dune"},
	})

	// The single burst token serves one lookup; the other sheds before its
	// deadline instead of stalling the run.
	if requests.Load() > 1 {
		t.Errorf("Expected at most 1 provider request, got: %d", requests.Load())
	}
	if len(movies) != 2 {
		t.Fatalf("Expected 2 movies back, got: %d", len(movies))
	}
}

func TestEnrichAllWithoutAPIKey(t *testing.T) {
	var requests atomic.Int64
	server := searchServer(t, &requests, `{"results":[]}`)

	opts := testOptions(server.URL)
	opts.APIKey = ""

	client := NewClient(opts, nil)
	movies := client.EnrichAll(context.Background(), []showtime.Movie{
		{CanonicalTitle: "Alien", NormalizedKey: "alien"},
	})

	if requests.Load() != 0 {
		t.Errorf("Expected no provider requests without an API key, got: %d", requests.Load())
	}
	if len(movies) != 1 {
		t.Fatalf("Expected 1 movie back, got: %d", len(movies))
	}
}

func TestLetterboxdURL(t *testing.T) {
	if got := letterboxdURL("Oppenheimer", 872585); got != "https://letterboxd.com/tmdb/872585/" {
		t.Errorf("Expected tmdb-id link, got: %q", got)
	}
	if got := letterboxdURL("Dune: Part Two", 0); got != "https://letterboxd.com/film/dune-part-two/" {
		t.Errorf("Expected slug link, got: %q", got)
	}
}
