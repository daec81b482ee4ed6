package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Input/output paths
	TheatersFile string `long:"theaters" env:"THEATERS_FILE" default:"./theaters.yml" description:"YAML file with the theater directory"`
	OutputDir    string `long:"output-dir" env:"OUTPUT_DIR" default:"./docs/data" description:"Directory for showtimes.json and theaters.json"`
	CacheDBPath  string `long:"cache-db" env:"CACHE_DB" default:"./marquee.db" description:"SQLite database for the enrichment metadata cache"`

	// Date window
	StartDate string `long:"start-date" env:"START_DATE" description:"First day of the window (YYYY-MM-DD, defaults to today in the configured timezone)"`
	NumDays   int    `long:"num-days" env:"NUM_DAYS" default:"7" description:"Number of days to aggregate"`

	// Run behavior
	WorkerCount   int  `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of concurrent source scrapers"`
	RunTimeout    int  `long:"run-timeout" env:"RUN_TIMEOUT" default:"600" description:"Hard deadline for the whole run in seconds"`
	SourceTimeout int  `long:"source-timeout" env:"SOURCE_TIMEOUT" default:"90" description:"Per-source fetch timeout in seconds"`
	Paused        bool `long:"paused" env:"PAUSED" description:"Skip the run entirely (exit 0 without scraping)"`
	Force         bool `long:"force" description:"Run even when paused"`

	// Enrichment (TMDB)
	TMDBAPIKey    string  `long:"tmdb-api-key" env:"TMDB_API_KEY" description:"TMDB API key (enrichment is skipped when unset)"`
	TMDBRate      float64 `long:"tmdb-rate" env:"TMDB_RATE" default:"4" description:"TMDB requests per second across all lookups"`
	TMDBBurst     int     `long:"tmdb-burst" env:"TMDB_BURST" default:"4" description:"TMDB rate limiter burst size"`
	TMDBTimeoutMs int     `long:"tmdb-timeout-ms" env:"TMDB_TIMEOUT_MS" default:"10000" description:"Per-lookup abort threshold in milliseconds"`

	// Application metadata
	Timezone string `long:"timezone" env:"TZ" default:"America/Los_Angeles" description:"Timezone all theaters are local to"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		TheatersFile:  raw.TheatersFile,
		OutputDir:     raw.OutputDir,
		CacheDBPath:   raw.CacheDBPath,
		StartDate:     raw.StartDate,
		NumDays:       raw.NumDays,
		WorkerCount:   raw.WorkerCount,
		RunTimeout:    raw.RunTimeout,
		SourceTimeout: raw.SourceTimeout,
		Paused:        raw.Paused,
		Force:         raw.Force,
		TMDBAPIKey:    raw.TMDBAPIKey,
		TMDBRate:      raw.TMDBRate,
		TMDBBurst:     raw.TMDBBurst,
		TMDBTimeoutMs: raw.TMDBTimeoutMs,
		Timezone:      raw.Timezone,
		Debug:         raw.Debug,
		Version:       GetVersion(),
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	cfg.Location = loc

	if cfg.NumDays < 1 {
		return nil, fmt.Errorf("num-days must be at least 1, got %d", cfg.NumDays)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("worker-count must be at least 1, got %d", cfg.WorkerCount)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// StartOfWindow resolves the configured start date to midnight in the
// configured timezone. An empty start date means today.
func (c *Cfg) StartOfWindow() (time.Time, error) {
	if c.StartDate == "" {
		now := time.Now().In(c.Location)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location), nil
	}
	t, err := time.ParseInLocation("2006-01-02", c.StartDate, c.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start-date %q: %w", c.StartDate, err)
	}
	return t, nil
}
