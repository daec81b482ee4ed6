package cfg

import "time"

type Cfg struct {
	// Input/output paths
	TheatersFile string
	OutputDir    string
	CacheDBPath  string

	// Date window
	StartDate string
	NumDays   int

	// Run behavior
	WorkerCount   int
	RunTimeout    int // seconds
	SourceTimeout int // seconds
	Paused        bool
	Force         bool

	// Enrichment (TMDB)
	TMDBAPIKey    string
	TMDBRate      float64
	TMDBBurst     int
	TMDBTimeoutMs int

	// Application metadata
	Timezone string
	Location *time.Location
	Debug    bool
	Version  string
}
