package config

// Adapter strategies a theater entry may declare. The scraper registry
// decides the concrete implementation per theater id; the type is validated
// here so a typo fails before any network activity.
const (
	AdapterStatic  = "static"
	AdapterDynamic = "dynamic"
	AdapterFeed    = "feed"
)

// Theater is static reference data owned by configuration. The pipeline
// reads it, never mutates it; showings reference theaters by id only.
type Theater struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	URL         string `yaml:"url"`
	Address     string `yaml:"address"`
	AdapterType string `yaml:"adapter_type"`
}

type directory struct {
	Theaters []Theater `yaml:"theaters"`
}
