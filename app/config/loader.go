package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the theater directory
type Loader struct {
	path string
}

// NewLoader creates a new theater directory loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the YAML theater directory and validates every entry.
// A malformed entry fails the whole load; configuration errors are the
// only fatal errors in the pipeline, so they must surface before any
// network activity.
func (l *Loader) Load() ([]Theater, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read theater directory: %w", err)
	}

	var dir directory
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(dir.Theaters) == 0 {
		return nil, fmt.Errorf("theater directory %s contains no theaters", l.path)
	}

	seen := make(map[string]bool, len(dir.Theaters))
	for i, theater := range dir.Theaters {
		if err := l.validate(theater); err != nil {
			return nil, fmt.Errorf("invalid theater at index %d: %w", i, err)
		}
		if seen[theater.ID] {
			return nil, fmt.Errorf("duplicate theater id %q", theater.ID)
		}
		seen[theater.ID] = true
	}

	return dir.Theaters, nil
}

func (l *Loader) validate(theater Theater) error {
	if theater.ID == "" {
		return fmt.Errorf("theater id is required")
	}
	if theater.Name == "" {
		return fmt.Errorf("theater name is required")
	}
	if theater.URL == "" {
		return fmt.Errorf("theater URL is required")
	}

	switch theater.AdapterType {
	case AdapterStatic, AdapterDynamic, AdapterFeed:
	default:
		return fmt.Errorf("unknown adapter type %q for theater %q", theater.AdapterType, theater.ID)
	}

	return nil
}
