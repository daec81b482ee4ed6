package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdxscreens/marquee/app/showtime"
)

const (
	ShowtimesFile = "showtimes.json"
	TheatersFile  = "theaters.json"
)

// Writer persists the aggregate result as the two JSON documents the static
// site renderer consumes. Both are regenerated whole every run; a run where
// every source failed still produces a valid empty-movies document.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

type showtimesDoc struct {
	GeneratedAt string     `json:"generated_at"`
	Movies      []movieDoc `json:"movies"`
}

type movieDoc struct {
	CanonicalTitle string         `json:"canonical_title"`
	NormalizedKey  string         `json:"normalized_key"`
	RuntimeMin     int            `json:"runtime,omitempty"`
	PosterURL      string         `json:"poster_url,omitempty"`
	ExternalLink   string         `json:"external_link,omitempty"`
	Screenings     []screeningDoc `json:"screenings"`
}

type screeningDoc struct {
	TheaterID  string `json:"theater_id"`
	StartTime  string `json:"start_time"`
	Auditorium string `json:"auditorium,omitempty"`
}

type theatersDoc struct {
	Theaters []theaterDoc `json:"theaters"`
}

type theaterDoc struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	Address string `json:"address"`
}

func (w *Writer) Run(result showtime.AggregateResult) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	movies := make([]movieDoc, 0, len(result.Movies))
	for _, movie := range result.Movies {
		screenings := make([]screeningDoc, 0, len(movie.Screenings))
		for _, s := range movie.Screenings {
			screenings = append(screenings, screeningDoc{
				TheaterID:  s.TheaterID,
				StartTime:  s.StartTime.Format(time.RFC3339),
				Auditorium: s.Auditorium,
			})
		}
		movies = append(movies, movieDoc{
			CanonicalTitle: movie.CanonicalTitle,
			NormalizedKey:  movie.NormalizedKey,
			RuntimeMin:     movie.RuntimeMin,
			PosterURL:      movie.PosterURL,
			ExternalLink:   movie.ExternalLink,
			Screenings:     screenings,
		})
	}

	err := w.writeJSON(ShowtimesFile, showtimesDoc{
		GeneratedAt: result.GeneratedAt.Format(time.RFC3339),
		Movies:      movies,
	})
	if err != nil {
		return err
	}

	theaters := make([]theaterDoc, 0, len(result.Theaters))
	for _, t := range result.Theaters {
		theaters = append(theaters, theaterDoc{
			ID:      t.ID,
			Name:    t.Name,
			URL:     t.URL,
			Address: t.Address,
		})
	}

	return w.writeJSON(TheatersFile, theatersDoc{Theaters: theaters})
}

// writeJSON writes atomically: a rename can't leave the renderer reading a
// half-written document.
func (w *Writer) writeJSON(name string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(w.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(w.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}

	return nil
}
