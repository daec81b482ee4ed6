package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdxscreens/marquee/app/config"
	"github.com/pdxscreens/marquee/app/showtime"
)

func testResult() showtime.AggregateResult {
	return showtime.AggregateResult{
		GeneratedAt: time.Date(2026, 8, 23, 6, 0, 0, 0, time.UTC),
		Movies: []showtime.Movie{
			{
				CanonicalTitle: "Oppenheimer",
				NormalizedKey:  "oppenheimer",
				RuntimeMin:     180,
				PosterURL:      "https://image.tmdb.org/t/p/w500/abc.jpg",
				ExternalLink:   "https://letterboxd.com/tmdb/872585/",
				Screenings: []showtime.Showing{
					{TheaterID: "hollywood", StartTime: time.Date(2026, 8, 23, 19, 0, 0, 0, time.UTC)},
					{TheaterID: "laurelhurst", StartTime: time.Date(2026, 8, 23, 21, 30, 0, 0, time.UTC), Auditorium: "2"},
				},
			},
		},
		Theaters: []config.Theater{
			{ID: "hollywood", Name: "Hollywood Theatre", URL: "https://hollywoodtheatre.org", Address: "4122 NE Sandy Blvd"},
		},
	}
}

func TestWriterProducesBothDocuments(t *testing.T) {
	dir := t.TempDir()
	if err := NewWriter(dir).Run(testResult()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ShowtimesFile))
	if err != nil {
		t.Fatalf("Failed to read showtimes document: %v", err)
	}

	var doc struct {
		GeneratedAt string `json:"generated_at"`
		Movies      []struct {
			CanonicalTitle string `json:"canonical_title"`
			NormalizedKey  string `json:"normalized_key"`
			Runtime        int    `json:"runtime"`
			Screenings     []struct {
				TheaterID  string `json:"theater_id"`
				StartTime  string `json:"start_time"`
				Auditorium string `json:"auditorium"`
			} `json:"screenings"`
		} `json:"movies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Showtimes document is not valid JSON: %v", err)
	}

	if doc.GeneratedAt != "2026-08-23T06:00:00Z" {
		t.Errorf("Expected RFC3339 generated_at, got: %q", doc.GeneratedAt)
	}
	if len(doc.Movies) != 1 || len(doc.Movies[0].Screenings) != 2 {
		t.Fatalf("Unexpected movie shape: %+v", doc.Movies)
	}
	if doc.Movies[0].Screenings[0].StartTime != "2026-08-23T19:00:00Z" {
		t.Errorf("Expected RFC3339 start time, got: %q", doc.Movies[0].Screenings[0].StartTime)
	}
	if doc.Movies[0].Screenings[1].Auditorium != "2" {
		t.Errorf("Expected auditorium to round-trip, got: %q", doc.Movies[0].Screenings[1].Auditorium)
	}

	data, err = os.ReadFile(filepath.Join(dir, TheatersFile))
	if err != nil {
		t.Fatalf("Failed to read theaters document: %v", err)
	}
	var theaters struct {
		Theaters []struct {
			ID      string `json:"id"`
			Address string `json:"address"`
		} `json:"theaters"`
	}
	if err := json.Unmarshal(data, &theaters); err != nil {
		t.Fatalf("Theaters document is not valid JSON: %v", err)
	}
	if len(theaters.Theaters) != 1 || theaters.Theaters[0].ID != "hollywood" {
		t.Errorf("Unexpected theaters document: %+v", theaters.Theaters)
	}
}

func TestWriterIsDeterministic(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	result := testResult()

	if err := NewWriter(first).Run(result); err != nil {
		t.Fatalf("First write failed: %v", err)
	}
	if err := NewWriter(second).Run(result); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	for _, name := range []string{ShowtimesFile, TheatersFile} {
		a, err := os.ReadFile(filepath.Join(first, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		b, err := os.ReadFile(filepath.Join(second, name))
		if err != nil {
			t.Fatalf("Failed to read %s: %v", name, err)
		}
		if !bytes.Equal(a, b) {
			t.Errorf("%s differs between identical runs", name)
		}
	}
}

func TestWriterEmptyRunStillValid(t *testing.T) {
	dir := t.TempDir()
	result := showtime.AggregateResult{GeneratedAt: time.Date(2026, 8, 23, 6, 0, 0, 0, time.UTC)}

	if err := NewWriter(dir).Run(result); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ShowtimesFile))
	if err != nil {
		t.Fatalf("Failed to read showtimes document: %v", err)
	}

	var doc struct {
		Movies []json.RawMessage `json:"movies"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Empty-run document is not valid JSON: %v", err)
	}
	if doc.Movies == nil {
		t.Error("Expected movies to be an empty array, not null")
	}
	if len(doc.Movies) != 0 {
		t.Errorf("Expected no movies, got: %d", len(doc.Movies))
	}
}

func TestWriterReplacesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, ShowtimesFile)
	if err := os.WriteFile(stale, []byte("stale"), 0o644); err != nil {
		t.Fatalf("Failed to seed stale file: %v", err)
	}

	if err := NewWriter(dir).Run(testResult()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(stale)
	if err != nil {
		t.Fatalf("Failed to read replaced file: %v", err)
	}
	if bytes.Contains(data, []byte("stale")) {
		t.Error("Expected the stale document to be replaced")
	}
}
