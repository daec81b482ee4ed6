package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/pdxscreens/marquee/app/config"
)

// The Laurelhurst website embeds a JavaScript variable `gbl_movies`
// containing structured showtime data keyed by film code. No rendering
// needed, the blob sits in the page source.
var gblMoviesPattern = regexp.MustCompile(`(?s)var\s+gbl_movies\s*=\s*(\{.*?\});`)

type Laurelhurst struct {
	theater config.Theater
	http    *fetcher
}

func NewLaurelhurst(theater config.Theater) *Laurelhurst {
	return &Laurelhurst{theater: theater, http: newFetcher()}
}

type laurelhurstFilm struct {
	Title     string                       `json:"title"`
	LengthMin int                          `json:"lengthMin"`
	Schedule  map[string][]laurelhurstShow `json:"schedule"` // keyed by YYYYMMDD
}

type laurelhurstShow struct {
	TimeStr string `json:"timeStr"`
	Screen  string `json:"screen"`
}

func (s *Laurelhurst) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
	body, err := s.http.get(ctx, s.theater.URL)
	if err != nil {
		return nil, err
	}

	match := gblMoviesPattern.FindSubmatch(body)
	if match == nil {
		// Markup changed or the schedule is genuinely empty; report zero
		// results but make the miss visible.
		slog.Warn("Selector miss", "source", s.theater.ID, "detail", "gbl_movies not found in page source")
		return nil, nil
	}

	var films map[string]laurelhurstFilm
	if err := json.Unmarshal(match[1], &films); err != nil {
		return nil, fmt.Errorf("%w: decode gbl_movies: %v", ErrSourceUnavailable, err)
	}

	wanted := make(map[string]time.Time, numDays)
	for i := 0; i < numDays; i++ {
		day := start.AddDate(0, 0, i)
		wanted[day.Format("20060102")] = day
	}

	var showings []RawShowing
	for _, film := range films {
		title := strings.TrimSpace(film.Title)
		if title == "" {
			continue
		}
		for dateKey, shows := range film.Schedule {
			day, ok := wanted[dateKey]
			if !ok {
				continue
			}
			for _, show := range shows {
				if show.TimeStr == "" {
					continue
				}
				showings = append(showings, RawShowing{
					SourceID:    s.theater.ID,
					RawTitle:    title,
					RawDatetime: rawDatetime(day, show.TimeStr),
					Screen:      show.Screen,
					RawURL:      s.theater.URL,
					RuntimeMin:  film.LengthMin,
				})
			}
		}
	}

	return showings, nil
}
