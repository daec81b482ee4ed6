package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pdxscreens/marquee/app/config"
)

// Hollywood Theatre's WordPress theme exposes a JSON calendar feed; going
// straight to it avoids the Cloudflare-protected HTML pages entirely.
const hollywoodCalendarPath = "/wp-json/gecko-theme/v1/calendar-events"

type Hollywood struct {
	theater config.Theater
	http    *fetcher
}

func NewHollywood(theater config.Theater) *Hollywood {
	return &Hollywood{theater: theater, http: newFetcher()}
}

type hollywoodEvent struct {
	Title string `json:"title"`
	Start string `json:"start"` // ISO 8601, theater-local
	URL   string `json:"url"`
}

func (s *Hollywood) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
	end := start.AddDate(0, 0, numDays)
	params := map[string]string{
		"start": start.Format(time.DateOnly),
		"end":   end.Format(time.DateOnly),
	}

	var events []hollywoodEvent
	url := strings.TrimRight(s.theater.URL, "/") + hollywoodCalendarPath
	if err := s.http.getJSON(ctx, url, params, &events); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		slog.Debug("Calendar returned no events", "source", s.theater.ID, "start", params["start"], "end", params["end"])
	}

	showings := make([]RawShowing, 0, len(events))
	for _, event := range events {
		title := strings.TrimSpace(event.Title)
		if title == "" || event.Start == "" {
			continue
		}
		rawURL := event.URL
		if rawURL == "" {
			rawURL = s.theater.URL
		}
		showings = append(showings, RawShowing{
			SourceID:    s.theater.ID,
			RawTitle:    title,
			RawDatetime: event.Start,
			RawURL:      rawURL,
		})
	}

	return showings, nil
}
