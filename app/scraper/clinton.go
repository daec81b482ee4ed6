package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/pdxscreens/marquee/app/config"
)

// Clinton Street Theater runs WordPress with The Events Calendar plugin,
// which publishes an RSS feed of upcoming events. Each item's description
// carries the screening date as text like "August 23 @ 7:00 pm".
const clintonFeedPath = "/events/feed/"

var clintonDatePattern = regexp.MustCompile(
	`([A-Z][a-z]+ \d{1,2})(?:, (\d{4}))?\s*(?:@|at)\s*(\d{1,2}:\d{2}\s*(?:[AaPp][Mm]))`)

type Clinton struct {
	theater config.Theater
	http    *fetcher
	parser  *gofeed.Parser
}

func NewClinton(theater config.Theater) *Clinton {
	return &Clinton{theater: theater, http: newFetcher(), parser: gofeed.NewParser()}
}

func (s *Clinton) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
	url := strings.TrimRight(s.theater.URL, "/") + clintonFeedPath
	body, err := s.http.get(ctx, url)
	if err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse events feed: %v", ErrSourceUnavailable, err)
	}

	var showings []RawShowing
	misses := 0
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if !plausibleTitle(title) {
			continue
		}

		match := clintonDatePattern.FindStringSubmatch(item.Description)
		if match == nil {
			misses++
			continue
		}

		// Items without an explicit year get the window's; a wrong guess at
		// the year boundary is dropped by window filtering downstream.
		year := match[2]
		if year == "" {
			year = start.Format("2006")
		}

		rawURL := item.Link
		if rawURL == "" {
			rawURL = s.theater.URL
		}

		showings = append(showings, RawShowing{
			SourceID:    s.theater.ID,
			RawTitle:    title,
			RawDatetime: fmt.Sprintf("%s, %s at %s", match[1], year, match[3]),
			RawURL:      rawURL,
		})
	}

	if misses > 0 {
		slog.Debug("Feed items without a recognizable event date", "source", s.theater.ID, "count", misses)
	}

	return showings, nil
}
