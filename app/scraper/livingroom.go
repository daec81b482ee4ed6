package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdxscreens/marquee/app/config"
)

// Living Room Theaters renders showtimes inside Quasar framework cards; the
// raw response is an empty shell, so the adapter parses rendered HTML.
type LivingRoom struct {
	theater  config.Theater
	renderer Renderer
}

func NewLivingRoom(theater config.Theater, renderer Renderer) *LivingRoom {
	return &LivingRoom{theater: theater, renderer: renderer}
}

func (s *LivingRoom) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
	html, err := s.renderer.Render(ctx, s.theater.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse rendered markup: %v", ErrSourceUnavailable, err)
	}

	var showings []RawShowing
	seen := make(map[string]bool)

	doc.Find(`[class*="q-card"], [class*="movie"], [class*="film"]`).Each(func(_ int, card *goquery.Selection) {
		heading := card.Find("h1, h2, h3, h4").First()
		if heading.Length() == 0 {
			return
		}

		title := strings.TrimSpace(heading.Text())
		if !plausibleTitle(title) || seen[strings.ToLower(title)] {
			return
		}
		if skippedHeading(title, "living room") {
			return
		}

		times := findTimes(card.Text())
		if len(times) == 0 {
			return
		}
		seen[strings.ToLower(title)] = true

		rawURL := s.theater.URL
		if href, ok := card.Find("a[href]").Attr("href"); ok {
			rawURL = absoluteURL(s.theater.URL, href)
		}

		for _, timeText := range times {
			showings = append(showings, RawShowing{
				SourceID:    s.theater.ID,
				RawTitle:    title,
				RawDatetime: rawDatetime(start, timeText),
				RawURL:      rawURL,
			})
		}
	})

	if len(seen) == 0 {
		slog.Warn("Selector miss", "source", s.theater.ID, "detail", "no showtime cards in rendered page")
	}

	return showings, nil
}
