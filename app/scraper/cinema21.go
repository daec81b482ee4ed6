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

// Cinema 21 is a Next.js app that renders its schedule client-side, so the
// adapter needs a rendered DOM rather than the raw response body.
type Cinema21 struct {
	theater  config.Theater
	renderer Renderer
}

func NewCinema21(theater config.Theater, renderer Renderer) *Cinema21 {
	return &Cinema21{theater: theater, renderer: renderer}
}

func (s *Cinema21) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
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

	doc.Find("h1, h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if !plausibleTitle(title) || seen[strings.ToLower(title)] {
			return
		}
		if skippedHeading(title, "cinema 21") {
			return
		}

		parent := heading.Parent()
		times := findTimes(parent.Text())
		if len(times) == 0 {
			return
		}
		seen[strings.ToLower(title)] = true

		rawURL := s.theater.URL
		if href, ok := heading.Find("a[href]").Attr("href"); ok {
			rawURL = absoluteURL(s.theater.URL, href)
		} else if href, ok := parent.Find("a[href]").Attr("href"); ok {
			rawURL = absoluteURL(s.theater.URL, href)
		}

		// The landing page lists the current day's schedule only.
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
		slog.Warn("Selector miss", "source", s.theater.ID, "detail", "no headings with nearby showtimes in rendered page")
	}

	return showings, nil
}
