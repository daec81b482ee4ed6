package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdxscreens/marquee/app/config"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// The Cinemagic is a Squarespace site. Ticket links point at
// tickets.thecinemagictheater.com/movie/<slug>; showtimes appear as text
// like "Friday, Feb 6 - 7:00" near each link.
var (
	cinemagicSlugPattern = regexp.MustCompile(`/movie/([^/?]+)`)
	cinemagicShowPattern = regexp.MustCompile(
		`[A-Z][a-z]+, ([A-Z][a-z]+ \d{1,2})\s*[-–]\s*(\d{1,2}:\d{2}(?:\s*[AaPp][Mm])?)`)
)

type Cinemagic struct {
	theater config.Theater
	http    *fetcher
	titler  cases.Caser
}

func NewCinemagic(theater config.Theater) *Cinemagic {
	return &Cinemagic{
		theater: theater,
		http:    newFetcher(),
		titler:  cases.Title(language.AmericanEnglish),
	}
}

func (s *Cinemagic) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
	body, err := s.http.get(ctx, s.theater.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse markup: %v", ErrSourceUnavailable, err)
	}

	year := start.Format("2006")
	seen := make(map[string]bool)
	var showings []RawShowing

	doc.Find(`a[href*="tickets.thecinemagictheater.com/movie/"]`).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		slugMatch := cinemagicSlugPattern.FindStringSubmatch(href)
		if slugMatch == nil || seen[slugMatch[1]] {
			return
		}
		seen[slugMatch[1]] = true

		// "k-pop-demon-hunters" -> "K-Pop Demon Hunters"
		title := s.titler.String(strings.ReplaceAll(slugMatch[1], "-", " "))

		// Showtime text lives in the same content block as the ticket link.
		block := link.Parent().Parent().Text()
		for _, show := range cinemagicShowPattern.FindAllStringSubmatch(block, -1) {
			showings = append(showings, RawShowing{
				SourceID:    s.theater.ID,
				RawTitle:    title,
				RawDatetime: fmt.Sprintf("%s %s %s", show[1], year, show[2]),
				RawURL:      href,
			})
		}
	})

	if len(seen) == 0 {
		slog.Warn("Selector miss", "source", s.theater.ID, "detail", "no ticket links found")
	}

	return showings, nil
}
