package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pdxscreens/marquee/app/config"
)

// McMenamins' Bagdad page lists each movie as a heading followed by a
// sibling with rating/runtime text ("R, Running time: 113 minutes") and
// showtime buttons carrying <time datetime="..."> attributes.
var (
	bagdadMetaPattern    = regexp.MustCompile(`Running time|minutes|PG-13|PG|NR|\bR,`)
	bagdadRuntimePattern = regexp.MustCompile(`(\d{2,3})\s*minutes`)
)

type Bagdad struct {
	theater config.Theater
	http    *fetcher
}

func NewBagdad(theater config.Theater) *Bagdad {
	return &Bagdad{theater: theater, http: newFetcher()}
}

func (s *Bagdad) FetchShowings(ctx context.Context, start time.Time, numDays int) ([]RawShowing, error) {
	body, err := s.http.get(ctx, s.theater.URL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse markup: %v", ErrSourceUnavailable, err)
	}

	var showings []RawShowing
	seen := make(map[string]bool)

	doc.Find("h2, h3, h4").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if !plausibleTitle(title) || seen[strings.ToLower(title)] {
			return
		}

		meta := heading.Next()
		if meta.Length() == 0 || !bagdadMetaPattern.MatchString(meta.Text()) {
			return
		}
		seen[strings.ToLower(title)] = true

		runtime := 0
		if m := bagdadRuntimePattern.FindStringSubmatch(meta.Text()); m != nil {
			runtime, _ = strconv.Atoi(m[1])
		}

		section := heading.Parent()
		section.Find("time[datetime]").Each(func(_ int, t *goquery.Selection) {
			datetime, _ := t.Attr("datetime")
			showings = append(showings, RawShowing{
				SourceID:    s.theater.ID,
				RawTitle:    title,
				RawDatetime: datetime,
				RawURL:      s.theater.URL,
				RuntimeMin:  runtime,
			})
		})

		// Older page variants print bare times instead of <time> elements;
		// those listings only cover the current day.
		if section.Find("time[datetime]").Length() == 0 {
			for _, timeText := range findTimes(section.Find("a").Text()) {
				showings = append(showings, RawShowing{
					SourceID:    s.theater.ID,
					RawTitle:    title,
					RawDatetime: rawDatetime(start, timeText),
					RawURL:      s.theater.URL,
					RuntimeMin:  runtime,
				})
			}
		}
	})

	if len(seen) == 0 {
		slog.Warn("Selector miss", "source", s.theater.ID, "detail", "no movie headings with rating/runtime metadata")
	}

	return showings, nil
}
