package showtime

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pdxscreens/marquee/app/config"
	"github.com/pdxscreens/marquee/app/scraper"
)

// ErrMalformedShowing marks a single showing whose date/time cannot be
// resolved or that falls outside the requested window. The caller drops the
// showing and keeps the rest of the source's batch.
var ErrMalformedShowing = errors.New("malformed showing")

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
	// No leading boundary: "7:00pm" glues the meridiem to the minutes.
	ampmPattern = regexp.MustCompile(`(?i)(am|pm)\b`)
)

// Layouts the sources are known to emit, tried before the generic parser.
var knownLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 3:04 PM",
	"2006-01-02 3:04PM",
	"Jan 2 2006 15:04",
	"Jan 2 2006 3:04 PM",
	"January 2, 2006 at 3:04 PM",
}

// Normalizer canonicalizes raw showings into the output schema. All
// theaters are local to one fixed timezone.
type Normalizer struct {
	loc   *time.Location
	start time.Time
	end   time.Time
}

func NewNormalizer(loc *time.Location, start time.Time, numDays int) *Normalizer {
	return &Normalizer{
		loc:   loc,
		start: start,
		end:   start.AddDate(0, 0, numDays),
	}
}

// Run parses one raw showing. The returned title is cleaned of markup
// artifacts but not yet canonicalized; cross-source canonicalization
// belongs to the merger.
func (n *Normalizer) Run(raw scraper.RawShowing, theater config.Theater) (Showing, string, error) {
	title := CleanTitle(raw.RawTitle)
	if title == "" {
		return Showing{}, "", fmt.Errorf("%w: empty title", ErrMalformedShowing)
	}

	start, err := n.parseDatetime(raw.RawDatetime)
	if err != nil {
		return Showing{}, "", fmt.Errorf("%w: %q: %v", ErrMalformedShowing, raw.RawDatetime, err)
	}

	if start.Before(n.start) || !start.Before(n.end) {
		return Showing{}, "", fmt.Errorf("%w: %s outside window [%s, %s)",
			ErrMalformedShowing, start.Format(time.RFC3339),
			n.start.Format(time.DateOnly), n.end.Format(time.DateOnly))
	}

	return Showing{
		TheaterID:  theater.ID,
		StartTime:  start,
		Auditorium: strings.TrimSpace(raw.Screen),
	}, title, nil
}

func (n *Normalizer) parseDatetime(value string) (time.Time, error) {
	value = spacePattern.ReplaceAllString(strings.TrimSpace(value), " ")
	value = ampmPattern.ReplaceAllStringFunc(value, strings.ToUpper)

	for _, layout := range knownLayouts {
		if t, err := time.ParseInLocation(layout, value, n.loc); err == nil {
			return t, nil
		}
	}

	// Fallback for formats no source admitted to: ISO variants, RFC 1123,
	// whatever a site decides to emit this week.
	t, err := dateparse.ParseIn(value, n.loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(n.loc), nil
}

// CleanTitle strips HTML artifacts and excess whitespace from a raw title.
func CleanTitle(raw string) string {
	title := tagPattern.ReplaceAllString(raw, " ")
	title = html.UnescapeString(title)
	title = spacePattern.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}
