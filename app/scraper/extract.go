package scraper

import (
	"regexp"
	"strings"
	"time"
)

// timePattern matches showtime text like "7:00 PM", "4:30pm" or "19:00".
var timePattern = regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(?:[AaPp][Mm])?\b`)

// findTimes returns every showtime-looking token in text, in order.
func findTimes(text string) []string {
	matches := timePattern.FindAllString(text, -1)
	times := make([]string, 0, len(matches))
	for _, m := range matches {
		times = append(times, strings.TrimSpace(m))
	}
	return times
}

// windowDates lists each day of the window formatted with layout.
func windowDates(start time.Time, numDays int, layout string) []string {
	dates := make([]string, 0, numDays)
	for i := 0; i < numDays; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format(layout))
	}
	return dates
}

// rawDatetime composes the normalizer-facing datetime string from a day of
// the window and a site-reported time token.
func rawDatetime(day time.Time, timeText string) string {
	return day.Format("2006-01-02") + " " + timeText
}

// plausibleTitle rejects text that is clearly not a movie title.
func plausibleTitle(text string) bool {
	return len(text) >= 2 && len(text) <= 100
}

// skippedHeading reports whether a heading is site navigation rather than a
// movie title. Shared by the adapters that scan rendered headings.
func skippedHeading(title string, siteWords ...string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	common := []string{
		"now showing", "now playing", "coming soon", "special events",
		"showtimes", "events", "about", "contact", "menu", "home",
		"buy tickets", "gift cards",
	}
	for _, w := range append(common, siteWords...) {
		if lower == w {
			return true
		}
	}
	return false
}

// absoluteURL resolves href against the site base when it is site-relative.
func absoluteURL(base, href string) string {
	if strings.HasPrefix(href, "/") {
		return strings.TrimRight(base, "/") + href
	}
	return href
}
