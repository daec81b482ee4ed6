package showtime

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Entry pairs a normalized showing with the cleaned (but not canonicalized)
// title its source reported.
type Entry struct {
	Showing    Showing
	RawTitle   string
	RuntimeMin int
}

// KeyRules controls how aggressively titles fold into one movie identity.
// The key is a pure string function: near-duplicates with divergent
// spelling intentionally do not merge.
type KeyRules struct {
	StripArticles bool // drop a leading "the"/"a"/"an"
	StripYear     bool // drop a trailing "(2023)" / "[2023]" annotation
}

func DefaultKeyRules() KeyRules {
	return KeyRules{StripArticles: true, StripYear: true}
}

var (
	yearAnnotationPattern = regexp.MustCompile(`\s*[(\[](19|20)\d{2}[)\]]\s*$`)
	leadingArticlePattern = regexp.MustCompile(`^(the|a|an)\s+`)
)

// Merger groups showings into movies by normalized title key.
type Merger struct {
	rules KeyRules
}

func NewMerger(rules KeyRules) *Merger {
	return &Merger{rules: rules}
}

// NormalizeKey derives the dedup key for a title. Case, punctuation and
// whitespace insensitive, and stable across runs.
func (m *Merger) NormalizeKey(title string) string {
	key := strings.ToLower(strings.TrimSpace(title))

	if m.rules.StripYear {
		key = yearAnnotationPattern.ReplaceAllString(key, "")
	}

	var b strings.Builder
	for _, r := range key {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-':
			b.WriteRune(' ')
		}
	}
	key = strings.Join(strings.Fields(b.String()), " ")

	if m.rules.StripArticles {
		key = leadingArticlePattern.ReplaceAllString(key, "")
	}

	return key
}

type movieGroup struct {
	titleCounts map[string]int
	screenings  []Showing
	runtimeMin  int
}

// Merge groups entries by normalized key and settles on one canonical title
// per movie. Output ordering is deterministic for identical input.
func (m *Merger) Merge(entries []Entry) []Movie {
	groups := make(map[string]*movieGroup)

	for _, entry := range entries {
		key := m.NormalizeKey(entry.RawTitle)
		if key == "" {
			continue
		}

		group, ok := groups[key]
		if !ok {
			group = &movieGroup{titleCounts: make(map[string]int)}
			groups[key] = group
		}

		group.titleCounts[strings.TrimSpace(entry.RawTitle)]++
		group.screenings = append(group.screenings, entry.Showing)
		if entry.RuntimeMin > 0 && group.runtimeMin == 0 {
			group.runtimeMin = entry.RuntimeMin
		}
	}

	movies := make([]Movie, 0, len(groups))
	for key, group := range groups {
		movies = append(movies, Movie{
			CanonicalTitle: canonicalTitle(group.titleCounts),
			NormalizedKey:  key,
			RuntimeMin:     group.runtimeMin,
			Screenings:     dedupeScreenings(group.screenings),
		})
	}

	sort.Slice(movies, func(i, j int) bool {
		if movies[i].CanonicalTitle != movies[j].CanonicalTitle {
			return movies[i].CanonicalTitle < movies[j].CanonicalTitle
		}
		return movies[i].NormalizedKey < movies[j].NormalizedKey
	})

	return movies
}

// canonicalTitle picks the display title when sources disagree on casing or
// punctuation: most frequent exact string, then longest, then lexicographic
// as a final deterministic tie-break.
func canonicalTitle(counts map[string]int) string {
	var best string
	bestCount := -1
	for title, count := range counts {
		if count > bestCount ||
			(count == bestCount && len(title) > len(best)) ||
			(count == bestCount && len(title) == len(best) && title < best) {
			best = title
			bestCount = count
		}
	}
	return best
}

// dedupeScreenings sorts by start time then theater id and collapses exact
// duplicates reported more than once by the same source.
func dedupeScreenings(screenings []Showing) []Showing {
	sort.Slice(screenings, func(i, j int) bool {
		if !screenings[i].StartTime.Equal(screenings[j].StartTime) {
			return screenings[i].StartTime.Before(screenings[j].StartTime)
		}
		return screenings[i].TheaterID < screenings[j].TheaterID
	})

	deduped := screenings[:0]
	for _, s := range screenings {
		if len(deduped) > 0 {
			last := deduped[len(deduped)-1]
			if last.TheaterID == s.TheaterID && last.StartTime.Equal(s.StartTime) {
				continue
			}
		}
		deduped = append(deduped, s)
	}
	return deduped
}
