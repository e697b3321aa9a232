package rerank

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Date patterns recognised in passage text. Years must be four digits:
// two-digit years produce too many false positives (room numbers, scores)
// to be worth guessing at.
var (
	numericSlash = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	numericDash  = regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`)
	writtenMonth = regexp.MustCompile(`(?i)\b(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?\s+(\d{1,2}),?\s+(\d{4})\b`)
)

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ExtractDates scans free text and returns every calendar date it can
// parse unambiguously, deduplicated and sorted ascending. Dates are
// normalised to midnight UTC; there is no time-of-day component.
// Malformed candidates (month 13, day 32, February 30) are skipped
// silently so one bad string never fails a request.
func ExtractDates(text string) []time.Time {
	seen := make(map[time.Time]struct{})

	add := func(year int, month time.Month, day int) {
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		// time.Date normalises out-of-range days (Feb 30 -> Mar 2);
		// a candidate that does not round-trip was never a real date.
		if d.Year() != year || d.Month() != month || d.Day() != day {
			return
		}
		seen[d] = struct{}{}
	}

	for _, re := range []*regexp.Regexp{numericSlash, numericDash} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			month, _ := strconv.Atoi(m[1])
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			if month < 1 || month > 12 {
				continue
			}
			add(year, time.Month(month), day)
		}
	}

	for _, m := range writtenMonth.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(strings.TrimSuffix(m[1], "."))
		if len(name) > 3 {
			name = name[:3]
		}
		month, ok := monthsByName[name]
		if !ok {
			continue
		}
		day, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		add(year, month, day)
	}

	out := make([]time.Time, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
