package rerank

import "strings"

// dateVocabulary covers temporal intents: interrogatives, scheduling nouns
// and the recurring institutional events district sites publish. Matching
// is plain substring containment, so false positives happen ("whenever"
// matches "when") and only cost a harmless date-prioritisation pass.
var dateVocabulary = []string{
	"when", "schedule", "calendar", "date", "conference",
	"meeting", "event", "deadline", "holiday", "upcoming", "next", "time",
}

// IsDateQuery reports whether the query asks about schedules, events or
// deadlines, i.e. whether its answer depends on comparing event dates to
// the current date.
func IsDateQuery(query string) bool {
	q := strings.ToLower(query)
	for _, kw := range dateVocabulary {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
