package rerank

import (
	"time"

	"github.com/mohammad-safakhou/schoolchat/models"
)

// ClassifyDates labels a set of extracted dates against a reference "now".
// A date falling on the reference calendar day still counts as future: a
// passage about today's event is current, not stale. The reference must be
// the caller's actual current date at call time; relevance is a
// presentation-time decision and must never be cached with the content.
func ClassifyDates(dates []time.Time, now time.Time) models.DateRelevance {
	if len(dates) == 0 {
		return models.NoDates
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for _, d := range dates {
		if !d.Before(today) {
			return models.HasFutureDates
		}
	}
	return models.OnlyPastDates
}
