package rerank

import (
	"sort"
	"time"

	"github.com/mohammad-safakhou/schoolchat/models"
)

var relevanceRank = map[models.DateRelevance]int{
	models.HasFutureDates: 0,
	models.NoDates:        1,
	models.OnlyPastDates:  2,
}

// Rerank reorders retrieved passages so live website content always
// precedes archival documents and, when the query is date-sensitive,
// future-dated passages precede past-only ones within each group.
//
// The output is a permutation of the input: nothing is dropped, duplicated
// or truncated. A past-dated passage may still hold the only answer, so
// "deprioritise" means reorder, never filter. Within equal buckets the
// upstream relevance order is preserved, which is why the partition and
// sort are both stable. The input slice is not mutated; derived
// SourceType/DateRelevance fields are attached to the returned copies.
func Rerank(passages []models.Passage, query string, now time.Time) []models.Passage {
	website := make([]models.Passage, 0, len(passages))
	archive := make([]models.Passage, 0)
	for _, p := range passages {
		p.SourceType = ClassifySource(p.Origin, p.Location)
		p.DateRelevance = ClassifyDates(ExtractDates(p.Text), now)
		if p.SourceType == models.SourceWebsite {
			website = append(website, p)
		} else {
			archive = append(archive, p)
		}
	}

	if IsDateQuery(query) {
		sortByDateRelevance(website)
		sortByDateRelevance(archive)
	}

	return append(website, archive...)
}

func sortByDateRelevance(ps []models.Passage) {
	sort.SliceStable(ps, func(i, j int) bool {
		return relevanceRank[ps[i].DateRelevance] < relevanceRank[ps[j].DateRelevance]
	})
}
