package rerank

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/schoolchat/models"
)

func passage(origin, text string, score float64) models.Passage {
	return models.Passage{Origin: origin, Text: text, Score: score}
}

func origins(ps []models.Passage) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Origin
	}
	return out
}

func assertOrder(t *testing.T, got []models.Passage, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d passages %v, want %d %v", len(got), origins(got), len(want), want)
	}
	for i := range want {
		if got[i].Origin != want[i] {
			t.Fatalf("position %d: got %q, want %q (full order %v)", i, got[i].Origin, want[i], origins(got))
		}
	}
}

func TestRerankWebsiteBeforeArchive(t *testing.T) {
	t.Parallel()
	// The PDF outscores the page; type precedence must win anyway.
	in := []models.Passage{
		passage("site.org/board_minutes.pdf", "minutes text", 0.97),
		passage("site.org/staff", "staff directory", 0.41),
	}
	got := Rerank(in, "who is on the staff", date(2024, time.January, 1))
	assertOrder(t, got, []string{"site.org/staff", "site.org/board_minutes.pdf"})
}

func TestRerankDateQueryPrioritizesFutureDates(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/a", "meeting on 01/05/2020", 0.9),
		passage("site.org/b", "meeting on 12/15/2099", 0.5),
	}
	got := Rerank(in, "When is the next meeting?", date(2024, time.January, 1))
	assertOrder(t, got, []string{"site.org/b", "site.org/a"})
}

func TestRerankNonDateQueryKeepsUpstreamOrder(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/a", "meeting on 01/05/2020", 0.9),
		passage("site.org/b", "meeting on 12/15/2099", 0.5),
	}
	got := Rerank(in, "where is the gym", date(2024, time.January, 1))
	assertOrder(t, got, []string{"site.org/a", "site.org/b"})
}

func TestRerankDateBucketsSortFutureNonePast(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/past", "held 01/05/2020", 0.9),
		passage("site.org/none", "no dates here", 0.8),
		passage("site.org/future", "planned 12/15/2099", 0.7),
	}
	got := Rerank(in, "when is it scheduled", date(2024, time.January, 1))
	assertOrder(t, got, []string{"site.org/future", "site.org/none", "site.org/past"})
}

func TestRerankStability(t *testing.T) {
	t.Parallel()
	// Equal source type and date relevance: upstream order is the tie-break.
	in := []models.Passage{
		passage("site.org/f1", "event 12/15/2099", 0.3),
		passage("site.org/f2", "event 11/01/2099", 0.2),
		passage("site.org/p1", "event 01/05/2020", 0.9),
		passage("site.org/p2", "event 02/05/2020", 0.8),
	}
	got := Rerank(in, "when is the event", date(2024, time.January, 1))
	assertOrder(t, got, []string{"site.org/f1", "site.org/f2", "site.org/p1", "site.org/p2"})
}

func TestRerankIsPermutation(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/a.pdf", "held 01/05/2020", 0.9),
		passage("site.org/b", "planned 12/15/2099", 0.8),
		passage("site.org/c", "no dates", 0.7),
		passage("site.org/d.pdf", "planned 12/15/2099", 0.6),
		passage("site.org/c", "no dates", 0.7), // duplicate entry survives as-is
	}
	got := Rerank(in, "when is the next event", date(2024, time.January, 1))
	if len(got) != len(in) {
		t.Fatalf("output length %d, want %d", len(got), len(in))
	}
	counts := make(map[string]int)
	for _, p := range in {
		counts[p.Origin+"|"+p.Text]++
	}
	for _, p := range got {
		counts[p.Origin+"|"+p.Text]--
	}
	for k, n := range counts {
		if n != 0 {
			t.Fatalf("multiset mismatch for %q: %d", k, n)
		}
	}
}

func TestRerankDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/a.pdf", "held 01/05/2020", 0.9),
		passage("site.org/b", "planned 12/15/2099", 0.8),
	}
	_ = Rerank(in, "when is the next event", date(2024, time.January, 1))
	for i, p := range in {
		if p.SourceType != "" || p.DateRelevance != "" {
			t.Fatalf("input passage %d was annotated in place: %+v", i, p)
		}
	}
	if in[0].Origin != "site.org/a.pdf" || in[1].Origin != "site.org/b" {
		t.Fatalf("input order changed: %v", origins(in))
	}
}

func TestRerankAttachesDerivedFields(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/b", "planned 12/15/2099", 0.8),
		passage("site.org/a.pdf", "held 01/05/2020", 0.9),
	}
	got := Rerank(in, "when is the next event", date(2024, time.January, 1))
	if got[0].SourceType != models.SourceWebsite || got[0].DateRelevance != models.HasFutureDates {
		t.Fatalf("website passage annotated %v/%v", got[0].SourceType, got[0].DateRelevance)
	}
	if got[1].SourceType != models.SourceArchive || got[1].DateRelevance != models.OnlyPastDates {
		t.Fatalf("archive passage annotated %v/%v", got[1].SourceType, got[1].DateRelevance)
	}
	// Reranking never touches the upstream fields.
	if got[0].Score != 0.8 || got[1].Score != 0.9 {
		t.Fatalf("scores changed: %v %v", got[0].Score, got[1].Score)
	}
}

func TestRerankIdempotent(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/a.pdf", "held 01/05/2020", 0.9),
		passage("site.org/b", "planned 12/15/2099", 0.8),
		passage("site.org/c", "no dates", 0.7),
	}
	now := date(2024, time.January, 1)
	first := Rerank(in, "when is the next event", now)
	second := Rerank(in, "when is the next event", now)
	assertOrder(t, second, origins(first))
}

func TestRerankAllArchive(t *testing.T) {
	t.Parallel()
	in := []models.Passage{
		passage("site.org/old.pdf", "held 01/05/2020", 0.9),
		passage("site.org/new.pdf", "planned 12/15/2099", 0.8),
	}
	got := Rerank(in, "when is the next event", date(2024, time.January, 1))
	// Empty website partition: output is just the date-sorted archive list.
	assertOrder(t, got, []string{"site.org/new.pdf", "site.org/old.pdf"})
}

func TestRerankEmptyInput(t *testing.T) {
	t.Parallel()
	got := Rerank(nil, "when is the next event", date(2024, time.January, 1))
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %v", origins(got))
	}
}
