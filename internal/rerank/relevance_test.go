package rerank

import (
	"testing"
	"time"

	"github.com/mohammad-safakhou/schoolchat/models"
)

func TestClassifyDates(t *testing.T) {
	t.Parallel()
	now := date(2024, time.June, 1)
	tests := []struct {
		name  string
		dates []time.Time
		want  models.DateRelevance
	}{
		{
			name:  "empty set",
			dates: nil,
			want:  models.NoDates,
		},
		{
			name:  "all past",
			dates: []time.Time{date(2019, time.March, 5), date(2023, time.December, 31)},
			want:  models.OnlyPastDates,
		},
		{
			name:  "all future",
			dates: []time.Time{date(2099, time.March, 5)},
			want:  models.HasFutureDates,
		},
		{
			name:  "mixed past and future is future",
			dates: []time.Time{date(2019, time.March, 5), date(2099, time.March, 5)},
			want:  models.HasFutureDates,
		},
		{
			name:  "same day counts as future",
			dates: []time.Time{date(2024, time.June, 1)},
			want:  models.HasFutureDates,
		},
		{
			name:  "day before is past",
			dates: []time.Time{date(2024, time.May, 31)},
			want:  models.OnlyPastDates,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ClassifyDates(tt.dates, now); got != tt.want {
				t.Fatalf("ClassifyDates() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyDatesIgnoresTimeOfDay(t *testing.T) {
	t.Parallel()
	// A reference clock late in the day must not push a same-day event
	// into the past.
	now := time.Date(2024, time.June, 1, 23, 45, 0, 0, time.UTC)
	got := ClassifyDates([]time.Time{date(2024, time.June, 1)}, now)
	if got != models.HasFutureDates {
		t.Fatalf("ClassifyDates() = %v, want %v", got, models.HasFutureDates)
	}
}
