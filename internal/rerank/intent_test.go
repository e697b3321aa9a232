package rerank

import "testing"

func TestIsDateQuery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		query string
		want  bool
	}{
		{"When is the next meeting?", true},
		{"WHEN ARE FINALS", true},
		{"show me the bell schedule", true},
		{"district calendar please", true},
		{"what is the enrollment deadline", true},
		{"parent teacher conference info", true},
		{"is there a holiday on monday", true},
		{"upcoming events at the high school", true},
		{"how do I enroll my child", false},
		{"where is the district office", false},
		{"lunch menu", false},
		{"", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			if got := IsDateQuery(tt.query); got != tt.want {
				t.Fatalf("IsDateQuery(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}
