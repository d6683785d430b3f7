package repo

import (
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 5, 15, 13, 45, 0, 0, time.UTC)
	cases := []struct {
		period string
		want   time.Time
		ok     bool
	}{
		{"today", time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), true},
		{"week", now.AddDate(0, 0, -7), true},
		{"7d", now.AddDate(0, 0, -7), true},
		{" Month ", now.AddDate(0, 0, -30), true},
		{"30d", now.AddDate(0, 0, -30), true},
		{"quarter", now.AddDate(0, 0, -90), true},
		{"90d", now.AddDate(0, 0, -90), true},
		{"all", time.Time{}, false},
		{"", time.Time{}, false},
		{"fortnight", time.Time{}, false},
	}
	for _, c := range cases {
		got, ok := PeriodStart(c.period, now)
		if ok != c.ok || !got.Equal(c.want) {
			t.Fatalf("PeriodStart(%q) = %v,%v want %v,%v", c.period, got, ok, c.want, c.ok)
		}
	}
}
