package repo

import (
	"strings"
	"time"
)

// PeriodStart maps an analytics period to its inclusive lower bound relative
// to now. Accepted values are today, week, month, quarter, 7d, 30d and 90d.
// Any other value (including "all") reports false, meaning no lower bound.
func PeriodStart(period string, now time.Time) (time.Time, bool) {
	now = now.UTC()
	switch strings.ToLower(strings.TrimSpace(period)) {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), true
	case "week", "7d":
		return now.AddDate(0, 0, -7), true
	case "month", "30d":
		return now.AddDate(0, 0, -30), true
	case "quarter", "90d":
		return now.AddDate(0, 0, -90), true
	default:
		return time.Time{}, false
	}
}
