package query

import (
	"time"

	"github.com/gridbase-io/gridbase-engine/pkg/models"
)

// BucketRange resolves a relative date operator to a calendar-aligned
// half-open interval [start, end) anchored at now. Weeks start on Sunday;
// month and year buckets use calendar boundaries. End-exclusive ranges keep
// boundary timestamps from matching two adjacent buckets.
func BucketRange(op models.FilterOperator, now time.Time) (start, end time.Time, ok bool) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch op {
	case models.OpToday:
		return dayStart, dayStart.AddDate(0, 0, 1), true
	case models.OpYesterday:
		return dayStart.AddDate(0, 0, -1), dayStart, true
	case models.OpThisWeek:
		weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
		return weekStart, weekStart.AddDate(0, 0, 7), true
	case models.OpLastWeek:
		weekStart := dayStart.AddDate(0, 0, -int(dayStart.Weekday()))
		return weekStart.AddDate(0, 0, -7), weekStart, true
	case models.OpThisMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return monthStart, monthStart.AddDate(0, 1, 0), true
	case models.OpLastMonth:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return monthStart.AddDate(0, -1, 0), monthStart, true
	case models.OpThisYear:
		yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return yearStart, yearStart.AddDate(1, 0, 0), true
	case models.OpLastYear:
		yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return yearStart.AddDate(-1, 0, 0), yearStart, true
	default:
		return time.Time{}, time.Time{}, false
	}
}
