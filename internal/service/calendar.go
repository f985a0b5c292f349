package service

import "time"

// AddBusinessDays returns the date n working days after start, skipping
// Saturdays and Sundays. A start on a weekend counts from the following Monday.
func AddBusinessDays(start time.Time, n int) time.Time {
	day := dateOnly(start)
	for isWeekend(day) {
		day = day.AddDate(0, 0, 1)
	}
	for added := 0; added < n; {
		day = day.AddDate(0, 0, 1)
		if !isWeekend(day) {
			added++
		}
	}
	return day
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
