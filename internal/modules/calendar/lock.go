package calendar

import "time"

// IsLocked reports whether a workout date falls inside the athlete's lock
// window: today ≤ date < today + (lockDays+1), compared in local calendar
// days with time-of-day ignored. FLEXIBLE_WEEK is always unlocked and dates
// in the past are never locked.
func IsLocked(date, now time.Time, rigidity Rigidity) bool {
	lockDays, locked := rigidity.LockDays()
	if !locked {
		return false
	}

	today := startOfDay(now)
	day := startOfDay(date)

	return !day.Before(today) && day.Before(today.AddDate(0, 0, lockDays+1))
}

func startOfDay(t time.Time) time.Time {
	local := t.Local()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
}
