package domain

import "time"

// lookaheadDays bounds the search for the next eligible day; a full week
// plus one covers any non-empty weekday set.
const lookaheadDays = 7

// Wake is the next scheduled wake-up. Fire is false when the wake-up only
// re-evaluates the schedule (e.g. at the start of the next window).
type Wake struct {
	At   time.Time
	Fire bool
}

// InWindow reports whether minutes-since-midnight lies inside the window.
// Both ends are inclusive.
func InWindow(localM int, w Window) bool {
	return localM >= w.StartMinutes() && localM <= w.EndMinutes()
}

// Active reports whether reminders may fire at now.
func Active(now time.Time, s ReminderSettings) bool {
	localM := now.Hour()*60 + now.Minute()
	return s.RepeatDays.Has(now.Weekday()) && InWindow(localM, s.Window)
}

// Plan decides the next wake-up for a scheduler evaluated at now (local time).
// Inside an active window the next reminder is one interval from now.
// Otherwise the wake-up lands on the nearest eligible window start.
// ok is false when no repeat day exists at all.
func Plan(now time.Time, s ReminderSettings) (wake Wake, ok bool) {
	if Active(now, s) {
		interval := s.Interval()
		if interval <= 0 {
			interval = time.Hour
		}
		return Wake{At: now.Add(interval), Fire: true}, true
	}
	start, ok := NextWindowStart(now, s)
	if !ok {
		return Wake{}, false
	}
	return Wake{At: start}, true
}

// NextWindowStart returns the first window start strictly after now that
// falls on a repeat day.
func NextWindowStart(now time.Time, s ReminderSettings) (time.Time, bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i <= lookaheadDays; i++ {
		day := midnight.AddDate(0, 0, i)
		if !s.RepeatDays.Has(day.Weekday()) {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(),
			s.Window.StartHour, s.Window.StartMinute, 0, 0, now.Location())
		if start.After(now) {
			return start, true
		}
	}
	return time.Time{}, false
}
