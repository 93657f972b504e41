package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidGoal     = errors.New("daily goal must be positive")
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrEmptyDays       = errors.New("no repeat days selected")
	ErrInvalidWindow   = errors.New("window start must be before end")
)

// WeekdaySet is a bitmask of time.Weekday values.
type WeekdaySet uint8

const (
	Weekdays WeekdaySet = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday
	Weekend  WeekdaySet = 1<<time.Saturday | 1<<time.Sunday
	AllDays             = Weekdays | Weekend
)

// NewWeekdaySet builds a set from the given days.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<d) != 0 }

func (s WeekdaySet) With(d time.Weekday) WeekdaySet { return s | 1<<d }

func (s WeekdaySet) Empty() bool { return s&AllDays == 0 }

// Days lists the members Monday first.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for i := 1; i <= 7; i++ {
		d := time.Weekday(i % 7)
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// String renders the set as "mon,tue,..." which is also the persisted form.
func (s WeekdaySet) String() string {
	days := s.Days()
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, weekdayShort[d])
	}
	return strings.Join(names, ",")
}

var weekdayShort = map[time.Weekday]string{
	time.Monday:    "mon",
	time.Tuesday:   "tue",
	time.Wednesday: "wed",
	time.Thursday:  "thu",
	time.Friday:    "fri",
	time.Saturday:  "sat",
	time.Sunday:    "sun",
}

// Window is a same-day clock interval in local time.
type Window struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// WindowFromMinutes builds a window from minutes since midnight.
func WindowFromMinutes(fromM, toM int) Window {
	return Window{StartHour: fromM / 60, StartMinute: fromM % 60, EndHour: toM / 60, EndMinute: toM % 60}
}

func (w Window) StartMinutes() int { return w.StartHour*60 + w.StartMinute }

func (w Window) EndMinutes() int { return w.EndHour*60 + w.EndMinute }

func (w Window) String() string {
	return FormatMinutes(w.StartMinutes()) + "-" + FormatMinutes(w.EndMinutes())
}

// ReminderSettings is an immutable snapshot of the user's reminder configuration.
type ReminderSettings struct {
	DailyGoalMl          int
	IntervalMinutes      int
	RepeatDays           WeekdaySet
	Window               Window
	UseIntrusiveReminder bool
}

// DefaultSettings is what a fresh install (or an unreadable store) runs with.
func DefaultSettings() ReminderSettings {
	return ReminderSettings{
		DailyGoalMl:     1000,
		IntervalMinutes: 60,
		RepeatDays:      Weekdays,
		Window:          Window{StartHour: 9, EndHour: 18},
	}
}

func (s ReminderSettings) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// Validate checks the invariants the scheduler relies on. An empty
// RepeatDays is valid and means reminders never fire.
func (s ReminderSettings) Validate() error {
	if s.DailyGoalMl <= 0 {
		return ErrInvalidGoal
	}
	if s.IntervalMinutes <= 0 {
		return ErrInvalidInterval
	}
	w := s.Window
	if w.StartHour < 0 || w.StartHour > 23 || w.EndHour < 0 || w.EndHour > 23 ||
		w.StartMinute < 0 || w.StartMinute > 59 || w.EndMinute < 0 || w.EndMinute > 59 {
		return fmt.Errorf("%w: time out of range", ErrInvalidWindow)
	}
	if w.StartMinutes() >= w.EndMinutes() {
		return ErrInvalidWindow
	}
	return nil
}
