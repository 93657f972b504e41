package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyDuration   = errors.New("empty duration")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrTooSmall        = errors.New("duration too small")
	ErrTooLarge        = errors.New("duration too large")
	ErrInvalidDays     = errors.New("invalid weekday list")
)

var (
	hoursRe   = regexp.MustCompile(`(\d+)\s*h`)
	minutesRe = regexp.MustCompile(`(\d+)\s*m`)
)

// ParseDurationHuman parses human-friendly durations like "30m", "1h30m", "90m", "2h".
// A plain number means minutes. Constraints: 1m <= d <= 24h.
func ParseDurationHuman(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, ErrEmptyDuration
	}
	var total time.Duration

	if isAllDigits(s) {
		mins, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
		total = time.Duration(mins) * time.Minute
	} else {
		matched := false
		if mh := hoursRe.FindStringSubmatch(s); len(mh) == 2 {
			h, _ := strconv.Atoi(mh[1])
			total += time.Duration(h) * time.Hour
			matched = true
		}
		if mm := minutesRe.FindStringSubmatch(s); len(mm) == 2 {
			m, _ := strconv.Atoi(mm[1])
			total += time.Duration(m) * time.Minute
			matched = true
		}
		if !matched {
			return 0, fmt.Errorf("%w: %s", ErrInvalidDuration, s)
		}
	}

	if total < time.Minute {
		return 0, fmt.Errorf("%w: min 1m", ErrTooSmall)
	}
	if total > 24*time.Hour {
		return 0, fmt.Errorf("%w: max 24h", ErrTooLarge)
	}
	return total, nil
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseActiveWindow parses "HH:MM–HH:MM" or "HH:MM-HH:MM" into a same-day window.
func ParseActiveWindow(s string) (Window, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Window{}, errors.New("empty window")
	}
	sep := "–"
	if strings.Contains(s, "-") && !strings.Contains(s, "–") {
		sep = "-"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return Window{}, errors.New("expected format HH:MM–HH:MM")
	}
	fromM, err := parseHHMM(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("from: %w", err)
	}
	toM, err := parseHHMM(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("to: %w", err)
	}
	if fromM >= toM {
		return Window{}, ErrInvalidWindow
	}
	return WindowFromMinutes(fromM, toM), nil
}

func parseHHMM(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, errors.New("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, errors.New("invalid hour")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, errors.New("invalid minute")
	}
	return h*60 + m, nil
}

// ParseWeekdays accepts "weekdays", "weekend", "all", "none", ranges like
// "mon-fri" and comma lists like "mon,wed,fri".
func ParseWeekdays(s string) (WeekdaySet, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "":
		return 0, ErrEmptyDays
	case "weekdays", "workdays":
		return Weekdays, nil
	case "weekend":
		return Weekend, nil
	case "all", "daily", "everyday":
		return AllDays, nil
	case "none", "off":
		return 0, nil
	}

	var set WeekdaySet
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if from, to, ok := strings.Cut(tok, "-"); ok {
			a, err := parseWeekday(from)
			if err != nil {
				return 0, err
			}
			b, err := parseWeekday(to)
			if err != nil {
				return 0, err
			}
			for d := a; ; d = (d + 1) % 7 {
				set = set.With(d)
				if d == b {
					break
				}
			}
			continue
		}
		d, err := parseWeekday(tok)
		if err != nil {
			return 0, err
		}
		set = set.With(d)
	}
	if set.Empty() {
		return 0, ErrEmptyDays
	}
	return set, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 3 {
		for d, short := range weekdayShort {
			if s[:3] == short {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDays, s)
}

// ParseAmount parses a positive millilitre volume such as "250" or "250ml".
func ParseAmount(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(s)), "ml")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if n <= 0 {
		return 0, ErrInvalidAmount
	}
	return n, nil
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}
