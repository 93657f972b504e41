package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, 1000, s.DailyGoalMl)
	assert.Equal(t, 60, s.IntervalMinutes)
	assert.Equal(t, "mon,tue,wed,thu,fri", s.RepeatDays.String())
	assert.Equal(t, "09:00-18:00", s.Window.String())
	assert.False(t, s.UseIntrusiveReminder)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReminderSettings)
		want   error
	}{
		{"zero goal", func(s *ReminderSettings) { s.DailyGoalMl = 0 }, ErrInvalidGoal},
		{"negative interval", func(s *ReminderSettings) { s.IntervalMinutes = -5 }, ErrInvalidInterval},
		{"inverted window", func(s *ReminderSettings) { s.Window = Window{StartHour: 18, EndHour: 9} }, ErrInvalidWindow},
		{"empty window", func(s *ReminderSettings) { s.Window = Window{StartHour: 9, EndHour: 9} }, ErrInvalidWindow},
		{"hour out of range", func(s *ReminderSettings) { s.Window.EndHour = 24 }, ErrInvalidWindow},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(&s)
			err := s.Validate()
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestValidate_EmptyDaysAllowed(t *testing.T) {
	s := DefaultSettings()
	s.RepeatDays = 0
	assert.NoError(t, s.Validate())
}

func TestParseWeekdays(t *testing.T) {
	tests := []struct {
		in   string
		want WeekdaySet
	}{
		{"weekdays", Weekdays},
		{"all", AllDays},
		{"mon-fri", Weekdays},
		{"sat,sun", Weekend},
		{"fri-mon", NewWeekdaySet(time.Friday, time.Saturday, time.Sunday, time.Monday)},
		{"Monday, Wednesday", NewWeekdaySet(time.Monday, time.Wednesday)},
		{"none", 0},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseWeekdays(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ParseWeekdays("funday")
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = ParseWeekdays(" ")
	assert.ErrorIs(t, err, ErrEmptyDays)
}

func TestParseActiveWindow(t *testing.T) {
	w, err := ParseActiveWindow("08:30–17:45")
	require.NoError(t, err)
	assert.Equal(t, Window{StartHour: 8, StartMinute: 30, EndHour: 17, EndMinute: 45}, w)

	_, err = ParseActiveWindow("22:00-02:00")
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = ParseActiveWindow("25:00-02:00")
	assert.Error(t, err)
}

func TestParseDurationHuman(t *testing.T) {
	d, err := ParseDurationHuman("1h30m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)

	d, err = ParseDurationHuman("45")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, d)

	_, err = ParseDurationHuman("25h")
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = ParseDurationHuman("soon")
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestProgress(t *testing.T) {
	assert.InDelta(t, 0.25, Progress(250, 1000), 1e-9)
	assert.Equal(t, 1.0, Progress(1500, 1000))
	assert.Equal(t, 1.0, Progress(0, 0))
	assert.Equal(t, 1.0, Progress(10, -5))
	assert.Equal(t, 0.0, Progress(-1, 1000))
	assert.Equal(t, 750, Remaining(250, 1000))
	assert.Equal(t, 0, Remaining(1200, 1000))
}

func TestWhitelistEnabledPackages(t *testing.T) {
	w := Whitelist{Enabled: true, Apps: []WhitelistApp{
		{Package: "code", Enabled: true},
		{Package: "slack", Enabled: false},
	}}
	assert.Equal(t, []string{"code"}, w.EnabledPackages())

	w.Enabled = false
	assert.Empty(t, w.EnabledPackages())
}

func TestNewConsumptionEvent(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	at := time.Date(2025, time.May, 5, 22, 30, 0, 0, time.UTC)

	ev, err := NewConsumptionEvent(250, at, loc)
	require.NoError(t, err)
	assert.Equal(t, "2025-05-06", ev.CalendarDate)

	_, err = NewConsumptionEvent(0, at, loc)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}
