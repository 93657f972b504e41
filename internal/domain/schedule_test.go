package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper: build a local time in the given tz
func mustLocal(t *testing.T, tz string, y int, m time.Month, d, hh, mm int) time.Time {
	t.Helper()
	loc, err := time.LoadLocation(tz)
	if err != nil {
		t.Fatalf("load tz: %v", err)
	}
	return time.Date(y, m, d, hh, mm, 0, 0, loc)
}

const tz = "Europe/Moscow"

func TestPlan_InsideWindowFiresAfterInterval(t *testing.T) {
	s := DefaultSettings()
	// 2025-05-05 is a Monday.
	now := mustLocal(t, tz, 2025, time.May, 5, 10, 0)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.True(t, wake.Fire)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 5, 11, 0), wake.At)
}

func TestPlan_SaturdayJumpsToMondayStart(t *testing.T) {
	s := DefaultSettings()
	now := mustLocal(t, tz, 2025, time.May, 10, 10, 0)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.False(t, wake.Fire)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 12, 9, 0), wake.At)
}

func TestPlan_BeforeWindowStartsToday(t *testing.T) {
	s := DefaultSettings()
	now := mustLocal(t, tz, 2025, time.May, 6, 7, 0)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.False(t, wake.Fire)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 6, 9, 0), wake.At)
}

func TestPlan_AfterWindowStartsTomorrow(t *testing.T) {
	s := DefaultSettings()
	now := mustLocal(t, tz, 2025, time.May, 6, 18, 30)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.False(t, wake.Fire)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 7, 9, 0), wake.At)
}

func TestPlan_FridayEveningSkipsWeekend(t *testing.T) {
	s := DefaultSettings()
	now := mustLocal(t, tz, 2025, time.May, 9, 20, 0)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 12, 9, 0), wake.At)
}

func TestPlan_WindowEndIsInclusive(t *testing.T) {
	s := DefaultSettings()
	now := mustLocal(t, tz, 2025, time.May, 5, 18, 0)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.True(t, wake.Fire)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 5, 19, 0), wake.At)
}

func TestPlan_SingleDayWaitsAWeek(t *testing.T) {
	s := DefaultSettings()
	s.RepeatDays = NewWeekdaySet(time.Monday)
	now := mustLocal(t, tz, 2025, time.May, 5, 19, 0)

	wake, ok := Plan(now, s)
	require.True(t, ok)
	assert.Equal(t, mustLocal(t, tz, 2025, time.May, 12, 9, 0), wake.At)
}

func TestPlan_NoRepeatDaysSuspends(t *testing.T) {
	s := DefaultSettings()
	s.RepeatDays = 0

	_, ok := Plan(mustLocal(t, tz, 2025, time.May, 5, 10, 0), s)
	assert.False(t, ok)
}

func TestInWindow(t *testing.T) {
	w := Window{StartHour: 9, EndHour: 18}
	tests := []struct {
		name  string
		m     int
		wants bool
	}{
		{"before", 8*60 + 59, false},
		{"start", 9 * 60, true},
		{"middle", 12 * 60, true},
		{"end", 18 * 60, true},
		{"after", 18*60 + 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wants, InWindow(tc.m, w))
		})
	}
}

func TestChoosePresentation(t *testing.T) {
	assert.Equal(t, PresentationAmbient, ChoosePresentation(false, false))
	assert.Equal(t, PresentationFullScreen, ChoosePresentation(false, true))
	assert.Equal(t, PresentationAmbient, ChoosePresentation(true, false))
	assert.Equal(t, PresentationAmbient, ChoosePresentation(true, true))
}
