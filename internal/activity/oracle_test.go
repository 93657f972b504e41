package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
)

type fakeSource struct {
	access    bool
	events    []UsageEvent
	stats     []UsageStat
	eventsErr error
	statsErr  error

	lastStatsFrom time.Time
}

func (f *fakeSource) HasAccess() bool { return f.access }

func (f *fakeSource) QueryEvents(_ context.Context, from, to time.Time) ([]UsageEvent, error) {
	return f.events, f.eventsErr
}

func (f *fakeSource) QueryStats(_ context.Context, from, to time.Time) ([]UsageStat, error) {
	f.lastStatsFrom = from
	return f.stats, f.statsErr
}

var now = time.Date(2025, time.May, 5, 10, 0, 0, 0, time.UTC)

func newOracle(src UsageSource) *Oracle {
	return NewOracle(src, clock.NewManual(now), zap.NewNop())
}

func TestIsAnyActive_RecentEvent(t *testing.T) {
	src := &fakeSource{access: true, events: []UsageEvent{
		{Package: "slack", At: now.Add(-4 * time.Minute)},
		{Package: "code", At: now.Add(-time.Minute)},
	}}
	o := newOracle(src)

	assert.True(t, o.IsAnyActive(context.Background(), []string{"code"}, 60))
	assert.False(t, o.IsAnyActive(context.Background(), []string{"slack"}, 60))
}

func TestIsAnyActive_StaleEventFallsBackToStats(t *testing.T) {
	src := &fakeSource{
		access: true,
		events: []UsageEvent{{Package: "slack", At: now.Add(-3 * time.Minute)}},
		stats: []UsageStat{
			{Package: "code", LastUsed: now.Add(-10 * time.Minute), ForegroundTime: time.Hour},
			{Package: "zoom", LastUsed: now.Add(-20 * time.Minute), ForegroundTime: time.Hour},
		},
	}
	o := newOracle(src)

	assert.True(t, o.IsAnyActive(context.Background(), []string{"code"}, 60))
	assert.False(t, o.IsAnyActive(context.Background(), []string{"slack"}, 60))
}

func TestIsAnyActive_EventWinsOverStats(t *testing.T) {
	src := &fakeSource{
		access: true,
		events: []UsageEvent{{Package: "browser", At: now.Add(-30 * time.Second)}},
		stats:  []UsageStat{{Package: "code", LastUsed: now, ForegroundTime: time.Hour}},
	}
	o := newOracle(src)

	assert.False(t, o.IsAnyActive(context.Background(), []string{"code"}, 60))
}

func TestIsAnyActive_StatsThresholdScalesWithInterval(t *testing.T) {
	src := &fakeSource{access: true, stats: []UsageStat{
		{Package: "code", LastUsed: now.Add(-12 * time.Minute), ForegroundTime: time.Minute},
	}}
	o := newOracle(src)

	// interval 15 -> threshold 7m; interval 120 -> threshold 30m.
	assert.False(t, o.IsAnyActive(context.Background(), []string{"code"}, 15))
	assert.True(t, o.IsAnyActive(context.Background(), []string{"code"}, 120))
}

func TestIsAnyActive_IgnoresStatsWithoutForegroundTime(t *testing.T) {
	src := &fakeSource{access: true, stats: []UsageStat{
		{Package: "code", LastUsed: now, ForegroundTime: 0},
	}}
	assert.False(t, newOracle(src).IsAnyActive(context.Background(), []string{"code"}, 60))
}

func TestIsAnyActive_StatsWindow(t *testing.T) {
	src := &fakeSource{access: true}
	o := newOracle(src)

	o.IsAnyActive(context.Background(), []string{"code"}, 10)
	assert.Equal(t, now.Add(-30*time.Minute), src.lastStatsFrom)
	o.IsAnyActive(context.Background(), []string{"code"}, 600)
	assert.Equal(t, now.Add(-120*time.Minute), src.lastStatsFrom)
}

func TestIsAnyActive_DegradesWithoutAccess(t *testing.T) {
	src := &fakeSource{access: false, events: []UsageEvent{{Package: "code", At: now}}}
	assert.False(t, newOracle(src).IsAnyActive(context.Background(), []string{"code"}, 60))

	for _, pkgs := range [][]string{nil, {"code"}, {"a", "b", "c"}} {
		assert.False(t, newOracle(NoAccess{}).IsAnyActive(context.Background(), pkgs, 60))
	}
	assert.False(t, newOracle(nil).IsAnyActive(context.Background(), []string{"code"}, 60))
}

func TestIsAnyActive_DegradesOnQueryErrors(t *testing.T) {
	src := &fakeSource{
		access:    true,
		eventsErr: errors.New("boom"),
		statsErr:  errors.New("boom"),
	}
	assert.False(t, newOracle(src).IsAnyActive(context.Background(), []string{"code"}, 60))
}

func TestIsAnyActive_EmptyWhitelist(t *testing.T) {
	src := &fakeSource{access: true, events: []UsageEvent{{Package: "code", At: now}}}
	assert.False(t, newOracle(src).IsAnyActive(context.Background(), nil, 60))
}

func TestWindows(t *testing.T) {
	assert.Equal(t, 30*time.Minute, StatsWindow(15))
	assert.Equal(t, 90*time.Minute, StatsWindow(90))
	assert.Equal(t, 120*time.Minute, StatsWindow(240))
	assert.Equal(t, 5*time.Minute, ActiveThreshold(6))
	assert.Equal(t, 20*time.Minute, ActiveThreshold(40))
	assert.Equal(t, 30*time.Minute, ActiveThreshold(120))
}
