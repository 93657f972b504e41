package activity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
)

const (
	eventLookback = 5 * time.Minute
	eventMaxAge   = 2 * time.Minute
)

// UsageEvent is a foreground transition of a package.
type UsageEvent struct {
	Package string
	At      time.Time
}

// UsageStat is aggregated foreground usage of a package within a window.
type UsageStat struct {
	Package        string
	LastUsed       time.Time
	ForegroundTime time.Duration
}

// UsageSource is the host capability the oracle reads from.
type UsageSource interface {
	// HasAccess reports whether the host granted usage access.
	HasAccess() bool
	QueryEvents(ctx context.Context, from, to time.Time) ([]UsageEvent, error)
	QueryStats(ctx context.Context, from, to time.Time) ([]UsageStat, error)
}

// NoAccess is a UsageSource for hosts that did not grant usage access.
type NoAccess struct{}

func (NoAccess) HasAccess() bool { return false }

func (NoAccess) QueryEvents(context.Context, time.Time, time.Time) ([]UsageEvent, error) {
	return nil, nil
}

func (NoAccess) QueryStats(context.Context, time.Time, time.Time) ([]UsageStat, error) {
	return nil, nil
}

// Oracle answers whether a whitelisted app is in the foreground.
// It never fails: any missing capability or query error reads as "not active".
type Oracle struct {
	src   UsageSource
	clock clock.Clock
	log   *zap.Logger
}

func NewOracle(src UsageSource, clk clock.Clock, log *zap.Logger) *Oracle {
	if src == nil {
		src = NoAccess{}
	}
	return &Oracle{src: src, clock: clk, log: log.Named("oracle")}
}

// StatsWindow is how far back usage aggregates are inspected:
// the reminder interval clamped to [30m, 120m].
func StatsWindow(intervalMinutes int) time.Duration {
	return time.Duration(clamp(intervalMinutes, 30, 120)) * time.Minute
}

// ActiveThreshold is the maximum age of the last use for an app to still count
// as in use: half the interval clamped to [5m, 30m].
func ActiveThreshold(intervalMinutes int) time.Duration {
	return time.Duration(clamp(intervalMinutes/2, 5, 30)) * time.Minute
}

// IsAnyActive reports whether the current foreground package is one of packages.
func (o *Oracle) IsAnyActive(ctx context.Context, packages []string, intervalMinutes int) bool {
	if len(packages) == 0 {
		o.log.Debug("whitelist empty, skipping check")
		return false
	}
	current, ok := o.ForegroundPackage(ctx, intervalMinutes)
	active := false
	if ok {
		for _, p := range packages {
			if p == current {
				active = true
				break
			}
		}
	}
	o.log.Debug("whitelist check",
		zap.String("current", current),
		zap.Strings("whitelist", packages),
		zap.Bool("active", active),
		zap.Int("interval_min", intervalMinutes),
	)
	return active
}

// ForegroundPackage returns the package currently believed to be in the
// foreground. The event signal wins; the usage-stats signal is only consulted
// when the event signal yields nothing.
func (o *Oracle) ForegroundPackage(ctx context.Context, intervalMinutes int) (string, bool) {
	if !o.src.HasAccess() {
		return "", false
	}
	now := o.clock.Now()

	if pkg, ok := o.byEvents(ctx, now); ok {
		return pkg, true
	}
	return o.byStats(ctx, now, intervalMinutes)
}

func (o *Oracle) byEvents(ctx context.Context, now time.Time) (string, bool) {
	events, err := o.src.QueryEvents(ctx, now.Add(-eventLookback), now)
	if err != nil {
		o.log.Warn("usage event query failed", zap.Error(err))
		return "", false
	}

	var last UsageEvent
	for _, ev := range events {
		if ev.At.After(last.At) {
			last = ev
		}
	}
	if last.At.IsZero() {
		return "", false
	}
	if age := now.Sub(last.At); age > eventMaxAge {
		o.log.Debug("last foreground event too old", zap.String("package", last.Package), zap.Duration("age", age))
		return "", false
	}
	return last.Package, last.Package != ""
}

func (o *Oracle) byStats(ctx context.Context, now time.Time, intervalMinutes int) (string, bool) {
	window := StatsWindow(intervalMinutes)
	threshold := ActiveThreshold(intervalMinutes)

	stats, err := o.src.QueryStats(ctx, now.Add(-window), now)
	if err != nil {
		o.log.Warn("usage stats query failed", zap.Error(err))
		return "", false
	}

	var recent *UsageStat
	for i := range stats {
		st := &stats[i]
		if st.LastUsed.IsZero() || st.ForegroundTime <= 0 {
			continue
		}
		if recent == nil || st.LastUsed.After(recent.LastUsed) {
			recent = st
		}
	}
	if recent == nil {
		return "", false
	}
	if age := now.Sub(recent.LastUsed); age > threshold {
		o.log.Debug("most recent app idle too long",
			zap.String("package", recent.Package),
			zap.Duration("age", age),
			zap.Duration("threshold", threshold),
		)
		return "", false
	}
	return recent.Package, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
