package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
	"github.com/123ice/Drink-Reminder/internal/domain"
)

// TotalFeed streams the running total of a calendar date.
type TotalFeed interface {
	Today() string
	Subscribe(ctx context.Context, date string) (<-chan int, error)
}

type SettingsLoader interface {
	LoadSettings(ctx context.Context) (domain.ReminderSettings, error)
}

type Announcer interface {
	Announce(ctx context.Context, text string) error
}

const goalReachedFmt = "🎉 Daily goal reached: %d ml of %d ml. Well done!"

// GoalWatcher announces once per day when today's total crosses the goal.
type GoalWatcher struct {
	feed      TotalFeed
	settings  SettingsLoader
	announcer Announcer
	clock     clock.Clock
	loc       *time.Location
	log       *zap.Logger
}

func NewGoalWatcher(feed TotalFeed, s SettingsLoader, a Announcer, clk clock.Clock, loc *time.Location, log *zap.Logger) *GoalWatcher {
	return &GoalWatcher{feed: feed, settings: s, announcer: a, clock: clk, loc: loc, log: log.Named("goal")}
}

// Run follows today's total, moving to the next date at local midnight,
// until ctx is canceled.
func (w *GoalWatcher) Run(ctx context.Context) {
	for ctx.Err() == nil {
		date := w.feed.Today()
		dayCtx, cancel := context.WithCancel(ctx)

		totals, err := w.feed.Subscribe(dayCtx, date)
		if err != nil {
			w.log.Warn("subscribe to daily total failed", zap.String("date", date), zap.Error(err))
		}
		midnight := w.clock.AfterFunc(untilMidnight(w.clock.Now(), w.loc), cancel)

		if totals == nil {
			<-dayCtx.Done()
		} else {
			w.watch(dayCtx, date, totals)
		}
		midnight.Stop()
		cancel()
	}
}

func (w *GoalWatcher) watch(ctx context.Context, date string, totals <-chan int) {
	reached := false
	for total := range totals {
		goal := w.goal(ctx)
		switch {
		case total >= goal && !reached:
			reached = true
			w.log.Info("daily goal reached", zap.String("date", date), zap.Int("total_ml", total))
			if err := w.announcer.Announce(ctx, fmt.Sprintf(goalReachedFmt, total, goal)); err != nil {
				w.log.Warn("announce goal failed", zap.Error(err))
			}
		case total < goal:
			reached = false
		}
	}
}

func (w *GoalWatcher) goal(ctx context.Context) int {
	s, err := w.settings.LoadSettings(ctx)
	if err != nil || s.Validate() != nil {
		return domain.DefaultSettings().DailyGoalMl
	}
	return s.DailyGoalMl
}

func untilMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.Sub(now)
}
