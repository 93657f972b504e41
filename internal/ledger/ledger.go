package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/clock"
	"github.com/123ice/Drink-Reminder/internal/domain"
	"github.com/123ice/Drink-Reminder/internal/store"
)

// Ledger is the consumption log with derived daily totals and live
// per-date subscriptions.
type Ledger struct {
	repo  store.LedgerRepo
	clock clock.Clock
	loc   *time.Location
	log   *zap.Logger

	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

type subscription struct {
	ch chan int
}

// New creates a Ledger. Calendar dates are computed in loc.
func New(repo store.LedgerRepo, clk clock.Clock, loc *time.Location, log *zap.Logger) *Ledger {
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{
		repo:  repo,
		clock: clk,
		loc:   loc,
		log:   log.Named("ledger"),
		subs:  make(map[string]map[*subscription]struct{}),
	}
}

// Today returns the current calendar date key.
func (l *Ledger) Today() string {
	return domain.DateKey(l.clock.Now(), l.loc)
}

// Append records a drink that happened now.
func (l *Ledger) Append(ctx context.Context, amountMl int) (domain.ConsumptionEvent, error) {
	ev, err := domain.NewConsumptionEvent(amountMl, l.clock.Now(), l.loc)
	if err != nil {
		return ev, err
	}
	if err := l.repo.InsertEvent(ctx, &ev); err != nil {
		return ev, fmt.Errorf("insert event: %w", err)
	}
	l.log.Debug("consumption recorded",
		zap.Int("amount_ml", ev.AmountMl),
		zap.String("date", ev.CalendarDate),
	)
	l.publish(ctx, ev.CalendarDate)
	return ev, nil
}

// TotalForDate returns the sum for date, 0 when nothing was recorded.
func (l *Ledger) TotalForDate(ctx context.Context, date string) (int, error) {
	total, _, err := l.repo.SumByDate(ctx, date)
	return total, err
}

// AggregatesForLastNDays returns per-date totals, most recent first, for at
// most n dates that have events. Dates without events are not zero-filled.
func (l *Ledger) AggregatesForLastNDays(ctx context.Context, n int) ([]domain.DailyAggregate, error) {
	return l.repo.GroupedTotals(ctx, n)
}

// RecordsForDate lists a date's events, newest first.
func (l *Ledger) RecordsForDate(ctx context.Context, date string) ([]domain.ConsumptionEvent, error) {
	return l.repo.EventsByDate(ctx, date)
}

// DeleteDate removes all events of a date.
func (l *Ledger) DeleteDate(ctx context.Context, date string) (int64, error) {
	n, err := l.repo.DeleteByDate(ctx, date)
	if err != nil {
		return 0, err
	}
	l.publish(ctx, date)
	return n, nil
}

// Subscribe streams the running total for date: the current value first,
// then a new value whenever the date's events change. Only the latest value
// is kept for a slow reader. The channel closes when ctx is done.
func (l *Ledger) Subscribe(ctx context.Context, date string) (<-chan int, error) {
	total, err := l.TotalForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	sub := &subscription{ch: make(chan int, 1)}
	sub.ch <- total

	l.mu.Lock()
	if l.subs[date] == nil {
		l.subs[date] = make(map[*subscription]struct{})
	}
	l.subs[date][sub] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs[date], sub)
		if len(l.subs[date]) == 0 {
			delete(l.subs, date)
		}
		close(sub.ch)
	}()
	return sub.ch, nil
}

func (l *Ledger) publish(ctx context.Context, date string) {
	l.mu.Lock()
	n := len(l.subs[date])
	l.mu.Unlock()
	if n == 0 {
		return
	}

	total, err := l.TotalForDate(ctx, date)
	if err != nil {
		l.log.Warn("refresh total for subscribers failed", zap.Error(err), zap.String("date", date))
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for sub := range l.subs[date] {
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- total
	}
}
