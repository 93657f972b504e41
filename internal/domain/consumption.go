package domain

import (
	"errors"
	"time"
)

var ErrInvalidAmount = errors.New("amount must be positive")

// DateLayout is the calendar-date key used for aggregation.
const DateLayout = "2006-01-02"

// QuickAmounts are the one-tap volumes offered by an intrusive reminder.
var QuickAmounts = []int{50, 100, 200, 300}

// ConsumptionEvent is one recorded drink. It is never mutated.
type ConsumptionEvent struct {
	ID           int64
	AmountMl     int
	OccurredAt   time.Time
	CalendarDate string
}

// NewConsumptionEvent stamps an event with the calendar date of at in loc.
func NewConsumptionEvent(amountMl int, at time.Time, loc *time.Location) (ConsumptionEvent, error) {
	if amountMl <= 0 {
		return ConsumptionEvent{}, ErrInvalidAmount
	}
	return ConsumptionEvent{
		AmountMl:     amountMl,
		OccurredAt:   at,
		CalendarDate: DateKey(at, loc),
	}, nil
}

// DailyAggregate is the total volume for one calendar date.
type DailyAggregate struct {
	Date    string
	TotalMl int
}

// DateKey formats t as a local calendar date.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// Progress returns total/goal clamped to [0,1]. A non-positive goal counts as met.
func Progress(totalMl, goalMl int) float64 {
	if goalMl <= 0 {
		return 1
	}
	p := float64(totalMl) / float64(goalMl)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// Remaining returns how much is left to reach the goal, never negative.
func Remaining(totalMl, goalMl int) int {
	if r := goalMl - totalMl; r > 0 {
		return r
	}
	return 0
}
