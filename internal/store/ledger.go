package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

var ErrNotFound = errors.New("not found")

// InsertEvent appends an event and sets its ID.
func (r *SQLiteRepo) InsertEvent(ctx context.Context, ev *domain.ConsumptionEvent) error {
	if ev == nil {
		return errors.New("nil event")
	}
	if ev.AmountMl <= 0 {
		return domain.ErrInvalidAmount
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO consumption_events (amount_ml, occurred_at, calendar_date)
		VALUES (?, ?, ?)`,
		ev.AmountMl, ev.OccurredAt.UTC().UnixMilli(), ev.CalendarDate,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = id
	return nil
}

// SumByDate returns the total for a date; found is false when the date has no events.
func (r *SQLiteRepo) SumByDate(ctx context.Context, date string) (int, bool, error) {
	var total sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `
		SELECT SUM(amount_ml) FROM consumption_events WHERE calendar_date = ?`,
		date,
	).Scan(&total); err != nil {
		return 0, false, err
	}
	if !total.Valid {
		return 0, false, nil
	}
	return int(total.Int64), true, nil
}

// EventsByDate returns a date's events, newest first.
func (r *SQLiteRepo) EventsByDate(ctx context.Context, date string) ([]domain.ConsumptionEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_ml, occurred_at, calendar_date
		FROM consumption_events
		WHERE calendar_date = ?
		ORDER BY occurred_at DESC, id DESC`,
		date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.ConsumptionEvent
	for rows.Next() {
		var (
			ev       domain.ConsumptionEvent
			occurred int64
		)
		if err := rows.Scan(&ev.ID, &ev.AmountMl, &occurred, &ev.CalendarDate); err != nil {
			return nil, err
		}
		ev.OccurredAt = fromMillis(occurred)
		res = append(res, ev)
	}
	return res, rows.Err()
}

// GroupedTotals returns per-date totals for the most recent `limit` dates
// that have events, most recent first.
func (r *SQLiteRepo) GroupedTotals(ctx context.Context, limit int) ([]domain.DailyAggregate, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT calendar_date, SUM(amount_ml)
		FROM consumption_events
		GROUP BY calendar_date
		ORDER BY calendar_date DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.DailyAggregate
	for rows.Next() {
		var a domain.DailyAggregate
		if err := rows.Scan(&a.Date, &a.TotalMl); err != nil {
			return nil, err
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

// DeleteByDate removes every event of a date and returns how many went.
func (r *SQLiteRepo) DeleteByDate(ctx context.Context, date string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM consumption_events WHERE calendar_date = ?`, date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
