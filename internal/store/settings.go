package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

// LoadSettings reads the settings rows. Missing keys take their default.
// A row that cannot be decoded, or a combination that fails validation,
// makes the whole record fall back to domain.DefaultSettings.
func (r *SQLiteRepo) LoadSettings(ctx context.Context) (domain.ReminderSettings, error) {
	kv, err := r.readKV(ctx)
	if err != nil {
		return domain.ReminderSettings{}, err
	}

	s, err := decodeSettings(kv)
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		r.log.Warn("persisted settings malformed, using defaults", zap.Error(err))
		return domain.DefaultSettings(), nil
	}
	return s, nil
}

// SaveSettings overwrites every settings row in one transaction.
func (r *SQLiteRepo) SaveSettings(ctx context.Context, s domain.ReminderSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return r.writeKV(ctx, map[string]string{
		keyDailyGoal:   strconv.Itoa(s.DailyGoalMl),
		keyInterval:    strconv.Itoa(s.IntervalMinutes),
		keyRepeatDays:  s.RepeatDays.String(),
		keyStartHour:   strconv.Itoa(s.Window.StartHour),
		keyStartMinute: strconv.Itoa(s.Window.StartMinute),
		keyEndHour:     strconv.Itoa(s.Window.EndHour),
		keyEndMinute:   strconv.Itoa(s.Window.EndMinute),
		keyIntrusive:   strconv.FormatBool(s.UseIntrusiveReminder),
	})
}

// LoadOwnerChat returns the chat bound to this instance, or 0.
func (r *SQLiteRepo) LoadOwnerChat(ctx context.Context) (int64, error) {
	v, err := r.readKey(ctx, keyOwnerChat)
	if err != nil || v == "" {
		return 0, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("owner chat: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepo) SaveOwnerChat(ctx context.Context, chatID int64) error {
	return r.writeKV(ctx, map[string]string{keyOwnerChat: strconv.FormatInt(chatID, 10)})
}

func decodeSettings(kv map[string]string) (domain.ReminderSettings, error) {
	s := domain.DefaultSettings()

	ints := []struct {
		key string
		dst *int
	}{
		{keyDailyGoal, &s.DailyGoalMl},
		{keyInterval, &s.IntervalMinutes},
		{keyStartHour, &s.Window.StartHour},
		{keyStartMinute, &s.Window.StartMinute},
		{keyEndHour, &s.Window.EndHour},
		{keyEndMinute, &s.Window.EndMinute},
	}
	for _, f := range ints {
		v, ok := kv[f.key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}

	if v, ok := kv[keyRepeatDays]; ok {
		if v == "" {
			v = "none"
		}
		days, err := domain.ParseWeekdays(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", keyRepeatDays, err)
		}
		s.RepeatDays = days
	}
	if v, ok := kv[keyIntrusive]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return s, fmt.Errorf("%s: %w", keyIntrusive, err)
		}
		s.UseIntrusiveReminder = b
	}
	return s, nil
}

func (r *SQLiteRepo) readKV(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		kv[k] = v
	}
	return kv, rows.Err()
}

func (r *SQLiteRepo) readKey(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

func (r *SQLiteRepo) writeKV(ctx context.Context, kv map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Unix()
	for k, v := range kv {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value      = excluded.value,
				updated_at = excluded.updated_at`,
			k, v, now,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
