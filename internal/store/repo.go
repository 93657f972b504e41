package store

import (
	"context"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

// SettingsRepo persists the reminder settings as single-field key/value rows.
type SettingsRepo interface {
	LoadSettings(ctx context.Context) (domain.ReminderSettings, error)
	SaveSettings(ctx context.Context, s domain.ReminderSettings) error
	LoadOwnerChat(ctx context.Context) (int64, error)
	SaveOwnerChat(ctx context.Context, chatID int64) error
}

// WhitelistRepo persists the "do not interrupt" application list.
type WhitelistRepo interface {
	LoadWhitelist(ctx context.Context) (domain.Whitelist, error)
	SetWhitelistEnabled(ctx context.Context, enabled bool) error
	UpsertApp(ctx context.Context, app domain.WhitelistApp) error
	RemoveApp(ctx context.Context, pkg string) error
	ToggleApp(ctx context.Context, pkg string) (bool, error)
}

// LedgerRepo is the append-only consumption log.
type LedgerRepo interface {
	InsertEvent(ctx context.Context, ev *domain.ConsumptionEvent) error
	SumByDate(ctx context.Context, date string) (total int, found bool, err error)
	EventsByDate(ctx context.Context, date string) ([]domain.ConsumptionEvent, error)
	GroupedTotals(ctx context.Context, limit int) ([]domain.DailyAggregate, error)
	DeleteByDate(ctx context.Context, date string) (int64, error)
}

// Repo is everything the application keeps on disk.
type Repo interface {
	SettingsRepo
	WhitelistRepo
	LedgerRepo
	Close() error
}
