package store

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/123ice/Drink-Reminder/internal/domain"
)

// LoadWhitelist returns the app list ordered by name. The master switch
// defaults to on.
func (r *SQLiteRepo) LoadWhitelist(ctx context.Context) (domain.Whitelist, error) {
	w := domain.Whitelist{Enabled: true}

	v, err := r.readKey(ctx, keyWhitelistOn)
	if err != nil {
		return w, err
	}
	if v != "" {
		if b, perr := strconv.ParseBool(v); perr == nil {
			w.Enabled = b
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT package, name, enabled
		FROM whitelist_apps
		ORDER BY name ASC, package ASC`)
	if err != nil {
		return w, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			app        domain.WhitelistApp
			enabledInt int
		)
		if err := rows.Scan(&app.Package, &app.Name, &enabledInt); err != nil {
			return w, err
		}
		app.Enabled = enabledInt != 0
		w.Apps = append(w.Apps, app)
	}
	return w, rows.Err()
}

func (r *SQLiteRepo) SetWhitelistEnabled(ctx context.Context, enabled bool) error {
	return r.writeKV(ctx, map[string]string{keyWhitelistOn: strconv.FormatBool(enabled)})
}

// UpsertApp adds an app or replaces an existing entry with the same package.
func (r *SQLiteRepo) UpsertApp(ctx context.Context, app domain.WhitelistApp) error {
	if app.Package == "" {
		return errors.New("empty package")
	}
	if app.Name == "" {
		app.Name = app.Package
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO whitelist_apps (package, name, enabled, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(package) DO UPDATE SET
			name    = excluded.name,
			enabled = excluded.enabled`,
		app.Package, app.Name, boolToInt(app.Enabled), time.Now().UTC().Unix(),
	)
	return err
}

func (r *SQLiteRepo) RemoveApp(ctx context.Context, pkg string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM whitelist_apps WHERE package = ?`, pkg)
	return err
}

// ToggleApp flips the enabled flag and returns the new value.
func (r *SQLiteRepo) ToggleApp(ctx context.Context, pkg string) (bool, error) {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE whitelist_apps
		SET enabled = 1 - enabled
		WHERE package = ?`, pkg); err != nil {
		return false, err
	}
	var enabledInt int
	err := r.db.QueryRowContext(ctx, `SELECT enabled FROM whitelist_apps WHERE package = ?`, pkg).Scan(&enabledInt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	return enabledInt != 0, err
}
