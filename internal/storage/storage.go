package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/pages"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/settings"
)

var ErrDialectUnsupported = errors.New("storage: unsupported dialect")

// Options describes a bun database connection.
type Options struct {
	Dialect string
	DSN     string
	// MaxOpenConns caps the pool. SQLite memory databases need 1.
	MaxOpenConns int
}

// Open connects bun to the configured dialect.
func Open(opts Options) (*bun.DB, error) {
	dsn := strings.TrimSpace(opts.DSN)
	var db *bun.DB
	switch strings.ToLower(strings.TrimSpace(opts.Dialect)) {
	case "", "sqlite":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db = bun.NewDB(sqlDB, sqlitedialect.New())
		if opts.MaxOpenConns <= 0 {
			opts.MaxOpenConns = 1
		}
	case "postgres":
		sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqlDB, pgdialect.New())
	default:
		return nil, fmt.Errorf("%w: %s", ErrDialectUnsupported, opts.Dialect)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	return db, nil
}

// Models lists every table owned by the module, in creation order.
func Models() []any {
	return []any{
		(*locales.Locale)(nil),
		(*pages.Page)(nil),
		(*pages.PageTranslation)(nil),
		(*settings.SiteSettings)(nil),
		(*settings.SiteSettingsTranslation)(nil),
		(*partners.Partner)(nil),
		(*partners.PartnerTranslation)(nil),
	}
}

// CreateSchema creates missing tables and the unique indexes the repositories
// rely on.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return errors.New("storage: database not configured")
	}
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table %T: %w", model, err)
		}
	}

	indexes := []struct {
		model   any
		name    string
		columns []string
	}{
		{(*locales.Locale)(nil), "locales_code_idx", []string{"code"}},
		{(*pages.Page)(nil), "pages_slug_idx", []string{"slug"}},
		{(*pages.PageTranslation)(nil), "page_translations_page_locale_idx", []string{"page_id", "locale_code"}},
		{(*settings.SiteSettings)(nil), "site_settings_key_idx", []string{"key"}},
		{(*settings.SiteSettingsTranslation)(nil), "site_settings_translations_locale_idx", []string{"settings_id", "locale_code"}},
		{(*partners.Partner)(nil), "partners_slug_idx", []string{"slug"}},
		{(*partners.PartnerTranslation)(nil), "partner_translations_locale_idx", []string{"partner_id", "locale_code"}},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Unique().
			IfNotExists().
			Index(idx.name).
			Column(idx.columns...).
			Exec(ctx); err != nil {
			return fmt.Errorf("storage: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
