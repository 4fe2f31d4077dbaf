package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/goliatone/go-pageblocks/internal/locales"
)

const settingsNamespace = "settings"

type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*SiteSettings]
	translations repository.Repository[*SiteSettingsTranslation]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	r := &BunRepository{
		db:           db,
		repo:         NewSettingsRepository(db),
		translations: NewSettingsTranslationRepository(db),
	}
	if cacheService != nil && serializer != nil {
		r.repo = repositorycache.New(r.repo, cacheService, serializer)
		r.translations = repositorycache.New(r.translations, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = settingsNamespace + cache.KeySeparator
	}
	return r
}

func (r *BunRepository) Get(ctx context.Context, key string) (*SiteSettings, error) {
	key = strings.TrimSpace(key)
	record, err := r.repo.GetByIdentifier(ctx, key)
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, &NotFoundError{Resource: "settings", Key: key}
		}
		return nil, fmt.Errorf("settings repository error: %w", err)
	}
	return record, nil
}

func (r *BunRepository) Ensure(ctx context.Context, key string) (*SiteSettings, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}
	record, err := r.Get(ctx, key)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	created, err := r.repo.Create(ctx, &SiteSettings{ID: identity.SettingsUUID(key), Key: key, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, fmt.Errorf("settings repository error: %w", err)
	}
	return created, r.invalidate(ctx)
}

func (r *BunRepository) ListTranslations(ctx context.Context, settingsID uuid.UUID) ([]*SiteSettingsTranslation, error) {
	records, _, err := r.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.settings_id = ?", settingsID).OrderExpr("?TableAlias.position ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("settings translation repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) UpsertTranslation(ctx context.Context, tr *SiteSettingsTranslation) (*SiteSettingsTranslation, error) {
	if tr == nil || locales.NormalizeCode(tr.LocaleCode) == "" {
		return nil, ErrLocaleRequired
	}
	record := cloneTranslation(tr)
	record.LocaleCode = locales.NormalizeCode(record.LocaleCode)
	now := time.Now().UTC()
	record.UpdatedAt = now

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing SiteSettingsTranslation
		err := tx.NewSelect().
			Model(&existing).
			Where("?TableAlias.settings_id = ?", record.SettingsID).
			Where("?TableAlias.locale_code = ?", record.LocaleCode).
			Limit(1).
			Scan(ctx)
		switch {
		case err == nil:
			record.ID = existing.ID
			record.Position = existing.Position
			record.CreatedAt = existing.CreatedAt
			_, err = tx.NewUpdate().
				Model(record).
				Column("site_name", "tagline", "fields", "updated_at").
				WherePK().
				Exec(ctx)
			return err
		case errors.Is(err, sql.ErrNoRows):
			count, err := tx.NewSelect().
				Model((*SiteSettingsTranslation)(nil)).
				Where("settings_id = ?", record.SettingsID).
				Count(ctx)
			if err != nil {
				return err
			}
			if record.ID == uuid.Nil {
				record.ID = identity.SettingsTranslationUUID(record.SettingsID, record.LocaleCode)
			}
			record.CreatedAt = now
			record.Position = count
			_, err = tx.NewInsert().Model(record).Exec(ctx)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("settings translation repository error: %w", err)
	}
	return record, r.invalidate(ctx)
}

func (r *BunRepository) invalidate(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}
