package locales

import (
	"context"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	cache "github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pageblocks/internal/identity"
)

const localeNamespace = "locale"

// BunRepository implements Repository with optional read-through caching.
type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Locale]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps the repository with go-repository-cache when
// both cacheService and serializer are supplied.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	base := NewLocaleRepository(db)
	r := &BunRepository{db: db, repo: base}
	if cacheService != nil && serializer != nil {
		r.repo = repositorycache.New(base, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = localeNamespace + cache.KeySeparator
	}
	return r
}

func (r *BunRepository) List(ctx context.Context) ([]*Locale, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.position ASC").OrderExpr("?TableAlias.code ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("locale repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) GetByCode(ctx context.Context, code string) (*Locale, error) {
	record, err := r.repo.GetByIdentifier(ctx, NormalizeCode(code))
	if err != nil {
		return nil, mapRepositoryError(err, code)
	}
	return record, nil
}

func (r *BunRepository) Upsert(ctx context.Context, locale *Locale) (*Locale, error) {
	if locale == nil {
		return nil, ErrCodeRequired
	}
	record := cloneLocale(locale)
	record.Code = NormalizeCode(record.Code)
	now := time.Now().UTC()
	record.UpdatedAt = now

	existing, err := r.GetByCode(ctx, record.Code)
	switch {
	case errors.Is(err, ErrNotFound):
		if record.ID == uuid.Nil {
			record.ID = identity.LocaleUUID(record.Code)
		}
		record.CreatedAt = now
		count, err := r.db.NewSelect().Model((*Locale)(nil)).Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("locale repository error: %w", err)
		}
		record.Position = count
		if _, err := r.repo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("locale repository error: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		record.Position = existing.Position
		if _, err := r.repo.Update(ctx, record,
			repository.UpdateByID(record.ID.String()),
			repository.UpdateColumns("name", "native_name", "is_default", "is_enabled", "is_rtl", "updated_at"),
		); err != nil {
			return nil, fmt.Errorf("locale repository error: %w", err)
		}
	}

	if record.IsDefault {
		if err := r.SetDefault(ctx, record.Code); err != nil {
			return nil, err
		}
	}
	if err := r.invalidate(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// SetDefault flips the default flag in one transaction so exactly one locale
// stays default.
func (r *BunRepository) SetDefault(ctx context.Context, code string) error {
	if r.db == nil {
		return errors.New("locale repository: database not configured")
	}
	normalized := NormalizeCode(code)
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*Locale)(nil)).
			Set("is_default = ?", true).
			Set("updated_at = ?", time.Now().UTC()).
			Where("code = ?", normalized).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("set default locale: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return &NotFoundError{Code: code}
		}
		if _, err := tx.NewUpdate().
			Model((*Locale)(nil)).
			Set("is_default = ?", false).
			Where("code <> ?", normalized).
			Where("is_default = ?", true).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear default locale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.invalidate(ctx)
}

func (r *BunRepository) invalidate(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, code string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Code: code}
	}
	return fmt.Errorf("locale repository error: %w", err)
}
