package pages

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

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/locales"
)

const pageNamespace = "page"

// BunRepository implements Repository with optional read-through caching.
type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Page]
	translations repository.Repository[*PageTranslation]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

// NewBunRepositoryWithCache wraps page and translation reads with
// go-repository-cache when both cacheService and serializer are supplied.
func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	r := &BunRepository{
		db:           db,
		repo:         NewPageRepository(db),
		translations: NewPageTranslationRepository(db),
	}
	if cacheService != nil && serializer != nil {
		r.repo = repositorycache.New(r.repo, cacheService, serializer)
		r.translations = repositorycache.New(r.translations, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = pageNamespace + cache.KeySeparator
	}
	return r
}

func (r *BunRepository) Create(ctx context.Context, page *Page) (*Page, error) {
	if page == nil || page.Slug == "" {
		return nil, ErrSlugRequired
	}
	if _, err := r.GetBySlug(ctx, page.Slug); err == nil {
		return nil, ErrDuplicateSlug
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	record := clonePage(page)
	record.Translations = nil
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("page repository error: %w", err)
	}
	return created, r.invalidate(ctx)
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Page, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.slug = ?", slug)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page", slug)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "page", Key: slug}
	}
	return records[0], nil
}

func (r *BunRepository) List(ctx context.Context) ([]*Page, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.created_at ASC").OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("page repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if r.db == nil {
		return errors.New("page repository: database not configured")
	}
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*PageTranslation)(nil)).
			Where("?TableAlias.page_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete page translations: %w", err)
		}
		res, err := tx.NewDelete().
			Model((*Page)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete page: %w", err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return &NotFoundError{Resource: "page", Key: id.String()}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.invalidate(ctx)
}

func (r *BunRepository) ListTranslations(ctx context.Context, pageID uuid.UUID) ([]*PageTranslation, error) {
	records, _, err := r.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", pageID)
		}),
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.position ASC").OrderExpr("?TableAlias.created_at ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("page translation repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) GetTranslation(ctx context.Context, pageID uuid.UUID, locale string) (*PageTranslation, error) {
	code := locales.NormalizeCode(locale)
	records, _, err := r.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.page_id = ?", pageID).Where("?TableAlias.locale_code = ?", code)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, mapRepositoryError(err, "page translation", pageID.String()+":"+code)
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: "page translation", Key: pageID.String() + ":" + code}
	}
	return records[0], nil
}

func (r *BunRepository) CreateTranslation(ctx context.Context, tr *PageTranslation) (*PageTranslation, error) {
	if tr == nil || locales.NormalizeCode(tr.LocaleCode) == "" {
		return nil, ErrLocaleRequired
	}
	record := cloneTranslation(tr)
	record.LocaleCode = locales.NormalizeCode(record.LocaleCode)
	if _, err := r.GetTranslation(ctx, record.PageID, record.LocaleCode); err == nil {
		return nil, ErrTranslationExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	existing, err := r.db.NewSelect().
		Model((*PageTranslation)(nil)).
		Where("page_id = ?", record.PageID).
		Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("page translation repository error: %w", err)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Blocks == nil {
		record.Blocks = []blocks.Block{}
	}
	now := time.Now().UTC()
	record.CreatedAt, record.UpdatedAt = now, now
	record.Position = existing
	created, err := r.translations.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("page translation repository error: %w", err)
	}
	return created, r.invalidate(ctx)
}

func (r *BunRepository) ReplaceBlocks(ctx context.Context, translationID uuid.UUID, seq []blocks.Block) error {
	if r.db == nil {
		return errors.New("page repository: database not configured")
	}
	if seq == nil {
		seq = []blocks.Block{}
	}
	record := &PageTranslation{ID: translationID, Blocks: seq, UpdatedAt: time.Now().UTC()}
	res, err := r.db.NewUpdate().
		Model(record).
		Column("blocks", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("replace page blocks: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return &NotFoundError{Resource: "page translation", Key: translationID.String()}
	}
	return r.invalidate(ctx)
}

// InvalidateCache drops every repository cache entry for pages.
func (r *BunRepository) InvalidateCache(ctx context.Context) error {
	return r.invalidate(ctx)
}

func (r *BunRepository) invalidate(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
