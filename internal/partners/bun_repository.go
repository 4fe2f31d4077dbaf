package partners

import (
	"context"
	"database/sql"
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
	"github.com/goliatone/go-pageblocks/internal/locales"
)

const partnerNamespace = "partner"

type BunRepository struct {
	db           *bun.DB
	repo         repository.Repository[*Partner]
	translations repository.Repository[*PartnerTranslation]
	cacheService cache.CacheService
	cachePrefix  string
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return NewBunRepositoryWithCache(db, nil, nil)
}

func NewBunRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, serializer cache.KeySerializer) *BunRepository {
	r := &BunRepository{
		db:           db,
		repo:         NewPartnerRepository(db),
		translations: NewPartnerTranslationRepository(db),
	}
	if cacheService != nil && serializer != nil {
		r.repo = repositorycache.New(r.repo, cacheService, serializer)
		r.translations = repositorycache.New(r.translations, cacheService, serializer)
		r.cacheService = cacheService
		r.cachePrefix = partnerNamespace + cache.KeySeparator
	}
	return r
}

func (r *BunRepository) List(ctx context.Context) ([]*Partner, error) {
	records, _, err := r.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.OrderExpr("?TableAlias.position ASC").OrderExpr("?TableAlias.slug ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("partner repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) GetBySlug(ctx context.Context, slug string) (*Partner, error) {
	record, err := r.repo.GetByIdentifier(ctx, NormalizeSlug(slug))
	if err != nil {
		if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
			return nil, &NotFoundError{Slug: slug}
		}
		return nil, fmt.Errorf("partner repository error: %w", err)
	}
	return record, nil
}

func (r *BunRepository) Upsert(ctx context.Context, partner *Partner) (*Partner, error) {
	if err := validatePartner(partner); err != nil {
		return nil, err
	}
	record := clonePartner(partner)
	record.Slug = NormalizeSlug(record.Slug)
	now := time.Now().UTC()
	record.UpdatedAt = now

	existing, err := r.GetBySlug(ctx, record.Slug)
	switch {
	case errors.Is(err, ErrNotFound):
		if record.ID == uuid.Nil {
			record.ID = identity.PartnerUUID(record.Slug)
		}
		record.CreatedAt = now
		if _, err := r.repo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("partner repository error: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		record.ID = existing.ID
		record.CreatedAt = existing.CreatedAt
		if _, err := r.repo.Update(ctx, record,
			repository.UpdateByID(record.ID.String()),
			repository.UpdateColumns("name", "logo_url", "website_url", "position", "is_active", "updated_at"),
		); err != nil {
			return nil, fmt.Errorf("partner repository error: %w", err)
		}
	}
	return record, r.invalidate(ctx)
}

func (r *BunRepository) ListTranslations(ctx context.Context, partnerIDs ...uuid.UUID) ([]*PartnerTranslation, error) {
	if len(partnerIDs) == 0 {
		return nil, nil
	}
	records, _, err := r.translations.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.partner_id IN (?)", bun.In(partnerIDs)).
				OrderExpr("?TableAlias.partner_id ASC").
				OrderExpr("?TableAlias.position ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("partner translation repository error: %w", err)
	}
	return records, nil
}

func (r *BunRepository) UpsertTranslation(ctx context.Context, tr *PartnerTranslation) (*PartnerTranslation, error) {
	if err := validateTranslation(tr); err != nil {
		return nil, err
	}
	record := cloneTranslation(tr)
	record.LocaleCode = locales.NormalizeCode(record.LocaleCode)
	now := time.Now().UTC()
	record.UpdatedAt = now

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing PartnerTranslation
		err := tx.NewSelect().
			Model(&existing).
			Where("?TableAlias.partner_id = ?", record.PartnerID).
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
				Column("description", "updated_at").
				WherePK().
				Exec(ctx)
			return err
		case errors.Is(err, sql.ErrNoRows):
			count, err := tx.NewSelect().
				Model((*PartnerTranslation)(nil)).
				Where("partner_id = ?", record.PartnerID).
				Count(ctx)
			if err != nil {
				return err
			}
			if record.ID == uuid.Nil {
				record.ID = identity.PartnerTranslationUUID(record.PartnerID, record.LocaleCode)
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
		return nil, fmt.Errorf("partner translation repository error: %w", err)
	}
	return record, r.invalidate(ctx)
}

func (r *BunRepository) invalidate(ctx context.Context) error {
	if r.cacheService == nil || r.cachePrefix == "" {
		return nil
	}
	return r.cacheService.DeleteByPrefix(ctx, r.cachePrefix)
}
