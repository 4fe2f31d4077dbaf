package seeding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/locking"
	"github.com/goliatone/go-pageblocks/internal/logging"
	"github.com/goliatone/go-pageblocks/internal/pages"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
	"github.com/goliatone/go-pageblocks/internal/settings"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

var (
	ErrLocalesServiceRequired  = errors.New("seeding: locale service is required")
	ErrPagesRepositoryRequired = errors.New("seeding: page repository is required")
	ErrSettingsUnavailable     = errors.New("seeding: settings repository not configured")
	ErrPartnersUnavailable     = errors.New("seeding: partner repository not configured")
	ErrNoLocales               = errors.New("seeding: no locales to provision")
)

// Dependencies wires the write path.
type Dependencies struct {
	Locales  locales.Service
	Pages    pages.Repository
	Settings settings.Repository
	Partners partners.Repository
	Cache    *cache.Service
	Locker   interfaces.Locker
	Engine   *reconcile.Engine
}

type Option func(*Service)

// WithValidator rejects incoming blocks that fail their variant schema.
func WithValidator(v *blocks.Validator) Option {
	return func(s *Service) {
		s.validator = v
	}
}

// WithLockTTL bounds how long a page translation lock may be held.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs administrative writes: it persists, then invalidates every tag
// the write affects.
type Service struct {
	locales   locales.Service
	pages     pages.Repository
	settings  settings.Repository
	partners  partners.Repository
	cache     *cache.Service
	locker    interfaces.Locker
	engine    *reconcile.Engine
	validator *blocks.Validator
	lockTTL   time.Duration
	logger    interfaces.Logger
}

func NewService(deps Dependencies, opts ...Option) (*Service, error) {
	if deps.Locales == nil {
		return nil, ErrLocalesServiceRequired
	}
	if deps.Pages == nil {
		return nil, ErrPagesRepositoryRequired
	}
	s := &Service{
		locales:  deps.Locales,
		pages:    deps.Pages,
		settings: deps.Settings,
		partners: deps.Partners,
		cache:    deps.Cache,
		locker:   deps.Locker,
		engine:   deps.Engine,
		lockTTL:  30 * time.Second,
		logger:   logging.NoOp(),
	}
	if s.cache == nil {
		s.cache = cache.NewService(nil)
	}
	if s.locker == nil {
		s.locker = locking.NewMemoryLocker()
	}
	if s.engine == nil {
		s.engine = reconcile.New(nil)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// ProvisionResult reports what ProvisionPage created.
type ProvisionResult struct {
	Page           *pages.Page
	Created        bool
	CreatedLocales []string
}

// ProvisionPage ensures the page exists with a translation for each requested
// locale. Existing translations are left untouched, so repeated calls are
// no-ops.
func (s *Service) ProvisionPage(ctx context.Context, req ProvisionPageRequest) (*ProvisionResult, error) {
	if err := validateRequest(req, "invalid provision page request"); err != nil {
		return nil, err
	}
	normalized, err := pages.NormalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}

	codes, err := s.provisionLocales(ctx, req.Locales)
	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{}
	page, err := s.pages.GetBySlug(ctx, normalized)
	switch {
	case err == nil:
	case pages.IsNotFound(err):
		page, err = s.pages.Create(ctx, &pages.Page{ID: identity.PageUUID(normalized), Slug: normalized})
		if errors.Is(err, pages.ErrDuplicateSlug) {
			page, err = s.pages.GetBySlug(ctx, normalized)
		} else if err == nil {
			result.Created = true
		}
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	result.Page = page

	tags := []string{}
	if result.Created {
		tags = append(tags, cache.TagPagesAll)
	}
	for _, code := range codes {
		_, err := s.pages.CreateTranslation(ctx, &pages.PageTranslation{
			ID:         identity.PageTranslationUUID(page.ID, code),
			PageID:     page.ID,
			LocaleCode: code,
			Blocks:     placeholder(req.Placeholder),
		})
		if errors.Is(err, pages.ErrTranslationExists) {
			continue
		}
		if err != nil {
			return nil, err
		}
		result.CreatedLocales = append(result.CreatedLocales, code)
		tags = append(tags, cache.PageTags(normalized, code)...)
	}

	logger := logging.WithPageContext(s.logger, normalized, "")
	if len(tags) == 0 {
		logger.Debug("seeding.page.provisioned", "created", false)
		return result, nil
	}
	if err := s.cache.Invalidate(ctx, tags...); err != nil {
		return nil, err
	}
	logger.Info("seeding.page.provisioned", "created", result.Created, "locales", result.CreatedLocales)
	return result, nil
}

func (s *Service) provisionLocales(ctx context.Context, requested []string) ([]string, error) {
	var codes []string
	if len(requested) > 0 {
		for _, code := range requested {
			codes = append(codes, locales.NormalizeCode(code))
		}
		return codes, nil
	}
	enabled, err := s.locales.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range enabled {
		codes = append(codes, l.Code)
	}
	if len(codes) == 0 {
		return nil, ErrNoLocales
	}
	return codes, nil
}

// ApplyResult reports the outcome of one ApplyBlocks call.
type ApplyResult struct {
	Slug    string
	Locale  string
	Mode    reconcile.Mode
	Changed bool
	Created bool
	Blocks  []blocks.Block
}

// ApplyBlocks reconciles req.Blocks into the stored translation under a
// per-translation lock. The page must exist; a missing translation is created.
// Nothing is written or invalidated when the result equals stored state.
func (s *Service) ApplyBlocks(ctx context.Context, req ApplyBlocksRequest) (*ApplyResult, error) {
	if err := validateRequest(req, "invalid apply blocks request"); err != nil {
		return nil, err
	}
	mode, err := reconcile.ParseMode(string(req.Mode))
	if err != nil {
		return nil, err
	}
	if s.validator != nil {
		if err := s.validator.Validate(req.Blocks); err != nil {
			return nil, err
		}
	}

	slugValue, err := pages.NormalizeSlug(req.Slug)
	if err != nil {
		return nil, err
	}
	locale := locales.NormalizeCode(req.Locale)
	logger := logging.WithPageContext(s.logger, slugValue, locale)

	unlock, err := s.locker.Obtain(ctx, locking.PageKey(slugValue, locale), s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("seeding: lock %s/%s: %w", slugValue, locale, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("seeding.lock.release_failed", "error", err)
		}
	}()

	page, err := s.pages.GetBySlug(ctx, slugValue)
	if err != nil {
		return nil, err
	}

	result := &ApplyResult{Slug: page.Slug, Locale: locale, Mode: mode}
	tr, err := s.pages.GetTranslation(ctx, page.ID, locale)
	if pages.IsNotFound(err) {
		tr, err = s.pages.CreateTranslation(ctx, &pages.PageTranslation{
			ID:         identity.PageTranslationUUID(page.ID, locale),
			PageID:     page.ID,
			LocaleCode: locale,
			Blocks:     []blocks.Block{},
		})
		result.Created = err == nil
	}
	if err != nil {
		return nil, err
	}

	outcome, err := s.engine.Apply(tr.Blocks, req.Blocks, mode)
	if err != nil {
		return nil, err
	}
	result.Blocks = outcome.Blocks
	result.Changed = outcome.Changed

	if !outcome.Changed && !result.Created {
		logger.Debug("seeding.blocks.unchanged", "mode", string(mode))
		return result, nil
	}
	if outcome.Changed {
		if err := s.pages.ReplaceBlocks(ctx, tr.ID, outcome.Blocks); err != nil {
			return nil, err
		}
	}
	if err := s.cache.Invalidate(ctx, cache.PageTags(page.Slug, locale)...); err != nil {
		return nil, err
	}
	logger.Info("seeding.blocks.applied", "mode", string(mode), "blocks", len(outcome.Blocks), "created", result.Created)
	return result, nil
}

// ApplyManifests applies manifests in order and stops at the first failure.
func (s *Service) ApplyManifests(ctx context.Context, manifests []*Manifest) ([]*ApplyResult, error) {
	results := make([]*ApplyResult, 0, len(manifests))
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		res, err := s.ApplyBlocks(ctx, manifest.Request())
		if err != nil {
			return results, fmt.Errorf("apply manifest %s: %w", manifest.Path, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// UpsertLocale stores l and invalidates every fallback-dependent entry.
func (s *Service) UpsertLocale(ctx context.Context, l *locales.Locale) (*locales.Locale, error) {
	stored, err := s.locales.Upsert(ctx, l)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, cache.LocaleChangeTags()...); err != nil {
		return nil, err
	}
	s.logger.Info("seeding.locale.upserted", "locale", stored.Code)
	return stored, nil
}

func (s *Service) SetDefaultLocale(ctx context.Context, code string) error {
	if err := s.locales.SetDefault(ctx, code); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, cache.LocaleChangeTags()...)
}

func (s *Service) UpsertSiteSettings(ctx context.Context, req SiteSettingsRequest) (*settings.SiteSettingsTranslation, error) {
	if s.settings == nil {
		return nil, ErrSettingsUnavailable
	}
	if err := validateRequest(req, "invalid site settings request"); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = settings.DefaultKey
	}
	record, err := s.settings.Ensure(ctx, key)
	if err != nil {
		return nil, err
	}
	stored, err := s.settings.UpsertTranslation(ctx, &settings.SiteSettingsTranslation{
		SettingsID: record.ID,
		LocaleCode: req.Locale,
		SiteName:   req.SiteName,
		Tagline:    req.Tagline,
		Fields:     blocks.CloneMap(req.Fields),
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, cache.SettingsTags(stored.LocaleCode)...); err != nil {
		return nil, err
	}
	return stored, nil
}

// UpsertPartner stores p. Partner fields are shared across locales, so every
// partners entry is invalidated.
func (s *Service) UpsertPartner(ctx context.Context, p *partners.Partner) (*partners.Partner, error) {
	if s.partners == nil {
		return nil, ErrPartnersUnavailable
	}
	stored, err := s.partners.Upsert(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, cache.TagPartnersAll); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Service) UpsertPartnerDescription(ctx context.Context, req PartnerDescriptionRequest) (*partners.PartnerTranslation, error) {
	if s.partners == nil {
		return nil, ErrPartnersUnavailable
	}
	if err := validateRequest(req, "invalid partner description request"); err != nil {
		return nil, err
	}
	partner, err := s.partners.GetBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	stored, err := s.partners.UpsertTranslation(ctx, &partners.PartnerTranslation{
		PartnerID:   partner.ID,
		LocaleCode:  req.Locale,
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, cache.PartnersTags(stored.LocaleCode)...); err != nil {
		return nil, err
	}
	return stored, nil
}

func placeholder(seq []blocks.Block) []blocks.Block {
	if seq == nil {
		return []blocks.Block{}
	}
	return blocks.CloneAll(seq)
}
