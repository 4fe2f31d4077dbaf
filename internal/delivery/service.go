package delivery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/hydration"
	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/logging"
	"github.com/goliatone/go-pageblocks/internal/pages"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/settings"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

var ErrLocalesServiceRequired = errors.New("delivery: locale service is required")

// Dependencies wires the read path. Pages, Settings and Partners may be nil;
// the matching getters then report no content.
type Dependencies struct {
	Locales  locales.Service
	Pages    pages.Repository
	Settings settings.Repository
	Partners partners.Repository
	Cache    *cache.Service
	Hydrator *hydration.Registry
}

// Option configures a Service.
type Option func(*Service)

// WithLocalesRevalidate sets how long the enabled-locale list may be served
// from cache. Zero caches until invalidated.
func WithLocalesRevalidate(period time.Duration) Option {
	return func(s *Service) {
		s.localesPolicy = cache.Revalidate(period)
	}
}

// WithSettingsKey selects the settings record served by GetSiteSettings.
func WithSettingsKey(key string) Option {
	return func(s *Service) {
		if key = strings.TrimSpace(key); key != "" {
			s.settingsKey = key
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

// Service is the content access surface used by page renderers. Every getter
// resolves the requested locale with fallback, reads through the tag cache and
// hydrates after the cache so stored snapshots are never modified.
type Service struct {
	locales       locales.Service
	pages         pages.Repository
	settings      settings.Repository
	partners      partners.Repository
	cache         *cache.Service
	hydrator      *hydration.Registry
	localesPolicy cache.Policy
	settingsKey   string
	logger        interfaces.Logger
}

func NewService(deps Dependencies, opts ...Option) (*Service, error) {
	if deps.Locales == nil {
		return nil, ErrLocalesServiceRequired
	}
	s := &Service{
		locales:       deps.Locales,
		pages:         deps.Pages,
		settings:      deps.Settings,
		partners:      deps.Partners,
		cache:         deps.Cache,
		hydrator:      deps.Hydrator,
		localesPolicy: cache.Revalidate(time.Hour),
		settingsKey:   settings.DefaultKey,
		logger:        logging.NoOp(),
	}
	if s.cache == nil {
		s.cache = cache.NewService(nil)
	}
	if s.hydrator == nil {
		s.hydrator = hydration.DefaultRegistry()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// GetPageContent returns the hydrated blocks for slug in locale. A missing page
// or a page without translations yields nil and no error.
func (s *Service) GetPageContent(ctx context.Context, slug, locale string) ([]blocks.Block, error) {
	content, err := s.ResolvePageContent(ctx, slug, locale)
	if err != nil || content == nil {
		return nil, err
	}
	return content.Blocks, nil
}

// ResolvePageContent is GetPageContent with the resolution details attached.
func (s *Service) ResolvePageContent(ctx context.Context, slug, locale string) (*PageContent, error) {
	locale = locales.NormalizeCode(locale)
	if s.pages == nil || strings.TrimSpace(slug) == "" {
		return nil, nil
	}
	normalized, err := pages.NormalizeSlug(slug)
	if err != nil {
		s.logger.Debug("delivery.page.invalid_slug", "slug", slug, "error", err)
		return nil, nil
	}
	slug = normalized

	tags := cache.PageTags(slug, locale)
	content, err := cache.Cached(ctx, s.cache, cache.Key("page", slug, locale), tags, cache.Forever(),
		func(ctx context.Context) (*PageContent, error) {
			logging.WithPageContext(s.logger, slug, locale).Debug("delivery.page.cache_miss", "tags", tags)
			return s.loadPage(ctx, slug, locale)
		})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, nil
	}
	content.Blocks = s.hydrator.Hydrate(content.Blocks)
	return content, nil
}

func (s *Service) loadPage(ctx context.Context, slug, locale string) (*PageContent, error) {
	page, err := s.pages.GetBySlug(ctx, slug)
	if err != nil {
		if pages.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	translations, err := s.pages.ListTranslations(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	fb, err := s.locales.Fallback(ctx)
	if err != nil {
		return nil, err
	}

	res := locales.Resolve(translations, pages.LocaleOf, locale, fb)
	if !res.Found() {
		return nil, nil
	}
	if res.Fallback() {
		cache.AddTags(ctx, cache.PageTag(slug, res.Locale))
		logging.WithPageContext(s.logger, slug, locale).Debug("delivery.page.fallback",
			"resolved_locale", res.Locale, "tier", res.Tier.String())
	}
	return &PageContent{
		Slug:            page.Slug,
		RequestedLocale: locale,
		Locale:          res.Locale,
		Tier:            res.Tier.String(),
		Blocks:          blocks.CloneAll(res.Value.Blocks),
	}, nil
}

// GetSiteSettings returns the settings translation for locale with fallback,
// or nil when none exists.
func (s *Service) GetSiteSettings(ctx context.Context, locale string) (*SiteSettings, error) {
	locale = locales.NormalizeCode(locale)
	if s.settings == nil {
		return nil, nil
	}
	return cache.Cached(ctx, s.cache, cache.Key("settings", s.settingsKey, locale), cache.SettingsTags(locale), cache.Forever(),
		func(ctx context.Context) (*SiteSettings, error) {
			record, err := s.settings.Get(ctx, s.settingsKey)
			if err != nil {
				if settings.IsNotFound(err) {
					return nil, nil
				}
				return nil, err
			}
			translations, err := s.settings.ListTranslations(ctx, record.ID)
			if err != nil {
				return nil, err
			}
			fb, err := s.locales.Fallback(ctx)
			if err != nil {
				return nil, err
			}
			res := locales.Resolve(translations, settings.LocaleOf, locale, fb)
			if !res.Found() {
				return nil, nil
			}
			if res.Fallback() {
				cache.AddTags(ctx, cache.SettingsTag(res.Locale))
			}
			return &SiteSettings{
				Locale:   res.Locale,
				SiteName: res.Value.SiteName,
				Tagline:  res.Value.Tagline,
				Fields:   blocks.CloneMap(res.Value.Fields),
			}, nil
		})
}

// GetPartners returns active partners in display order. Each description is
// resolved independently; partners stay listed when theirs is missing.
func (s *Service) GetPartners(ctx context.Context, locale string) ([]Partner, error) {
	locale = locales.NormalizeCode(locale)
	if s.partners == nil {
		return []Partner{}, nil
	}
	out, err := cache.Cached(ctx, s.cache, cache.Key("partners", "", locale), cache.PartnersTags(locale), cache.Forever(),
		func(ctx context.Context) ([]Partner, error) {
			return s.loadPartners(ctx, locale)
		})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Partner{}
	}
	return out, nil
}

func (s *Service) loadPartners(ctx context.Context, locale string) ([]Partner, error) {
	records, err := s.partners.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]*partners.Partner, 0, len(records))
	ids := make([]uuid.UUID, 0, len(records))
	for _, record := range records {
		if record != nil && record.IsActive {
			active = append(active, record)
			ids = append(ids, record.ID)
		}
	}
	if len(active) == 0 {
		return []Partner{}, nil
	}

	translations, err := s.partners.ListTranslations(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byPartner := make(map[uuid.UUID][]*partners.PartnerTranslation, len(active))
	for _, tr := range translations {
		byPartner[tr.PartnerID] = append(byPartner[tr.PartnerID], tr)
	}
	fb, err := s.locales.Fallback(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Partner, 0, len(active))
	for _, record := range active {
		item := Partner{
			Slug:       record.Slug,
			Name:       record.Name,
			LogoURL:    record.LogoURL,
			WebsiteURL: record.WebsiteURL,
		}
		res := locales.Resolve(byPartner[record.ID], partners.LocaleOf, locale, fb)
		if res.Found() {
			description := res.Value.Description
			item.Description = &description
			if res.Fallback() {
				cache.AddTags(ctx, cache.PartnersTag(res.Locale))
			}
		}
		out = append(out, item)
	}
	return out, nil
}

// GetEnabledLocales lists enabled locales, default first. The result is cached
// for the revalidate period and under the locales tag.
func (s *Service) GetEnabledLocales(ctx context.Context) ([]Locale, error) {
	out, err := cache.Cached(ctx, s.cache, cache.Key("locales", "enabled", ""), []string{cache.TagLocales}, s.localesPolicy,
		func(ctx context.Context) ([]Locale, error) {
			records, err := s.locales.ListEnabled(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]Locale, 0, len(records))
			for _, record := range records {
				out = append(out, Locale{
					Code:       record.Code,
					Name:       record.Name,
					NativeName: record.NativeName,
					IsDefault:  record.IsDefault,
					IsRTL:      record.IsRTL,
				})
			}
			return out, nil
		})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Locale{}
	}
	return out, nil
}
