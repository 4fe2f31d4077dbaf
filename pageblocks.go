package pageblocks

import (
	"context"
	"errors"

	"github.com/goliatone/go-pageblocks/commands"
	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/delivery"
	"github.com/goliatone/go-pageblocks/internal/di"
	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/openapi"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
	"github.com/goliatone/go-pageblocks/internal/seeding"
)

var errNilModule = errors.New("pageblocks: module not initialised")

// Block is one ordered section of a page translation.
type Block = blocks.Block

// Mode selects how incoming blocks reconcile with stored ones.
type Mode = reconcile.Mode

const (
	ModeMerge   = reconcile.ModeMerge
	ModeReplace = reconcile.ModeReplace
)

// DeliveryService exports the read surface used by page renderers.
type DeliveryService = *delivery.Service

// SeedingService exports the administrative write surface.
type SeedingService = *seeding.Service

type (
	PageContent  = delivery.PageContent
	SiteSettings = delivery.SiteSettings
	Partner      = delivery.Partner
	Locale       = delivery.Locale

	ProvisionPageRequest      = seeding.ProvisionPageRequest
	ApplyBlocksRequest        = seeding.ApplyBlocksRequest
	SiteSettingsRequest       = seeding.SiteSettingsRequest
	PartnerDescriptionRequest = seeding.PartnerDescriptionRequest
	ApplyResult               = seeding.ApplyResult
	ProvisionResult           = seeding.ProvisionResult
	Manifest                  = seeding.Manifest
)

// Tags shared by every resource kind.
const (
	TagPagesAll    = cache.TagPagesAll
	TagSettingsAll = cache.TagSettingsAll
	TagPartnersAll = cache.TagPartnersAll
	TagLocales     = cache.TagLocales
)

// PageTag addresses one page translation in the cache.
func PageTag(slug, locale string) string { return cache.PageTag(slug, locale) }

// PageTags lists the tags a write to a page translation invalidates.
func PageTags(slug, locale string) []string { return cache.PageTags(slug, locale) }

func SettingsTag(locale string) string { return cache.SettingsTag(locale) }

func SettingsTags(locale string) []string { return cache.SettingsTags(locale) }

func PartnersTag(locale string) string { return cache.PartnersTag(locale) }

func PartnersTags(locale string) []string { return cache.PartnersTags(locale) }

// Module represents the top level runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Delivery returns the content access service.
func (m *Module) Delivery() DeliveryService {
	return m.container.DeliveryService()
}

// Seeding returns the administrative write service.
func (m *Module) Seeding() SeedingService {
	return m.container.SeedingService()
}

// Locales returns the locale service backing fallback resolution.
func (m *Module) Locales() LocaleService {
	return newLocaleService(m)
}

// Invalidate drops every cached entry carrying one of tags.
func (m *Module) Invalidate(ctx context.Context, tags ...string) error {
	if m == nil || m.container == nil {
		return errNilModule
	}
	return m.container.CacheService().Invalidate(ctx, tags...)
}

// RegisterCommands builds the command handlers and registers them with the
// registry and dispatcher in opts.
func (m *Module) RegisterCommands(opts commands.RegistrationOptions) (*commands.RegistrationResult, error) {
	if m == nil || m.container == nil {
		return nil, errNilModule
	}
	return commands.RegisterContainerCommands(m.container, opts)
}

// BlockSchemas returns an OpenAPI document whose components describe every
// block variant known to the module's catalog.
func (m *Module) BlockSchemas(title, version string) (map[string]any, error) {
	if m == nil || m.container == nil {
		return nil, errNilModule
	}
	doc, err := openapi.BlockSchemas(m.container.Catalog(), title, version)
	if err != nil {
		return nil, err
	}
	return doc.AsMap(), nil
}

// Close releases connections the module opened.
func (m *Module) Close(ctx context.Context) error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close(ctx)
}

// ParseMode maps "merge", "replace" or "" to a Mode.
func ParseMode(value string) (Mode, error) {
	return reconcile.ParseMode(value)
}

// NormalizeLocale lower-cases and trims a locale code.
func NormalizeLocale(code string) string {
	return locales.NormalizeCode(code)
}
