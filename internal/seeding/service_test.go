package seeding_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/delivery"
	"github.com/goliatone/go-pageblocks/internal/identity"
	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/locking"
	"github.com/goliatone/go-pageblocks/internal/pages"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
	"github.com/goliatone/go-pageblocks/internal/seeding"
	"github.com/goliatone/go-pageblocks/internal/settings"
)

type fixture struct {
	seeding  *seeding.Service
	delivery *delivery.Service
	pages    *pages.MemoryRepository
	locales  locales.Service
}

func newFixture(t *testing.T, opts ...seeding.Option) *fixture {
	t.Helper()
	ctx := context.Background()
	localeSvc := locales.NewService(locales.NewMemoryRepository())
	for _, l := range []*locales.Locale{
		{Code: "en", Name: "English", IsEnabled: true, IsDefault: true},
		{Code: "es", Name: "Spanish", IsEnabled: true},
	} {
		if _, err := localeSvc.Upsert(ctx, l); err != nil {
			t.Fatalf("upsert locale: %v", err)
		}
	}

	pagesRepo := pages.NewMemoryRepository()
	settingsRepo := settings.NewMemoryRepository()
	partnersRepo := partners.NewMemoryRepository()
	cacheSvc := cache.NewService(cache.NewMemoryStore())

	seeder, err := seeding.NewService(seeding.Dependencies{
		Locales:  localeSvc,
		Pages:    pagesRepo,
		Settings: settingsRepo,
		Partners: partnersRepo,
		Cache:    cacheSvc,
		Locker:   locking.NewMemoryLocker(),
	}, opts...)
	if err != nil {
		t.Fatalf("new seeding service: %v", err)
	}
	reader, err := delivery.NewService(delivery.Dependencies{
		Locales:  localeSvc,
		Pages:    pagesRepo,
		Settings: settingsRepo,
		Partners: partnersRepo,
		Cache:    cacheSvc,
	})
	if err != nil {
		t.Fatalf("new delivery service: %v", err)
	}
	return &fixture{seeding: seeder, delivery: reader, pages: pagesRepo, locales: localeSvc}
}

func TestProvisionPageIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "Services"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if !first.Created || first.Page.Slug != "services" || first.Page.ID != identity.PageUUID("services") {
		t.Fatalf("unexpected first result %+v", first.Page)
	}
	if len(first.CreatedLocales) != 2 || first.CreatedLocales[0] != "en" || first.CreatedLocales[1] != "es" {
		t.Fatalf("expected placeholders for [en es], got %v", first.CreatedLocales)
	}

	second, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "services"})
	if err != nil {
		t.Fatalf("provision again: %v", err)
	}
	if second.Created || len(second.CreatedLocales) != 0 || second.Page.ID != first.Page.ID {
		t.Fatalf("expected no-op on second provision, got %+v", second)
	}

	translations, err := f.pages.ListTranslations(ctx, first.Page.ID)
	if err != nil || len(translations) != 2 {
		t.Fatalf("expected two translations, got %d, %v", len(translations), err)
	}
	if translations[0].Blocks == nil || len(translations[0].Blocks) != 0 {
		t.Fatalf("expected empty placeholder blocks, got %#v", translations[0].Blocks)
	}
}

func TestProvisionPageBustsCachedMiss(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if seq, err := f.delivery.GetPageContent(ctx, "home", "en"); err != nil || seq != nil {
		t.Fatalf("expected no content before provisioning, got %+v, %v", seq, err)
	}
	if _, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{
		Slug:        "home",
		Placeholder: []blocks.Block{{"type": "hero", "title": "Coming soon"}},
	}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	seq, err := f.delivery.GetPageContent(ctx, "home", "en")
	if err != nil || len(seq) != 1 || seq[0].String("title") != "Coming soon" {
		t.Fatalf("expected placeholder after provisioning, got %+v, %v", seq, err)
	}
}

func TestProvisionPageValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "   "})
	if !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	empty, err := seeding.NewService(seeding.Dependencies{
		Locales: locales.NewService(locales.NewMemoryRepository()),
		Pages:   pages.NewMemoryRepository(),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := empty.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "home"}); !errors.Is(err, seeding.ErrNoLocales) {
		t.Fatalf("expected ErrNoLocales, got %v", err)
	}
}

func TestApplyBlocksMergeIsIdempotentAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{
		Slug:        "services",
		Placeholder: []blocks.Block{{"type": "hero", "title": "Services", "tagline": "A", "image": "/x.png"}},
	}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if _, err := f.delivery.GetPageContent(ctx, "services", "en"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	req := seeding.ApplyBlocksRequest{
		Slug:   "services",
		Locale: "en",
		Mode:   reconcile.ModeMerge,
		Blocks: []blocks.Block{
			{"type": "hero", "title": "Services", "tagline": "B"},
			{"type": "serviceDetails", "serviceId": "audit", "title": "Audit"},
		},
	}
	res, err := f.seeding.ApplyBlocks(ctx, req)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.Changed || len(res.Blocks) != 2 {
		t.Fatalf("expected change with two blocks, got %+v", res)
	}

	seq, err := f.delivery.GetPageContent(ctx, "services", "en")
	if err != nil {
		t.Fatalf("read after apply: %v", err)
	}
	if len(seq) != 2 || seq[0]["tagline"] != "B" || seq[0]["image"] != "/x.png" || seq[1].String("serviceId") != "audit" {
		t.Fatalf("expected merged content to be visible, got %+v", seq)
	}

	again, err := f.seeding.ApplyBlocks(ctx, req)
	if err != nil {
		t.Fatalf("apply again: %v", err)
	}
	if again.Changed {
		t.Fatalf("expected second apply to be a no-op, got %+v", again.Blocks)
	}
}

func TestApplyBlocksReplaceCreatesMissingTranslation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "about", Locales: []string{"en"}}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if seq, _ := f.delivery.GetPageContent(ctx, "about", "es"); seq == nil || len(seq) != 0 {
		t.Fatalf("expected es to fall back to empty en placeholder, got %#v", seq)
	}

	res, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{
		Slug:   "about",
		Locale: "es",
		Mode:   reconcile.ModeReplace,
		Blocks: []blocks.Block{{"type": "intro", "title": "Hola"}},
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !res.Created || !res.Changed {
		t.Fatalf("expected translation creation, got %+v", res)
	}
	content, err := f.delivery.ResolvePageContent(ctx, "about", "es")
	if err != nil || content == nil || content.Locale != "es" || len(content.Blocks) != 1 {
		t.Fatalf("expected exact es content after apply, got %+v, %v", content, err)
	}
}

func TestApplyBlocksErrors(t *testing.T) {
	f := newFixture(t, seeding.WithValidator(blocks.NewValidator(blocks.DefaultCatalog())))
	ctx := context.Background()

	if _, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{Slug: "missing", Locale: "en"}); !pages.IsNotFound(err) {
		t.Fatalf("expected page not found, got %v", err)
	}
	if _, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{Slug: "services"}); !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error for missing locale, got %v", err)
	}
	if _, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{Slug: "services", Locale: "en", Mode: "upsert"}); !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error for unknown mode, got %v", err)
	}
	_, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{
		Slug:   "services",
		Locale: "en",
		Blocks: []blocks.Block{{"type": "hero", "tagline": "no title"}},
	})
	if !errors.Is(err, blocks.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestApplyBlocksSerializesConcurrentWriters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "services"}); err != nil {
		t.Fatalf("provision: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{
				Slug:   "services",
				Locale: "en",
				Blocks: []blocks.Block{{"type": "serviceDetails", "serviceId": fmt.Sprintf("svc-%d", i)}},
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	seq, err := f.delivery.GetPageContent(ctx, "services", "en")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(seq) != writers {
		t.Fatalf("expected %d blocks from serialized merges, got %d", writers, len(seq))
	}
}

func TestSettingsAndPartnerWritesInvalidate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if got, _ := f.delivery.GetSiteSettings(ctx, "en"); got != nil {
		t.Fatalf("expected no settings, got %+v", got)
	}
	if _, err := f.seeding.UpsertSiteSettings(ctx, seeding.SiteSettingsRequest{Locale: "en", SiteName: "Acme"}); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}
	if got, _ := f.delivery.GetSiteSettings(ctx, "en"); got == nil || got.SiteName != "Acme" {
		t.Fatalf("expected settings after write, got %+v", got)
	}
	if _, err := f.seeding.UpsertSiteSettings(ctx, seeding.SiteSettingsRequest{Locale: "en"}); !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if list, _ := f.delivery.GetPartners(ctx, "es"); len(list) != 0 {
		t.Fatalf("expected no partners, got %+v", list)
	}
	if _, err := f.seeding.UpsertPartner(ctx, &partners.Partner{Slug: "acme", Name: "Acme", IsActive: true}); err != nil {
		t.Fatalf("upsert partner: %v", err)
	}
	list, _ := f.delivery.GetPartners(ctx, "es")
	if len(list) != 1 || list[0].Description != nil {
		t.Fatalf("expected partner without description, got %+v", list)
	}
	if _, err := f.seeding.UpsertPartnerDescription(ctx, seeding.PartnerDescriptionRequest{Slug: "acme", Locale: "en", Description: "Partner"}); err != nil {
		t.Fatalf("upsert description: %v", err)
	}
	list, _ = f.delivery.GetPartners(ctx, "es")
	if len(list) != 1 || list[0].Description == nil || *list[0].Description != "Partner" {
		t.Fatalf("expected en fallback description for es, got %+v", list)
	}
}

func TestLocaleWritesInvalidateFallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.seeding.UpsertLocale(ctx, &locales.Locale{Code: "fr", Name: "French", IsEnabled: true}); err != nil {
		t.Fatalf("upsert fr: %v", err)
	}
	if _, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "home", Locales: []string{"en", "fr"}}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if _, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{Slug: "home", Locale: "fr", Blocks: []blocks.Block{{"type": "intro", "title": "Bonjour"}}}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	content, err := f.delivery.ResolvePageContent(ctx, "home", "de")
	if err != nil || content == nil || content.Locale != "en" {
		t.Fatalf("expected en default, got %+v, %v", content, err)
	}
	if err := f.seeding.SetDefaultLocale(ctx, "fr"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	content, err = f.delivery.ResolvePageContent(ctx, "home", "de")
	if err != nil || content == nil || content.Locale != "fr" {
		t.Fatalf("expected fr default after locale change, got %+v, %v", content, err)
	}
}

func TestReadsNormalizeSlugLikeWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.seeding.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: "About Us"}); err != nil {
		t.Fatalf("provision: %v", err)
	}
	if _, err := f.seeding.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{
		Slug:   "About Us",
		Locale: "en",
		Mode:   "replace",
		Blocks: []blocks.Block{{"type": "about", "title": "Who we are"}},
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	for _, requested := range []string{"about-us", "About Us"} {
		got, err := f.delivery.GetPageContent(ctx, requested, "en")
		if err != nil {
			t.Fatalf("get %q: %v", requested, err)
		}
		if len(got) != 1 || got[0].String("title") != "Who we are" {
			t.Fatalf("expected %q to resolve the seeded page, got %#v", requested, got)
		}
	}
}
