package delivery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/delivery"
	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/pages"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/settings"
)

type fixture struct {
	service  *delivery.Service
	cache    *cache.Service
	pages    *pages.MemoryRepository
	settings *settings.MemoryRepository
	partners *partners.MemoryRepository
	locales  locales.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	localeSvc := locales.NewService(locales.NewMemoryRepository())
	for _, l := range []*locales.Locale{
		{Code: "en", Name: "English", IsEnabled: true, IsDefault: true},
		{Code: "es", Name: "Spanish", NativeName: "Español", IsEnabled: true},
		{Code: "fr", Name: "French", IsEnabled: true},
		{Code: "de", Name: "German"},
	} {
		if _, err := localeSvc.Upsert(ctx, l); err != nil {
			t.Fatalf("upsert locale %s: %v", l.Code, err)
		}
	}

	f := &fixture{
		cache:    cache.NewService(cache.NewMemoryStore()),
		pages:    pages.NewMemoryRepository(),
		settings: settings.NewMemoryRepository(),
		partners: partners.NewMemoryRepository(),
		locales:  localeSvc,
	}
	svc, err := delivery.NewService(delivery.Dependencies{
		Locales:  localeSvc,
		Pages:    f.pages,
		Settings: f.settings,
		Partners: f.partners,
		Cache:    f.cache,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.service = svc
	return f
}

func (f *fixture) page(t *testing.T, slug string, translations map[string][]blocks.Block, order ...string) *pages.Page {
	t.Helper()
	ctx := context.Background()
	page, err := f.pages.Create(ctx, &pages.Page{Slug: slug})
	if err != nil {
		t.Fatalf("create page: %v", err)
	}
	for _, locale := range order {
		if _, err := f.pages.CreateTranslation(ctx, &pages.PageTranslation{
			PageID:     page.ID,
			LocaleCode: locale,
			Blocks:     translations[locale],
		}); err != nil {
			t.Fatalf("create translation %s: %v", locale, err)
		}
	}
	return page
}

func (f *fixture) replace(t *testing.T, page *pages.Page, locale string, seq []blocks.Block) {
	t.Helper()
	ctx := context.Background()
	tr, err := f.pages.GetTranslation(ctx, page.ID, locale)
	if err != nil {
		t.Fatalf("get translation: %v", err)
	}
	if err := f.pages.ReplaceBlocks(ctx, tr.ID, seq); err != nil {
		t.Fatalf("replace blocks: %v", err)
	}
}

func TestResolvePageContentFallback(t *testing.T) {
	f := newFixture(t)
	f.page(t, "services", map[string][]blocks.Block{
		"fr": {{"type": "hero", "title": "Services FR"}},
		"en": {{"type": "hero", "title": "Services EN"}},
	}, "fr", "en")
	f.page(t, "legal", map[string][]blocks.Block{
		"de": {{"type": "hero", "title": "Impressum"}},
	}, "de")
	ctx := context.Background()

	cases := []struct {
		slug, locale string
		wantLocale   string
		wantTier     string
	}{
		{"services", "fr", "fr", "exact"},
		{"services", "es", "en", "default"},
		{"services", "zz-unknown", "en", "default"},
		{"services", "", "en", "default"},
		{"legal", "de", "de", "exact"},
		{"legal", "en", "", ""},
		{"missing", "en", "", ""},
	}
	for _, tc := range cases {
		content, err := f.service.ResolvePageContent(ctx, tc.slug, tc.locale)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error %v", tc.slug, tc.locale, err)
		}
		if tc.wantLocale == "" {
			if content != nil {
				t.Fatalf("%s/%s: expected no content, got %+v", tc.slug, tc.locale, content)
			}
			continue
		}
		if content == nil || content.Locale != tc.wantLocale || content.Tier != tc.wantTier {
			t.Fatalf("%s/%s: expected %s via %s, got %+v", tc.slug, tc.locale, tc.wantLocale, tc.wantTier, content)
		}
	}
}

func TestGetPageContentCachesUntilInvalidated(t *testing.T) {
	f := newFixture(t)
	page := f.page(t, "services", map[string][]blocks.Block{
		"en": {{"type": "hero", "title": "v1"}},
		"fr": {{"type": "hero", "title": "fr v1"}},
	}, "en", "fr")
	ctx := context.Background()

	read := func(locale string) string {
		t.Helper()
		seq, err := f.service.GetPageContent(ctx, "services", locale)
		if err != nil {
			t.Fatalf("get page content: %v", err)
		}
		if len(seq) != 1 {
			t.Fatalf("expected one block, got %+v", seq)
		}
		return seq[0].String("title")
	}

	if got := read("en"); got != "v1" {
		t.Fatalf("expected v1, got %q", got)
	}
	read("fr")
	f.replace(t, page, "en", []blocks.Block{{"type": "hero", "title": "v2"}})
	if got := read("en"); got != "v1" {
		t.Fatalf("expected cached v1 before invalidation, got %q", got)
	}
	if err := f.cache.Invalidate(ctx, cache.PageTag("services", "en")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if got := read("en"); got != "v2" {
		t.Fatalf("expected v2 after invalidation, got %q", got)
	}

	f.replace(t, page, "fr", []blocks.Block{{"type": "hero", "title": "fr v2"}})
	if err := f.cache.Invalidate(ctx, cache.PageTag("services", "en")); err != nil {
		t.Fatalf("invalidate en: %v", err)
	}
	if got := read("fr"); got != "fr v1" {
		t.Fatalf("expected fr to stay cached after en invalidation, got %q", got)
	}
}

func TestFallbackReadIsTaggedWithResolvedLocale(t *testing.T) {
	f := newFixture(t)
	page := f.page(t, "about", map[string][]blocks.Block{
		"en": {{"type": "hero", "title": "About v1"}},
	}, "en")
	ctx := context.Background()

	if _, err := f.service.GetPageContent(ctx, "about", "es"); err != nil {
		t.Fatalf("first read: %v", err)
	}
	f.replace(t, page, "en", []blocks.Block{{"type": "hero", "title": "About v2"}})
	if err := f.cache.Invalidate(ctx, cache.PageTag("about", "en")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	seq, err := f.service.GetPageContent(ctx, "about", "es")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if len(seq) != 1 || seq[0].String("title") != "About v2" {
		t.Fatalf("expected fallback read to observe the en write, got %+v", seq)
	}
}

func TestGetPageContentHydratesAfterCache(t *testing.T) {
	f := newFixture(t)
	f.page(t, "work", map[string][]blocks.Block{
		"en": {
			{"type": "gallery", "galleryId": "g1", "images": []any{
				map[string]any{"url": "/a.png", "alt": "A"},
				map[string]any{"alt": "missing url"},
			}},
			{"type": "cta", "label": "Contact"},
		},
	}, "en")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		seq, err := f.service.GetPageContent(ctx, "work", "en")
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		images, _ := seq[0]["images"].([]any)
		if len(images) != 1 {
			t.Fatalf("read %d: expected malformed image dropped, got %+v", i, seq[0]["images"])
		}
		if seq[1].String("label") != "Contact" {
			t.Fatalf("read %d: expected cta untouched, got %+v", i, seq[1])
		}
	}

	stored, err := f.pages.GetBySlug(ctx, "work")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	tr, err := f.pages.GetTranslation(ctx, stored.ID, "en")
	if err != nil {
		t.Fatalf("get translation: %v", err)
	}
	if images, _ := tr.Blocks[0]["images"].([]any); len(images) != 2 {
		t.Fatalf("expected stored blocks untouched, got %+v", tr.Blocks[0]["images"])
	}
}

func TestGetSiteSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.service.GetSiteSettings(ctx, "en")
	if err != nil || got != nil {
		t.Fatalf("expected nil settings before seeding, got %+v, %v", got, err)
	}

	record, err := f.settings.Ensure(ctx, settings.DefaultKey)
	if err != nil {
		t.Fatalf("ensure settings: %v", err)
	}
	if _, err := f.settings.UpsertTranslation(ctx, &settings.SiteSettingsTranslation{
		SettingsID: record.ID,
		LocaleCode: "en",
		SiteName:   "Acme",
		Fields:     map[string]any{"phone": "+1 555"},
	}); err != nil {
		t.Fatalf("upsert translation: %v", err)
	}
	if err := f.cache.Invalidate(ctx, cache.SettingsTags("en")...); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	got, err = f.service.GetSiteSettings(ctx, "fr")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got == nil || got.Locale != "en" || got.SiteName != "Acme" || got.Fields["phone"] != "+1 555" {
		t.Fatalf("expected en fallback settings, got %+v", got)
	}
}

func TestGetPartners(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.service.GetPartners(ctx, "en")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v, %v", empty, err)
	}
	if err := f.cache.Invalidate(ctx, cache.TagPartnersAll); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	acme, _ := f.partners.Upsert(ctx, &partners.Partner{Slug: "acme", Name: "Acme", Position: 1, IsActive: true})
	globex, _ := f.partners.Upsert(ctx, &partners.Partner{Slug: "globex", Name: "Globex", Position: 2, IsActive: true})
	if _, err := f.partners.Upsert(ctx, &partners.Partner{Slug: "hidden", Name: "Hidden", Position: 0}); err != nil {
		t.Fatalf("upsert hidden: %v", err)
	}
	for _, tr := range []*partners.PartnerTranslation{
		{PartnerID: acme.ID, LocaleCode: "es", Description: "Socio"},
		{PartnerID: acme.ID, LocaleCode: "en", Description: "Partner"},
		{PartnerID: globex.ID, LocaleCode: "de", Description: "Partner DE"},
	} {
		if _, err := f.partners.UpsertTranslation(ctx, tr); err != nil {
			t.Fatalf("upsert translation: %v", err)
		}
	}

	list, err := f.service.GetPartners(ctx, "es")
	if err != nil {
		t.Fatalf("get partners: %v", err)
	}
	if len(list) != 2 || list[0].Slug != "acme" || list[1].Slug != "globex" {
		t.Fatalf("expected active partners [acme globex], got %+v", list)
	}
	if list[0].Description == nil || *list[0].Description != "Socio" {
		t.Fatalf("expected exact es description, got %v", list[0].Description)
	}
	if list[1].Description != nil {
		t.Fatalf("expected nil description for disabled-only translation, got %q", *list[1].Description)
	}
}

func TestGetEnabledLocales(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.service.GetEnabledLocales(ctx)
	if err != nil {
		t.Fatalf("get enabled locales: %v", err)
	}
	if len(list) != 3 || list[0].Code != "en" || !list[0].IsDefault {
		t.Fatalf("expected en first among three enabled locales, got %+v", list)
	}
	if list[1].Code != "es" || list[1].NativeName != "Español" || list[2].Code != "fr" {
		t.Fatalf("expected [en es fr], got %+v", list)
	}

	if _, err := f.locales.Upsert(ctx, &locales.Locale{Code: "de", Name: "German", IsEnabled: true}); err != nil {
		t.Fatalf("enable de: %v", err)
	}
	list, _ = f.service.GetEnabledLocales(ctx)
	if len(list) != 3 {
		t.Fatalf("expected cached list until invalidated, got %+v", list)
	}
	if err := f.cache.Invalidate(ctx, cache.LocaleChangeTags()...); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	list, _ = f.service.GetEnabledLocales(ctx)
	if len(list) != 4 {
		t.Fatalf("expected de after invalidation, got %+v", list)
	}
}

type failingPages struct {
	pages.Repository
	err error
}

func (f failingPages) GetBySlug(context.Context, string) (*pages.Page, error) {
	return nil, f.err
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	svc, err := delivery.NewService(delivery.Dependencies{
		Locales: locales.NewService(locales.NewMemoryRepository()),
		Pages:   failingPages{Repository: pages.NewMemoryRepository(), err: boom},
		Cache:   cache.NewService(cache.NewMemoryStore()),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.GetPageContent(context.Background(), "services", "en"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestBypassedCacheSeesWritesImmediately(t *testing.T) {
	pagesRepo := pages.NewMemoryRepository()
	svc, err := delivery.NewService(delivery.Dependencies{
		Locales: locales.NewService(locales.NewMemoryRepository(), locales.WithDefaultLocale("en")),
		Pages:   pagesRepo,
		Cache:   cache.NewService(cache.NewMemoryStore(), cache.WithBypass(true)),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	page, _ := pagesRepo.Create(ctx, &pages.Page{Slug: "home"})
	tr, err := pagesRepo.CreateTranslation(ctx, &pages.PageTranslation{PageID: page.ID, LocaleCode: "en", Blocks: []blocks.Block{{"type": "hero", "title": "v1"}}})
	if err != nil {
		t.Fatalf("create translation: %v", err)
	}
	if seq, _ := svc.GetPageContent(ctx, "home", "en"); len(seq) != 1 || seq[0].String("title") != "v1" {
		t.Fatalf("expected v1, got %+v", seq)
	}
	if err := pagesRepo.ReplaceBlocks(ctx, tr.ID, []blocks.Block{{"type": "hero", "title": "v2"}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if seq, _ := svc.GetPageContent(ctx, "home", "en"); len(seq) != 1 || seq[0].String("title") != "v2" {
		t.Fatalf("expected v2 without invalidation, got %+v", seq)
	}
}

func TestNewServiceRequiresLocales(t *testing.T) {
	if _, err := delivery.NewService(delivery.Dependencies{}); !errors.Is(err, delivery.ErrLocalesServiceRequired) {
		t.Fatalf("expected ErrLocalesServiceRequired, got %v", err)
	}
}
