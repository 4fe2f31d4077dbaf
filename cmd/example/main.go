package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-pageblocks"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/seeding"
)

//go:embed content/*.md
var contentFS embed.FS

func main() {
	ctx := context.Background()

	cfg := pageblocks.DefaultConfig()
	cfg.DefaultLocale = "en"
	cfg.Locales = []string{"en", "es", "fr"}
	cfg.Features.Logger = true
	cfg.Logging.Level = "debug"

	module, err := pageblocks.New(cfg)
	if err != nil {
		log.Fatalf("initialise module: %v", err)
	}
	defer module.Close(ctx)

	if err := seed(ctx, module); err != nil {
		log.Fatalf("seed: %v", err)
	}

	delivery := module.Delivery()
	for _, locale := range []string{"en", "es", "fr"} {
		content, err := delivery.ResolvePageContent(ctx, "home", locale)
		if err != nil {
			log.Fatalf("resolve home/%s: %v", locale, err)
		}
		printJSON(fmt.Sprintf("page home (%s)", locale), content)
	}

	settings, err := delivery.GetSiteSettings(ctx, "fr")
	if err != nil {
		log.Fatalf("site settings: %v", err)
	}
	printJSON("site settings (fr)", settings)

	list, err := delivery.GetPartners(ctx, "es")
	if err != nil {
		log.Fatalf("partners: %v", err)
	}
	printJSON("partners (es)", list)

	locales, err := delivery.GetEnabledLocales(ctx)
	if err != nil {
		log.Fatalf("locales: %v", err)
	}
	printJSON("enabled locales", locales)
}

func seed(ctx context.Context, module *pageblocks.Module) error {
	service := module.Seeding()

	if _, err := service.ProvisionPage(ctx, pageblocks.ProvisionPageRequest{Slug: "home"}); err != nil {
		return err
	}
	manifests, err := seeding.LoadManifests(ctx, contentFS, "content", "*.md")
	if err != nil {
		return err
	}
	if _, err := service.ApplyManifests(ctx, manifests); err != nil {
		return err
	}

	if _, err := service.UpsertSiteSettings(ctx, pageblocks.SiteSettingsRequest{
		Locale:   "en",
		SiteName: "Northwind Studio",
		Tagline:  "Strategy that ships",
		Fields:   map[string]any{"email": "hello@example.com"},
	}); err != nil {
		return err
	}

	if _, err := service.UpsertPartner(ctx, &partners.Partner{
		Slug:       "acme",
		Name:       "Acme",
		LogoURL:    "/logos/acme.svg",
		WebsiteURL: "https://acme.example.com",
		IsActive:   true,
	}); err != nil {
		return err
	}
	_, err = service.UpsertPartnerDescription(ctx, pageblocks.PartnerDescriptionRequest{
		Slug:        "acme",
		Locale:      "en",
		Description: "Long-running delivery partner.",
	})
	return err
}

func printJSON(label string, value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		log.Fatalf("encode %s: %v", label, err)
	}
	fmt.Fprintf(os.Stdout, "== %s\n%s\n", label, data)
}
