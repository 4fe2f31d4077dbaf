package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/goliatone/go-pageblocks/cmd/seed/internal/bootstrap"
	"github.com/goliatone/go-pageblocks/internal/seeding"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runSeed(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func runSeed(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	dir := fs.String("dir", "content/pages", "Directory holding seed manifests")
	pattern := fs.String("pattern", "*.md", "Glob pattern applied to manifest file names")
	dialect := fs.String("dialect", "sqlite", "Database dialect (sqlite or postgres)")
	dsn := fs.String("dsn", "", "Database DSN (empty seeds an in-memory store)")
	createSchema := fs.Bool("create-schema", true, "Create missing tables before seeding")
	locales := fs.String("locales", "", "Comma separated list of locales to ensure")
	defaultLocale := fs.String("default-locale", "en", "Default locale used for fallback")
	redisAddr := fs.String("redis-addr", "", "Redis address shared with the running site")
	provision := fs.Bool("provision", true, "Create pages named by manifests when missing")
	strict := fs.Bool("strict", false, "Validate blocks against their variant schemas")
	dryRun := fs.Bool("dry-run", false, "Parse manifests and print them without writing")
	logLevel := fs.String("log-level", "info", "Log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()

	manifests, err := seeding.LoadManifests(ctx, os.DirFS(*dir), ".", *pattern)
	if err != nil {
		return fmt.Errorf("load manifests: %w", err)
	}
	if len(manifests) == 0 {
		fmt.Fprintf(out, "no manifests matching %s in %s\n", *pattern, *dir)
		return nil
	}
	if *dryRun {
		for _, m := range manifests {
			fmt.Fprintf(out, "%s: %s/%s %s (%d blocks)\n", m.Path, m.Page, m.Locale, m.Mode, len(m.Blocks))
		}
		return nil
	}

	module, err := moduleBuilder(bootstrap.Options{
		Dialect:       *dialect,
		DSN:           *dsn,
		CreateSchema:  *createSchema,
		DefaultLocale: *defaultLocale,
		Locales:       bootstrap.SplitLocales(*locales),
		RedisAddr:     *redisAddr,
		StrictBlocks:  *strict,
		LogLevel:      *logLevel,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Module.Close(ctx)

	service := module.Module.Seeding()
	if *provision {
		for _, m := range manifests {
			res, err := service.ProvisionPage(ctx, seeding.ProvisionPageRequest{
				Slug:    m.Page,
				Locales: []string{m.Locale},
			})
			if err != nil {
				return fmt.Errorf("provision %s: %w", m.Path, err)
			}
			if res.Created || len(res.CreatedLocales) > 0 {
				module.Logger.Info("seed.page.provisioned", "slug", res.Page.Slug,
					"locales", strings.Join(res.CreatedLocales, ","))
			}
		}
	}

	results, err := service.ApplyManifests(ctx, manifests)
	for i, res := range results {
		status := "unchanged"
		if res.Changed {
			status = "updated"
		}
		fmt.Fprintf(out, "%s: %s/%s %s %s\n", manifests[i].Path, res.Slug, res.Locale, res.Mode, status)
	}
	if err != nil {
		return fmt.Errorf("apply manifests: %w", err)
	}
	return nil
}
