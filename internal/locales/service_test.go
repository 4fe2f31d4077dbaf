package locales_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/pkg/testsupport"
)

func seedLocales(t *testing.T, svc locales.Service) {
	t.Helper()
	ctx := context.Background()
	for _, l := range []*locales.Locale{
		{Code: "fr", Name: "French", NativeName: "Français", IsEnabled: true},
		{Code: "EN", Name: "English", IsEnabled: true, IsDefault: true},
		{Code: "ar", Name: "Arabic", IsEnabled: true, IsRTL: true},
		{Code: "de", Name: "German"},
	} {
		if _, err := svc.Upsert(ctx, l); err != nil {
			t.Fatalf("upsert %s: %v", l.Code, err)
		}
	}
}

func runServiceContract(t *testing.T, repo locales.Repository) {
	ctx := context.Background()
	svc := locales.NewService(repo, locales.WithDefaultLocale("fr"))
	seedLocales(t, svc)

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].Code != "fr" || all[1].Code != "en" {
		t.Fatalf("expected insertion order with normalized codes, got %+v", all)
	}

	enabled, err := svc.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	got := []string{}
	for _, l := range enabled {
		got = append(got, l.Code)
	}
	if len(got) != 3 || got[0] != "en" || got[1] != "ar" || got[2] != "fr" {
		t.Fatalf("expected [en ar fr], got %v", got)
	}

	if err := svc.SetDefault(ctx, "fr"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	defaults := 0
	all, _ = svc.List(ctx)
	for _, l := range all {
		if l.IsDefault {
			defaults++
			if l.Code != "fr" {
				t.Fatalf("expected fr default, got %s", l.Code)
			}
		}
	}
	if defaults != 1 {
		t.Fatalf("expected exactly one default, got %d", defaults)
	}

	if err := svc.SetDefault(ctx, "de"); !errors.Is(err, locales.ErrDefaultDisabled) {
		t.Fatalf("expected ErrDefaultDisabled, got %v", err)
	}
	if _, err := svc.Get(ctx, "xx"); !locales.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}

	fb, err := svc.Fallback(ctx)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if fb.Default != "fr" || fb.Enabled["de"] || !fb.Enabled["ar"] {
		t.Fatalf("unexpected fallback %+v", fb)
	}
}

func TestServiceWithMemoryRepository(t *testing.T) {
	runServiceContract(t, locales.NewMemoryRepository())
}

func TestServiceWithBunRepository(t *testing.T) {
	db := testsupport.NewBunDB(t, (*locales.Locale)(nil))
	runServiceContract(t, locales.NewBunRepository(db))
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := locales.NewService(locales.NewMemoryRepository())

	if _, err := svc.Upsert(ctx, &locales.Locale{Code: " "}); !errors.Is(err, locales.ErrCodeRequired) {
		t.Fatalf("expected ErrCodeRequired, got %v", err)
	}
	if _, err := svc.Upsert(ctx, &locales.Locale{Code: "en"}); !errors.Is(err, locales.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
	if _, err := svc.Upsert(ctx, &locales.Locale{Code: "en", Name: "English", IsDefault: true}); !errors.Is(err, locales.ErrDefaultDisabled) {
		t.Fatalf("expected ErrDefaultDisabled, got %v", err)
	}

	fb, err := svc.Fallback(ctx)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if fb.Enabled != nil {
		t.Fatalf("expected unrestricted fallback with no stored locales, got %+v", fb)
	}
}

func TestBunRepositoryKeepsDisabledLocales(t *testing.T) {
	ctx := context.Background()
	db := testsupport.NewBunDB(t, (*locales.Locale)(nil))
	repo := locales.NewBunRepository(db)

	if _, err := repo.Upsert(ctx, &locales.Locale{Code: "de", Name: "German"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.GetByCode(ctx, "de")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.IsEnabled {
		t.Fatal("expected locale created disabled to stay disabled")
	}
}
