package cachecmd_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pageblocks/internal/cache"
	cachecmd "github.com/goliatone/go-pageblocks/internal/commands/cache"
)

type recordingInvalidator struct {
	tags    []string
	cleared bool
	err     error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, tags ...string) error {
	r.tags = append(r.tags, tags...)
	return r.err
}

func (r *recordingInvalidator) Clear(context.Context) error {
	r.cleared = true
	return r.err
}

func TestInvalidateCacheCommandTargets(t *testing.T) {
	msg := cachecmd.InvalidateCacheCommand{
		Tags:      []string{"custom"},
		Pages:     []cachecmd.PageRef{{Slug: "services", Locale: "EN"}},
		Resources: []string{"partners"},
	}
	want := []string{"custom", "page:services:en", cache.TagPagesAll, cache.TagPartnersAll}
	if got := msg.Targets(); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestInvalidateCacheCommandValidate(t *testing.T) {
	if err := (cachecmd.InvalidateCacheCommand{}).Validate(); err == nil {
		t.Fatal("expected error without targets")
	}
	if err := (cachecmd.InvalidateCacheCommand{Pages: []cachecmd.PageRef{{Slug: "home"}}}).Validate(); err == nil {
		t.Fatal("expected error for page without locale")
	}
	if err := (cachecmd.InvalidateCacheCommand{Resources: []string{"menus"}}).Validate(); err == nil {
		t.Fatal("expected error for unknown resource")
	}
	if err := (cachecmd.InvalidateCacheCommand{All: true}).Validate(); err != nil {
		t.Fatalf("expected all to be valid, got %v", err)
	}
}

func TestInvalidateCacheHandler(t *testing.T) {
	ctx := context.Background()
	rec := &recordingInvalidator{}
	handler := cachecmd.NewInvalidateCacheHandler(rec, nil, cachecmd.FeatureGates{})

	if err := handler.Execute(ctx, cachecmd.InvalidateCacheCommand{Resources: []string{"locales"}}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !slices.Equal(rec.tags, cache.LocaleChangeTags()) {
		t.Fatalf("expected locale change tags, got %v", rec.tags)
	}
	if err := handler.Execute(ctx, cachecmd.InvalidateCacheCommand{All: true}); err != nil || !rec.cleared {
		t.Fatalf("expected clear, got cleared=%v err=%v", rec.cleared, err)
	}

	err := handler.Execute(ctx, cachecmd.InvalidateCacheCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}

	boom := errors.New("redis down")
	failing := cachecmd.NewInvalidateCacheHandler(&recordingInvalidator{err: boom}, nil, cachecmd.FeatureGates{})
	err = failing.Execute(ctx, cachecmd.InvalidateCacheCommand{Tags: []string{"pages:all"}})
	if !errors.Is(err, boom) || !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected wrapped backend error, got %v", err)
	}

	gated := cachecmd.NewInvalidateCacheHandler(rec, nil, cachecmd.FeatureGates{CacheEnabled: func() bool { return false }})
	if err := gated.Execute(ctx, cachecmd.InvalidateCacheCommand{All: true}); !errors.Is(err, cachecmd.ErrCacheDisabled) {
		t.Fatalf("expected ErrCacheDisabled, got %v", err)
	}
}

func TestInvalidateCacheHandlerAgainstService(t *testing.T) {
	ctx := context.Background()
	svc := cache.NewService(cache.NewMemoryStore())
	calls := 0
	compute := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}
	read := func() {
		if _, err := cache.Cached(ctx, svc, cache.Key("page", "services", "en"), cache.PageTags("services", "en"), cache.Forever(), compute); err != nil {
			t.Fatalf("cached: %v", err)
		}
	}

	read()
	handler := cachecmd.NewInvalidateCacheHandler(svc, nil, cachecmd.FeatureGates{})
	if err := handler.Execute(ctx, cachecmd.InvalidateCacheCommand{Pages: []cachecmd.PageRef{{Slug: "services", Locale: "en"}}}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	read()
	if calls != 2 {
		t.Fatalf("expected recompute after command, got %d computes", calls)
	}
}
