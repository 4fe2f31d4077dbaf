package cachecmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/commands"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

const invalidateCacheMessageType = "cms.cache.invalidate"

var ErrCacheDisabled = errors.New("cache command: cache disabled")

// FeatureGates exposes the runtime toggle required by cache command handlers.
type FeatureGates struct {
	CacheEnabled func() bool
}

func (g FeatureGates) cacheEnabled() bool {
	if g.CacheEnabled == nil {
		return true
	}
	return g.CacheEnabled()
}

// Invalidator is the slice of the cache service used by the command.
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
	Clear(ctx context.Context) error
}

// PageRef addresses one page translation.
type PageRef struct {
	Slug   string `json:"slug"`
	Locale string `json:"locale"`
}

// InvalidateCacheCommand drops cached entries by tag. Pages expand to their
// page and pages:all tags; Resources accepts "pages", "settings", "partners"
// and "locales"; All clears everything.
type InvalidateCacheCommand struct {
	Tags      []string  `json:"tags,omitempty"`
	Pages     []PageRef `json:"pages,omitempty"`
	Resources []string  `json:"resources,omitempty"`
	All       bool      `json:"all,omitempty"`
}

// Type implements command.Message.
func (InvalidateCacheCommand) Type() string { return invalidateCacheMessageType }

// Validate requires at least one target.
func (m InvalidateCacheCommand) Validate() error {
	errs := validation.Errors{}
	if !m.All && len(m.Tags) == 0 && len(m.Pages) == 0 && len(m.Resources) == 0 {
		errs["tags"] = validation.NewError("cms.cache.invalidate.target_required", "tags, pages, resources or all is required")
	}
	for i, ref := range m.Pages {
		if strings.TrimSpace(ref.Slug) == "" || strings.TrimSpace(ref.Locale) == "" {
			errs[fmt.Sprintf("pages.%d", i)] = validation.NewError("cms.cache.invalidate.page_invalid", "page requires slug and locale")
		}
	}
	for _, resource := range m.Resources {
		if _, ok := resourceTags(resource); !ok {
			errs["resources"] = validation.NewError("cms.cache.invalidate.resource_unknown", "unknown resource "+resource)
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Targets expands the command into the tag list passed to the cache.
func (m InvalidateCacheCommand) Targets() []string {
	var tags []string
	tags = append(tags, m.Tags...)
	for _, ref := range m.Pages {
		tags = append(tags, cache.PageTags(ref.Slug, ref.Locale)...)
	}
	for _, resource := range m.Resources {
		expanded, _ := resourceTags(resource)
		tags = append(tags, expanded...)
	}
	return tags
}

func resourceTags(resource string) ([]string, bool) {
	switch strings.ToLower(strings.TrimSpace(resource)) {
	case "pages":
		return []string{cache.TagPagesAll}, true
	case "settings":
		return []string{cache.TagSettingsAll}, true
	case "partners":
		return []string{cache.TagPartnersAll}, true
	case "locales":
		return cache.LocaleChangeTags(), true
	default:
		return nil, false
	}
}

// InvalidateCacheHandler drops cached delivery results.
type InvalidateCacheHandler struct {
	inner *commands.Handler[InvalidateCacheCommand]
}

func NewInvalidateCacheHandler(service Invalidator, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[InvalidateCacheCommand]) *InvalidateCacheHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg InvalidateCacheCommand) error {
		if !gates.cacheEnabled() {
			return ErrCacheDisabled
		}
		if msg.All {
			if err := service.Clear(ctx); err != nil {
				return err
			}
			baseLogger.Info("cache.command.cleared")
			return nil
		}
		tags := msg.Targets()
		if err := service.Invalidate(ctx, tags...); err != nil {
			return err
		}
		baseLogger.Info("cache.command.invalidated", "tags", tags)
		return nil
	}

	handlerOpts := []commands.HandlerOption[InvalidateCacheCommand]{
		commands.WithLogger[InvalidateCacheCommand](baseLogger),
		commands.WithOperation[InvalidateCacheCommand]("cache.invalidate"),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &InvalidateCacheHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[InvalidateCacheCommand].
func (h *InvalidateCacheHandler) Execute(ctx context.Context, msg InvalidateCacheCommand) error {
	return h.inner.Execute(ctx, msg)
}

var _ Invalidator = (*cache.Service)(nil)
