package seeding

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
)

// ProvisionPageRequest creates a page with placeholder translations. Locales
// defaults to every enabled locale.
type ProvisionPageRequest struct {
	Slug        string
	Locales     []string
	Placeholder []blocks.Block
}

func (r ProvisionPageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Locales, validation.Each(validation.Required, validation.By(notBlank))),
	)
}

// ApplyBlocksRequest reconciles Blocks into the translation for (Slug, Locale).
type ApplyBlocksRequest struct {
	Slug   string
	Locale string
	Mode   reconcile.Mode
	Blocks []blocks.Block
}

func (r ApplyBlocksRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Locale, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Mode, validation.In(reconcile.Mode(""), reconcile.ModeMerge, reconcile.ModeReplace)),
	)
}

// SiteSettingsRequest upserts one settings translation.
type SiteSettingsRequest struct {
	Key      string
	Locale   string
	SiteName string
	Tagline  string
	Fields   map[string]any
}

func (r SiteSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Locale, validation.Required, validation.By(notBlank)),
		validation.Field(&r.SiteName, validation.Required),
	)
}

// PartnerDescriptionRequest upserts one partner translation.
type PartnerDescriptionRequest struct {
	Slug        string
	Locale      string
	Description string
}

func (r PartnerDescriptionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required, validation.By(notBlank)),
		validation.Field(&r.Locale, validation.Required, validation.By(notBlank)),
	)
}

func notBlank(value any) error {
	if s, ok := value.(string); ok && s != "" && strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

type validatable interface {
	Validate() error
}

func validateRequest(req validatable, message string) error {
	if err := req.Validate(); err != nil {
		return goerrors.FromOzzoValidation(err, message)
	}
	return nil
}
