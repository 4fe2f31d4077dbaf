package pagescmd

import (
	"context"
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/commands"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
	"github.com/goliatone/go-pageblocks/internal/seeding"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

const reconcileBlocksMessageType = "cms.pages.blocks.reconcile"

var (
	ErrCommandsDisabled     = errors.New("pages command: commands disabled")
	ErrProvisioningDisabled = errors.New("pages command: provisioning disabled")
)

// BlockWriter is the slice of the seeding service used by page commands.
type BlockWriter interface {
	ProvisionPage(ctx context.Context, req seeding.ProvisionPageRequest) (*seeding.ProvisionResult, error)
	ApplyBlocks(ctx context.Context, req seeding.ApplyBlocksRequest) (*seeding.ApplyResult, error)
}

// ReconcileBlocksCommand merges or replaces the blocks of one page
// translation. Provision creates the page first when it does not exist.
type ReconcileBlocksCommand struct {
	Slug      string           `json:"slug"`
	Locale    string           `json:"locale"`
	Mode      string           `json:"mode,omitempty"`
	Blocks    []map[string]any `json:"blocks"`
	Provision bool             `json:"provision,omitempty"`
}

// Type implements command.Message.
func (ReconcileBlocksCommand) Type() string { return reconcileBlocksMessageType }

// Validate ensures the command addresses a translation and names a known mode.
func (m ReconcileBlocksCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Slug) == "" {
		errs["slug"] = validation.NewError("cms.pages.blocks.reconcile.slug_required", "slug is required")
	}
	if strings.TrimSpace(m.Locale) == "" {
		errs["locale"] = validation.NewError("cms.pages.blocks.reconcile.locale_required", "locale is required")
	}
	if _, err := reconcile.ParseMode(m.Mode); err != nil {
		errs["mode"] = validation.NewError("cms.pages.blocks.reconcile.mode_invalid", "mode must be merge or replace")
	}
	for _, block := range m.Blocks {
		if blocks.Block(block).Type() == "" {
			errs["blocks"] = validation.NewError("cms.pages.blocks.reconcile.block_type_required", "every block needs a type")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ReconcileBlocksHandler applies block sequences through the seeding service.
type ReconcileBlocksHandler struct {
	inner *commands.Handler[ReconcileBlocksCommand]
}

func NewReconcileBlocksHandler(service BlockWriter, logger interfaces.Logger, gates FeatureGates, opts ...commands.HandlerOption[ReconcileBlocksCommand]) *ReconcileBlocksHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg ReconcileBlocksCommand) error {
		if !gates.commandsEnabled() {
			return ErrCommandsDisabled
		}
		if msg.Provision {
			if !gates.provisioningEnabled() {
				return ErrProvisioningDisabled
			}
			if _, err := service.ProvisionPage(ctx, seeding.ProvisionPageRequest{Slug: msg.Slug}); err != nil {
				return err
			}
		}
		mode, err := reconcile.ParseMode(msg.Mode)
		if err != nil {
			return err
		}
		res, err := service.ApplyBlocks(ctx, seeding.ApplyBlocksRequest{
			Slug:   msg.Slug,
			Locale: msg.Locale,
			Mode:   mode,
			Blocks: blocks.FromMaps(msg.Blocks),
		})
		if err != nil {
			return err
		}
		baseLogger.Info("pages.command.blocks.reconciled",
			"slug", res.Slug, "locale", res.Locale, "mode", string(res.Mode), "changed", res.Changed)
		return nil
	}

	handlerOpts := []commands.HandlerOption[ReconcileBlocksCommand]{
		commands.WithLogger[ReconcileBlocksCommand](baseLogger),
		commands.WithOperation[ReconcileBlocksCommand]("pages.blocks.reconcile"),
		commands.WithMessageFields(func(msg ReconcileBlocksCommand) map[string]any {
			fields := map[string]any{"blocks": len(msg.Blocks)}
			if slug := strings.TrimSpace(msg.Slug); slug != "" {
				fields["slug"] = slug
			}
			if locale := strings.TrimSpace(msg.Locale); locale != "" {
				fields["locale"] = locale
			}
			if msg.Mode != "" {
				fields["mode"] = msg.Mode
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[ReconcileBlocksCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ReconcileBlocksHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ReconcileBlocksCommand].
func (h *ReconcileBlocksHandler) Execute(ctx context.Context, msg ReconcileBlocksCommand) error {
	return h.inner.Execute(ctx, msg)
}
