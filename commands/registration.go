package commands

import (
	"errors"

	internalcommands "github.com/goliatone/go-pageblocks/internal/commands"
	cachecmd "github.com/goliatone/go-pageblocks/internal/commands/cache"
	pagescmd "github.com/goliatone/go-pageblocks/internal/commands/pages"
	"github.com/goliatone/go-pageblocks/internal/di"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

// ErrNoHandlers is returned when the container exposes no command services.
var ErrNoHandlers = errors.New("no command handlers registered; ensure services are configured and required features enabled")

type (
	CommandRegistry     = internalcommands.CommandRegistry
	CommandDispatcher   = internalcommands.CommandDispatcher
	CommandSubscription = internalcommands.CommandSubscription
)

// RegistrationOptions configures how handlers are registered during construction.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	LoggerProvider interfaces.LoggerProvider
}

// RegistrationResult captures the constructed command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// Close unsubscribes every dispatcher subscription.
func (r *RegistrationResult) Close() {
	if r == nil {
		return
	}
	for _, sub := range r.Subscriptions {
		if sub != nil {
			sub.Unsubscribe()
		}
	}
	r.Subscriptions = nil
}

// RegisterContainerCommands builds the command handlers exposed by the provided container and
// optionally registers them with registry and dispatcher integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}

	cfg := container.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = container.LoggerProvider()
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	loggerFor := func(module string) interfaces.Logger {
		return internalcommands.CommandLogger(provider, module)
	}

	// Page commands.
	if service := container.SeedingService(); service != nil {
		gates := pagescmd.FeatureGates{
			CommandsEnabled: func() bool { return cfg.Features.Commands },
		}
		register(pagescmd.NewReconcileBlocksHandler(service, loggerFor("pages"), gates))
	}

	// Cache commands.
	if service := container.CacheService(); service != nil {
		gates := cachecmd.FeatureGates{
			CacheEnabled: func() bool { return cfg.Features.Commands && !service.Bypassed() },
		}
		register(cachecmd.NewInvalidateCacheHandler(service, loggerFor("cache"), gates))
	}

	if len(result.Handlers) == 0 {
		return result, errors.Join(errs, ErrNoHandlers)
	}

	return result, errs
}
