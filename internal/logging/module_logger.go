package logging

import (
	"context"
	"maps"

	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

const (
	rootModule     = "pageblocks"
	deliveryModule = "pageblocks.delivery"
	cacheModule    = "pageblocks.cache"
	seedingModule  = "pageblocks.seeding"
	commandsModule = "pageblocks.commands"
)

// ModuleLogger resolves the logger for module from provider and tags it with a
// module field. A nil provider yields a no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}
	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

func DeliveryLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, deliveryModule)
}

func CacheLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, cacheModule)
}

func SeedingLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, seedingModule)
}

// CommandsLogger scopes the commands logger to a handler group such as
// "pages" or "cache". An empty group yields the shared commands logger.
func CommandsLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	if group == "" {
		return ModuleLogger(provider, commandsModule)
	}
	return ModuleLogger(provider, commandsModule+"."+group)
}

// WithFields attaches fields when logger implements interfaces.FieldsLogger and
// returns logger untouched otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return logger
}

// WithPageContext annotates logger with the page slug and locale being served
// or written. Empty values are skipped.
func WithPageContext(logger interfaces.Logger, slug, locale string) interfaces.Logger {
	fields := map[string]any{}
	if slug != "" {
		fields["slug"] = slug
	}
	if locale != "" {
		fields["locale"] = locale
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
