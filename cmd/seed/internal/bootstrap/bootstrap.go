package bootstrap

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-pageblocks"
	"github.com/goliatone/go-pageblocks/internal/di"
	"github.com/goliatone/go-pageblocks/internal/logging"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

// Options captures configuration for the seed CLI bootstrap.
type Options struct {
	Dialect       string
	DSN           string
	CreateSchema  bool
	DefaultLocale string
	Locales       []string
	// RedisAddr points the cache and lock backends at a shared redis so the
	// running site sees invalidations made by the seeder.
	RedisAddr      string
	StrictBlocks   bool
	LogLevel       string
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the pageblocks module and the seeding logger.
type Module struct {
	Module *pageblocks.Module
	Logger interfaces.Logger
}

// BuildModule constructs a module configured for seeding a SQL database.
// An empty DSN selects in-memory storage.
func BuildModule(opts Options) (*Module, error) {
	cfg := pageblocks.DefaultConfig()
	cfg.Cache.Mode = pageblocks.CacheModeEnabled

	if dsn := strings.TrimSpace(opts.DSN); dsn != "" {
		cfg.Storage.Provider = "bun"
		cfg.Storage.DSN = dsn
		cfg.Storage.CreateSchema = opts.CreateSchema
		if dialect := strings.TrimSpace(opts.Dialect); dialect != "" {
			cfg.Storage.Dialect = dialect
		}
	}

	if defaultLocale := strings.TrimSpace(opts.DefaultLocale); defaultLocale != "" {
		cfg.DefaultLocale = defaultLocale
	}
	cfg.Locales = append([]string{cfg.DefaultLocale}, opts.Locales...)

	if addr := strings.TrimSpace(opts.RedisAddr); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Cache.Backend = "redis"
		cfg.Locking.Provider = "redis"
	}
	cfg.Seeding.StrictBlocks = opts.StrictBlocks

	cfg.Features.Logger = true
	cfg.Logging.Provider = "console"
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}

	module, err := pageblocks.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise pageblocks module: %w", err)
	}

	return &Module{
		Module: module,
		Logger: logging.SeedingLogger(module.Container().LoggerProvider()),
	}, nil
}

// SplitLocales parses a comma separated locale list into a trimmed slice.
func SplitLocales(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	locales := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			locales = append(locales, trimmed)
		}
	}
	return locales
}
