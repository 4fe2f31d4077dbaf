package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrDefaultLocaleRequired = errors.New("pageblocks config: default locale is required")
var ErrEnvironmentInvalid = errors.New("pageblocks config: environment must be development or production")

// ErrStorageProviderUnknown indicates a storage provider other than memory or bun.
var ErrStorageProviderUnknown = errors.New("pageblocks config: storage provider is invalid")
var ErrStorageDialectUnknown = errors.New("pageblocks config: storage dialect is invalid")
var ErrStorageDSNRequired = errors.New("pageblocks config: storage dsn is required for the bun provider")

var ErrCacheModeInvalid = errors.New("pageblocks config: cache mode is invalid")
var ErrCacheBackendUnknown = errors.New("pageblocks config: cache backend is invalid")
var ErrCacheRevalidateInvalid = errors.New("pageblocks config: locales revalidate period must be zero or positive")

// ErrRedisAddrRequired guards redis backed cache and locking.
var ErrRedisAddrRequired = errors.New("pageblocks config: redis address is required when a redis backend is selected")
var ErrLockingProviderUnknown = errors.New("pageblocks config: locking provider is invalid")
var ErrLockingTTLInvalid = errors.New("pageblocks config: locking ttl must be positive")

var ErrLoggingProviderRequired = errors.New("pageblocks config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("pageblocks config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("pageblocks config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("pageblocks config: logging format is invalid")

// Environment names accepted by Config.Environment.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Cache modes. Auto bypasses the cache in development and enables it otherwise.
const (
	CacheModeAuto    = "auto"
	CacheModeBypass  = "bypass"
	CacheModeEnabled = "enabled"
)

// Config aggregates storage, cache and locking bindings for the content module.
type Config struct {
	DefaultLocale string
	// Locales are created at startup when missing. The default locale is always
	// included.
	Locales     []string
	Environment string
	Storage     StorageConfig
	Cache       CacheConfig
	Redis       RedisConfig
	Locking     LockingConfig
	Seeding     SeedingConfig
	Logging     LoggingConfig
	Features    Features
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Provider string
	Dialect  string
	DSN      string
	// CreateSchema creates missing tables when the module starts.
	CreateSchema bool
}

// CacheConfig captures the tag cache and the optional repository cache.
type CacheConfig struct {
	Mode              string
	Backend           string
	Namespace         string
	LocalesRevalidate time.Duration
	Repository        RepositoryCacheConfig
}

// RepositoryCacheConfig toggles the go-repository-cache wrapper on bun repositories.
type RepositoryCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LockingConfig serializes administrative writes per page and locale.
type LockingConfig struct {
	Provider      string
	TTL           time.Duration
	RetryInterval time.Duration
	RetryLimit    int
}

type SeedingConfig struct {
	StrictBlocks bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles optional behaviour.
type Features struct {
	Logger   bool
	Commands bool
}

// DefaultConfig returns an in-memory production setup.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Locales:       []string{"en"},
		Environment:   EnvironmentProduction,
		Storage: StorageConfig{
			Provider: "memory",
			Dialect:  "sqlite",
		},
		Cache: CacheConfig{
			Mode:              CacheModeAuto,
			Backend:           "memory",
			Namespace:         "pageblocks",
			LocalesRevalidate: time.Hour,
			Repository: RepositoryCacheConfig{
				TTL: time.Minute,
			},
		},
		Locking: LockingConfig{
			Provider:      "memory",
			TTL:           30 * time.Second,
			RetryInterval: 100 * time.Millisecond,
			RetryLimit:    50,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// IsDevelopment reports whether the environment is development.
func (cfg Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(cfg.Environment), EnvironmentDevelopment)
}

// CacheBypassed resolves the cache mode against the environment.
func (cfg Config) CacheBypassed() bool {
	switch normalize(cfg.Cache.Mode) {
	case CacheModeBypass:
		return true
	case CacheModeEnabled:
		return false
	default:
		return cfg.IsDevelopment()
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.DefaultLocale) == "" {
		return ErrDefaultLocaleRequired
	}
	switch normalize(cfg.Environment) {
	case "", EnvironmentDevelopment, EnvironmentProduction:
	default:
		return fmt.Errorf("%w: %s", ErrEnvironmentInvalid, cfg.Environment)
	}

	switch normalize(cfg.Storage.Provider) {
	case "", "memory":
	case "bun":
		switch normalize(cfg.Storage.Dialect) {
		case "sqlite", "postgres":
		default:
			return fmt.Errorf("%w: %s", ErrStorageDialectUnknown, cfg.Storage.Dialect)
		}
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return ErrStorageDSNRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrStorageProviderUnknown, cfg.Storage.Provider)
	}

	switch normalize(cfg.Cache.Mode) {
	case "", CacheModeAuto, CacheModeBypass, CacheModeEnabled:
	default:
		return fmt.Errorf("%w: %s", ErrCacheModeInvalid, cfg.Cache.Mode)
	}
	switch normalize(cfg.Cache.Backend) {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return ErrRedisAddrRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrCacheBackendUnknown, cfg.Cache.Backend)
	}
	if cfg.Cache.LocalesRevalidate < 0 {
		return ErrCacheRevalidateInvalid
	}

	switch normalize(cfg.Locking.Provider) {
	case "", "memory":
	case "redis":
		if strings.TrimSpace(cfg.Redis.Addr) == "" {
			return ErrRedisAddrRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrLockingProviderUnknown, cfg.Locking.Provider)
	}
	if cfg.Locking.TTL <= 0 {
		return ErrLockingTTLInvalid
	}

	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
