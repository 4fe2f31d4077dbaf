package pageblocks

import "github.com/goliatone/go-pageblocks/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired   = runtimeconfig.ErrDefaultLocaleRequired
	ErrEnvironmentInvalid      = runtimeconfig.ErrEnvironmentInvalid
	ErrStorageProviderUnknown  = runtimeconfig.ErrStorageProviderUnknown
	ErrStorageDialectUnknown   = runtimeconfig.ErrStorageDialectUnknown
	ErrStorageDSNRequired      = runtimeconfig.ErrStorageDSNRequired
	ErrCacheModeInvalid        = runtimeconfig.ErrCacheModeInvalid
	ErrCacheBackendUnknown     = runtimeconfig.ErrCacheBackendUnknown
	ErrCacheRevalidateInvalid  = runtimeconfig.ErrCacheRevalidateInvalid
	ErrRedisAddrRequired       = runtimeconfig.ErrRedisAddrRequired
	ErrLockingProviderUnknown  = runtimeconfig.ErrLockingProviderUnknown
	ErrLockingTTLInvalid       = runtimeconfig.ErrLockingTTLInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
)

const (
	EnvironmentDevelopment = runtimeconfig.EnvironmentDevelopment
	EnvironmentProduction  = runtimeconfig.EnvironmentProduction

	CacheModeAuto    = runtimeconfig.CacheModeAuto
	CacheModeBypass  = runtimeconfig.CacheModeBypass
	CacheModeEnabled = runtimeconfig.CacheModeEnabled
)

type (
	Config                = runtimeconfig.Config
	StorageConfig         = runtimeconfig.StorageConfig
	CacheConfig           = runtimeconfig.CacheConfig
	RepositoryCacheConfig = runtimeconfig.RepositoryCacheConfig
	RedisConfig           = runtimeconfig.RedisConfig
	LockingConfig         = runtimeconfig.LockingConfig
	SeedingConfig         = runtimeconfig.SeedingConfig
	LoggingConfig         = runtimeconfig.LoggingConfig
	Features              = runtimeconfig.Features
)

// DefaultConfig returns an in-memory production setup.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
