package di

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-pageblocks/internal/blocks"
	"github.com/goliatone/go-pageblocks/internal/cache"
	"github.com/goliatone/go-pageblocks/internal/delivery"
	"github.com/goliatone/go-pageblocks/internal/hydration"
	"github.com/goliatone/go-pageblocks/internal/locales"
	"github.com/goliatone/go-pageblocks/internal/locking"
	"github.com/goliatone/go-pageblocks/internal/logging"
	"github.com/goliatone/go-pageblocks/internal/logging/console"
	"github.com/goliatone/go-pageblocks/internal/logging/gologger"
	"github.com/goliatone/go-pageblocks/internal/pages"
	"github.com/goliatone/go-pageblocks/internal/partners"
	"github.com/goliatone/go-pageblocks/internal/reconcile"
	"github.com/goliatone/go-pageblocks/internal/runtimeconfig"
	"github.com/goliatone/go-pageblocks/internal/seeding"
	"github.com/goliatone/go-pageblocks/internal/settings"
	"github.com/goliatone/go-pageblocks/internal/storage"
	"github.com/goliatone/go-pageblocks/pkg/interfaces"
)

const diModule = "pageblocks.di"

// Container wires module dependencies from a runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	bunDB         *bun.DB
	ownsDB        bool
	redisClient   redis.UniversalClient
	ownsRedis     bool
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	loggerProvider interfaces.LoggerProvider
	cacheStore     interfaces.CacheStore
	locker         interfaces.Locker

	localeRepo   locales.Repository
	pageRepo     pages.Repository
	settingsRepo settings.Repository
	partnerRepo  partners.Repository

	catalog  *blocks.Catalog
	hydrator *hydration.Registry

	localeSvc   locales.Service
	cacheSvc    *cache.Service
	deliverySvc *delivery.Service
	seedingSvc  *seeding.Service
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithBunDB makes the container use db for storage regardless of the
// configured provider. The caller keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the repository cache used by bun repositories.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithCacheStore overrides the tag cache backend.
func WithCacheStore(store interfaces.CacheStore) Option {
	return func(c *Container) {
		c.cacheStore = store
	}
}

// WithRedisClient supplies the client used by redis cache and lock backends.
// The caller keeps ownership of client.
func WithRedisClient(client redis.UniversalClient) Option {
	return func(c *Container) {
		c.redisClient = client
	}
}

func WithLocker(locker interfaces.Locker) Option {
	return func(c *Container) {
		c.locker = locker
	}
}

// WithLoggerProvider overrides the provider built from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithCatalog replaces the default block variant catalog.
func WithCatalog(catalog *blocks.Catalog) Option {
	return func(c *Container) {
		c.catalog = catalog
	}
}

// WithHydrator replaces the default hydration registry.
func WithHydrator(registry *hydration.Registry) Option {
	return func(c *Container) {
		c.hydrator = registry
	}
}

// NewContainer validates cfg and builds every service.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	ctx := context.Background()
	steps := []func(context.Context) error{
		c.configureLoggerProvider,
		c.configureStorage,
		c.configureRedis,
		c.configureCache,
		c.configureLocker,
		c.configureServices,
		c.seedLocales,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
	}

	logging.ModuleLogger(c.loggerProvider, diModule).Info("container.configured",
		"storage", c.storageName(),
		"cache_backend", c.cacheBackendName(),
		"cache_bypassed", c.cacheSvc.Bypassed(),
		"locking", normalize(cfg.Locking.Provider, "memory"),
	)
	return c, nil
}

func (c *Container) configureLoggerProvider(context.Context) error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	logCfg := c.Config.Logging
	switch normalize(logCfg.Provider, "console") {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     logCfg.Level,
			Format:    logCfg.Format,
			AddSource: logCfg.AddSource,
			Focus:     logCfg.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		level, _ := console.ParseLevel(logCfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{MinLevel: &level})
	}
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.bunDB == nil && normalize(c.Config.Storage.Provider, "memory") == "memory" {
		c.localeRepo = locales.NewMemoryRepository()
		c.pageRepo = pages.NewMemoryRepository()
		c.settingsRepo = settings.NewMemoryRepository()
		c.partnerRepo = partners.NewMemoryRepository()
		return nil
	}

	if c.bunDB == nil {
		db, err := storage.Open(storage.Options{
			Dialect: c.Config.Storage.Dialect,
			DSN:     c.Config.Storage.DSN,
		})
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.Config.Storage.CreateSchema {
		if err := storage.CreateSchema(ctx, c.bunDB); err != nil {
			return err
		}
	}

	c.configureCacheDefaults()
	if c.cacheService != nil && c.keySerializer != nil {
		c.localeRepo = locales.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.pageRepo = pages.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.settingsRepo = settings.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		c.partnerRepo = partners.NewBunRepositoryWithCache(c.bunDB, c.cacheService, c.keySerializer)
		return nil
	}
	c.localeRepo = locales.NewBunRepository(c.bunDB)
	c.pageRepo = pages.NewBunRepository(c.bunDB)
	c.settingsRepo = settings.NewBunRepository(c.bunDB)
	c.partnerRepo = partners.NewBunRepository(c.bunDB)
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Repository.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if ttl := c.Config.Cache.Repository.TTL; ttl > 0 {
			cfg.TTL = ttl
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureRedis(context.Context) error {
	if c.redisClient != nil {
		return nil
	}
	needsRedis := (c.cacheStore == nil && normalize(c.Config.Cache.Backend, "memory") == "redis") ||
		(c.locker == nil && normalize(c.Config.Locking.Provider, "memory") == "redis")
	if !needsRedis {
		return nil
	}
	c.redisClient = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Addr,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	c.ownsRedis = true
	return nil
}

func (c *Container) configureCache(context.Context) error {
	if c.cacheStore == nil {
		switch normalize(c.Config.Cache.Backend, "memory") {
		case "redis":
			c.cacheStore = cache.NewRedisStore(c.redisClient, c.Config.Cache.Namespace)
		default:
			c.cacheStore = cache.NewMemoryStore()
		}
	}
	c.cacheSvc = cache.NewService(c.cacheStore,
		cache.WithBypass(c.Config.CacheBypassed()),
		cache.WithLogger(logging.CacheLogger(c.loggerProvider)),
	)
	return nil
}

func (c *Container) configureLocker(context.Context) error {
	if c.locker != nil {
		return nil
	}
	switch normalize(c.Config.Locking.Provider, "memory") {
	case "redis":
		c.locker = locking.NewRedisLocker(c.redisClient, c.Config.Locking.RetryInterval, c.Config.Locking.RetryLimit)
	default:
		c.locker = locking.NewMemoryLocker()
	}
	return nil
}

func (c *Container) configureServices(context.Context) error {
	if c.catalog == nil {
		c.catalog = blocks.DefaultCatalog()
	}
	if c.hydrator == nil {
		c.hydrator = hydration.DefaultRegistry()
	}
	c.localeSvc = locales.NewService(c.localeRepo, locales.WithDefaultLocale(c.Config.DefaultLocale))

	deliverySvc, err := delivery.NewService(delivery.Dependencies{
		Locales:  c.localeSvc,
		Pages:    c.pageRepo,
		Settings: c.settingsRepo,
		Partners: c.partnerRepo,
		Cache:    c.cacheSvc,
		Hydrator: c.hydrator,
	},
		delivery.WithLocalesRevalidate(c.Config.Cache.LocalesRevalidate),
		delivery.WithLogger(logging.DeliveryLogger(c.loggerProvider)),
	)
	if err != nil {
		return err
	}
	c.deliverySvc = deliverySvc

	seedingOpts := []seeding.Option{
		seeding.WithLockTTL(c.Config.Locking.TTL),
		seeding.WithLogger(logging.SeedingLogger(c.loggerProvider)),
	}
	if c.Config.Seeding.StrictBlocks {
		seedingOpts = append(seedingOpts, seeding.WithValidator(blocks.NewValidator(c.catalog)))
	}
	seedingSvc, err := seeding.NewService(seeding.Dependencies{
		Locales:  c.localeSvc,
		Pages:    c.pageRepo,
		Settings: c.settingsRepo,
		Partners: c.partnerRepo,
		Cache:    c.cacheSvc,
		Locker:   c.locker,
		Engine:   reconcile.New(c.catalog),
	}, seedingOpts...)
	if err != nil {
		return err
	}
	c.seedingSvc = seedingSvc
	return nil
}

// seedLocales creates configured locales that are not stored yet. Existing
// records are left as they are.
func (c *Container) seedLocales(ctx context.Context) error {
	defaultCode := locales.NormalizeCode(c.Config.DefaultLocale)
	codes := []string{defaultCode}
	for _, code := range c.Config.Locales {
		code = locales.NormalizeCode(code)
		if code != "" && !slices.Contains(codes, code) {
			codes = append(codes, code)
		}
	}

	logger := logging.ModuleLogger(c.loggerProvider, diModule)
	for _, code := range codes {
		if _, err := c.localeSvc.Get(ctx, code); err == nil {
			continue
		} else if !locales.IsNotFound(err) {
			return fmt.Errorf("di: seed locale %s: %w", code, err)
		}
		if _, err := c.localeSvc.Upsert(ctx, &locales.Locale{
			Code:      code,
			Name:      code,
			IsEnabled: true,
			IsDefault: code == defaultCode,
		}); err != nil {
			return fmt.Errorf("di: seed locale %s: %w", code, err)
		}
		logger.Debug("locales.seeded", "locale", code)
	}
	return nil
}

// Close releases the database and redis client when the container opened them.
func (c *Container) Close(context.Context) error {
	var errs []error
	if c.ownsRedis && c.redisClient != nil {
		errs = append(errs, c.redisClient.Close())
		c.redisClient = nil
	}
	if c.ownsDB && c.bunDB != nil {
		errs = append(errs, c.bunDB.Close())
		c.bunDB = nil
	}
	return errors.Join(errs...)
}

func (c *Container) DeliveryService() *delivery.Service { return c.deliverySvc }

func (c *Container) SeedingService() *seeding.Service { return c.seedingSvc }

func (c *Container) LocaleService() locales.Service { return c.localeSvc }

// CacheService returns the tag cache shared by the read and write paths.
func (c *Container) CacheService() *cache.Service { return c.cacheSvc }

func (c *Container) Locker() interfaces.Locker { return c.locker }

func (c *Container) Catalog() *blocks.Catalog { return c.catalog }

func (c *Container) Hydrator() *hydration.Registry { return c.hydrator }

// LoggerProvider may be nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

// BunDB returns nil for in-memory storage.
func (c *Container) BunDB() *bun.DB { return c.bunDB }

func (c *Container) storageName() string {
	if c.bunDB == nil {
		return "memory"
	}
	return "bun:" + normalize(c.Config.Storage.Dialect, "sqlite")
}

func (c *Container) cacheBackendName() string {
	switch c.cacheStore.(type) {
	case *cache.RedisStore:
		return "redis"
	case *cache.MemoryStore:
		return "memory"
	default:
		return "custom"
	}
}

func normalize(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
