package cache

import (
	"fmt"

	"github.com/erp/orderdesk/internal/infrastructure/config"
	"github.com/erp/orderdesk/internal/infrastructure/persistence"
	"go.uber.org/zap"
)

// Factory builds the resource cache selected by configuration
type Factory struct {
	cacheConfig           config.CacheConfig
	redisConfig           config.RedisConfig
	store                 *persistence.ClientStore
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithClientStore supplies the client store used by the sqlite driver
func WithClientStore(store *persistence.ClientStore) FactoryOption {
	return func(f *Factory) {
		f.store = store
	}
}

// WithInMemoryFallback controls whether an unusable driver degrades to memory.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cacheCfg config.CacheConfig, redisCfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cacheConfig:           cacheCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns the configured cache, falling back to memory when allowed
func (f *Factory) Create() (ResourceCache, error) {
	cfg := f.cacheConfig
	var (
		c   ResourceCache
		err error
	)
	switch cfg.Driver {
	case "", "memory":
		f.logger.Info("using in-memory resource cache", zap.Duration("ttl", cfg.TTL))
		return NewInMemoryResourceCache(cfg.TTL), nil
	case "redis":
		c, err = NewRedisResourceCache(RedisConfig{
			Addr:     f.redisConfig.Addr(),
			Password: f.redisConfig.Password,
			DB:       f.redisConfig.DB,
		}, cfg.KeyPrefix, cfg.TTL)
	case "sqlite":
		if f.store == nil {
			err = fmt.Errorf("sqlite cache needs a client store")
		} else {
			c = NewStoreResourceCache(f.store, cfg.KeyPrefix, cfg.TTL)
		}
	default:
		err = fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
	if err == nil {
		f.logger.Info("using resource cache", zap.String("driver", cfg.Driver), zap.Duration("ttl", cfg.TTL))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("resource cache %s unavailable: %w", cfg.Driver, err)
	}
	f.logger.Warn("resource cache unavailable, falling back to in-memory cache",
		zap.String("driver", cfg.Driver),
		zap.Error(err),
	)
	return NewInMemoryResourceCache(cfg.TTL), nil
}
