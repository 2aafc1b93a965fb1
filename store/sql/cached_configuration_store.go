package sqlstore

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/goliatone/go-custody/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const configurationCacheKeyPrefix = "go-custody::configuration::v1"

// CachedConfigurationStore serves configuration reads from a cache. Every
// successful save moves reads to a new generation key, so a load that
// fetched the previous row while the save ran can only populate a key no
// later read uses.
type CachedConfigurationStore struct {
	base  core.ConfigurationStore
	cache repositorycache.CacheService

	mu         sync.Mutex
	generation uint64
}

func NewCachedConfigurationStore(
	base core.ConfigurationStore,
	cacheService repositorycache.CacheService,
) (*CachedConfigurationStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base configuration store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: configuration cache service is required")
	}
	return &CachedConfigurationStore{base: base, cache: cacheService}, nil
}

// ConfigurationCacheKey returns go-custody::configuration::v1::<row id>.
func ConfigurationCacheKey() string {
	return configurationCacheKeyPrefix + "::" + ConfigurationRowID
}

// GenerationCacheKey returns the cache key reads use at generation.
func GenerationCacheKey(generation uint64) string {
	return ConfigurationCacheKey() + "::" + strconv.FormatUint(generation, 10)
}

func (s *CachedConfigurationStore) currentKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GenerationCacheKey(s.generation)
}

func (s *CachedConfigurationStore) Load(ctx context.Context) (core.Configuration, error) {
	if err := s.configured(); err != nil {
		return core.Configuration{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, s.currentKey(), func(ctx context.Context) (core.Configuration, error) {
		return s.base.Load(ctx)
	})
}

// LoadUncached reads the base store directly.
func (s *CachedConfigurationStore) LoadUncached(ctx context.Context) (core.Configuration, error) {
	if err := s.configured(); err != nil {
		return core.Configuration{}, err
	}
	return s.base.Load(ctx)
}

func (s *CachedConfigurationStore) Save(ctx context.Context, cfg core.Configuration) error {
	if err := s.configured(); err != nil {
		return err
	}
	if err := s.base.Save(ctx, cfg); err != nil {
		return err
	}

	s.mu.Lock()
	previous := GenerationCacheKey(s.generation)
	s.generation++
	s.mu.Unlock()

	return s.cache.Delete(ctx, previous)
}

func (s *CachedConfigurationStore) configured() error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached configuration store is not configured")
	}
	return nil
}
