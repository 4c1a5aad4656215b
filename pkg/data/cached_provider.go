package data

import (
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/macroquant/regime-analyzer/pkg/types"
)

// MemoryCache implements PriceCache using in-memory storage
type MemoryCache struct {
	cache map[string][]types.AssetBar
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string][]types.AssetBar),
	}
}

// Get retrieves bars from cache if available
func (c *MemoryCache) Get(key string) ([]types.AssetBar, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	bars, exists := c.cache[key]
	if !exists {
		return nil, false
	}

	// Return a copy to prevent external modifications
	result := make([]types.AssetBar, len(bars))
	copy(result, bars)
	return result, true
}

// Set stores bars in cache
func (c *MemoryCache) Set(key string, bars []types.AssetBar) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	cached := make([]types.AssetBar, len(bars))
	copy(cached, bars)
	c.cache[key] = cached
}

// Clear removes all cached data
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cache = make(map[string][]types.AssetBar)
}

// Size returns the number of cached entries
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return len(c.cache)
}

// CachedPriceProvider wraps a PriceProvider with caching. The sensitivity
// runner reloads the same price files for every threshold combination, so
// repeated loads are the common case.
type CachedPriceProvider struct {
	provider PriceProvider
	cache    PriceCache
}

// NewCachedPriceProvider creates a caching wrapper with the default cache
func NewCachedPriceProvider(provider PriceProvider) *CachedPriceProvider {
	return &CachedPriceProvider{
		provider: provider,
		cache:    NewMemoryCache(),
	}
}

// GetName returns the name of the underlying provider with cache indication
func (p *CachedPriceProvider) GetName() string {
	return "Cached " + p.provider.GetName()
}

// LoadPrices loads a close series, serving repeat requests from cache
func (p *CachedPriceProvider) LoadPrices(source, symbol string) ([]types.AssetBar, error) {
	if cached, exists := p.cache.Get(source); exists {
		return cached, nil
	}

	log.Debug().Str("file", filepath.Base(source)).Str("symbol", symbol).Msg("loading price data")
	bars, err := p.provider.LoadPrices(source, symbol)
	if err != nil {
		return nil, err
	}

	p.cache.Set(source, bars)
	return bars, nil
}
