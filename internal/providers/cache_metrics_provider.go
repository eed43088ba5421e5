package providers

import "visitd/internal/structures"

// locatorCache counts boundary lookups served from the cache against those
// that fell through to the polygon index.
type locatorCache struct {
	CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *locatorCache) Get(point string) ([]byte, bool) {
	region, ok := c.CacheProviderInterface.Get(point)
	if !ok {
		c.metrics.IncCacheMisses()
		return nil, false
	}
	c.metrics.IncCacheHits()
	return region, true
}

// NewInstrumentedCacheProvider returns the boundary lookup cache. A disabled
// cache is returned bare so it reports no misses.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &locatorCache{CacheProviderInterface: inner, metrics: metrics}
}
