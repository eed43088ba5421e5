package boundary

import "strconv"

// Cache is the byte cache used to memoize lookups; providers.CacheProviderInterface satisfies it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// CachedLocator memoizes exact-coordinate lookups. Keys use the full float
// representation, so a cached answer is always the answer the index gives.
type CachedLocator struct {
	inner Locator
	cache Cache
}

func NewCachedLocator(inner Locator, cache Cache) *CachedLocator {
	return &CachedLocator{inner: inner, cache: cache}
}

func (c *CachedLocator) RegionContaining(lat, lon float64) (string, bool) {
	key := "pip:" + strconv.FormatFloat(lat, 'g', -1, 64) + "," + strconv.FormatFloat(lon, 'g', -1, 64)
	if v, ok := c.cache.Get(key); ok {
		return string(v), len(v) > 0
	}
	name, ok := c.inner.RegionContaining(lat, lon)
	if !ok {
		name = ""
	}
	c.cache.Set(key, []byte(name))
	return name, ok
}
