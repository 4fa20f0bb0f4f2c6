package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"spendtrack/internal/core"
	"spendtrack/internal/records"
)

const categoriesKey = "categories"

// Categories caches a records.CategoryReader. Concurrent misses share a
// single load.
type Categories struct {
	source records.CategoryReader
	lru    *LRUCache[[]core.Category]
	group  singleflight.Group
}

var _ records.CategoryReader = (*Categories)(nil)

func NewCategories(source records.CategoryReader, ttl time.Duration) *Categories {
	return &Categories{
		source: source,
		lru:    NewLRUCache[[]core.Category](1, ttl),
	}
}

// Categories returns a copy of the cached list, loading it on a miss.
// Load errors are not cached.
func (c *Categories) Categories(ctx context.Context) ([]core.Category, error) {
	if cats, ok := c.lru.Get(categoriesKey); ok {
		return append([]core.Category(nil), cats...), nil
	}
	v, err, _ := c.group.Do(categoriesKey, func() (any, error) {
		cats, err := c.source.Categories(ctx)
		if err != nil {
			return nil, err
		}
		c.lru.Set(categoriesKey, cats)
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]core.Category(nil), v.([]core.Category)...), nil
}

// Invalidate forces the next call to reload.
func (c *Categories) Invalidate() {
	c.lru.Delete(categoriesKey)
}

func (c *Categories) CleanExpired() int {
	return c.lru.CleanExpired()
}
