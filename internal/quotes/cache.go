package quotes

import (
	"context"
	"sync"
	"time"
)

type cacheItem struct {
	points     []ClosePoint
	expiration time.Time
}

// CachedSource wraps a Source with a short-lived per-(ticker, window) cache
// to bound upstream call volume. Entries expire after ttl; quote freshness
// still matters, so keep the ttl in single-digit minutes.
type CachedSource struct {
	source Source
	ttl    time.Duration

	mu    sync.RWMutex
	items map[string]cacheItem
}

// NewCachedSource wraps source with a ttl cache. A non-positive ttl defaults
// to 5 minutes.
func NewCachedSource(source Source, ttl time.Duration) *CachedSource {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedSource{
		source: source,
		ttl:    ttl,
		items:  make(map[string]cacheItem),
	}
}

func (c *CachedSource) Latest(ctx context.Context, ticker string) (Quote, error) {
	points, err := c.History(ctx, ticker, Day1)
	if err != nil {
		return Quote{}, err
	}
	last := points[len(points)-1]
	return Quote{Ticker: ticker, Price: last.Close, At: last.Date}, nil
}

func (c *CachedSource) History(ctx context.Context, ticker string, window Window) ([]ClosePoint, error) {
	key := ticker + "|" + window.String()

	c.mu.RLock()
	item, found := c.items[key]
	c.mu.RUnlock()
	if found && time.Now().Before(item.expiration) {
		return item.points, nil
	}

	points, err := c.source.History(ctx, ticker, window)
	if err != nil {
		// Misses are not cached: NotAvailable this tick may resolve next tick.
		return nil, err
	}

	c.mu.Lock()
	c.items[key] = cacheItem{points: points, expiration: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return points, nil
}

var _ Source = (*CachedSource)(nil)
