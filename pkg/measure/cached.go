package measure

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/collage/pkg/cache"
	"github.com/matzehuels/collage/pkg/collage"
	"github.com/matzehuels/collage/pkg/observability"
)

// Cached wraps a measurer with a byte cache. Sizes are stored as JSON under
// Keyer.SizeKey(Source, path). Concurrent measurements of the same path share
// one call to Inner.
//
// The shared call is detached from every caller's cancellation and bounded by
// Timeout instead. Each caller stops waiting when its own context ends, so a
// cancelled caller never fails the others joined to the same path.
//
// Failures are never cached, so a transient error does not hide an image
// until the TTL expires.
type Cached struct {
	Inner   collage.Measurer
	Cache   cache.Cache
	Keyer   cache.Keyer
	TTL     time.Duration
	Timeout time.Duration
	Source  string

	group singleflight.Group
}

// NewCached wraps inner. A nil keyer uses the default key layout; source
// namespaces the keys ("file", "http").
func NewCached(inner collage.Measurer, c cache.Cache, keyer cache.Keyer, source string) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Cached{
		Inner:   inner,
		Cache:   c,
		Keyer:   keyer,
		TTL:     cache.TTLSize,
		Timeout: collage.DefaultPerImageTimeout,
		Source:  source,
	}
}

// Measure returns the cached size or measures and stores it.
func (c *Cached) Measure(ctx context.Context, path string) (collage.Size, error) {
	key := c.Keyer.SizeKey(c.Source, path)
	hooks := observability.Cache()

	if data, ok, err := c.Cache.Get(ctx, key); err == nil && ok {
		var size collage.Size
		if json.Unmarshal(data, &size) == nil && !size.Empty() {
			hooks.OnCacheHit(ctx, "size")
			report(ctx, "cache", time.Now(), nil)
			return size, nil
		}
	}
	hooks.OnCacheMiss(ctx, "size")

	ch := c.group.DoChan(key, func() (any, error) {
		return c.measure(context.WithoutCancel(ctx), key, path)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return collage.Size{}, r.Err
		}
		return r.Val.(collage.Size), nil
	case <-ctx.Done():
		return collage.Size{}, ctx.Err()
	}
}

func (c *Cached) measure(ctx context.Context, key, path string) (collage.Size, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	size, err := c.Inner.Measure(ctx, path)
	if err != nil {
		return collage.Size{}, err
	}
	if data, err := json.Marshal(size); err == nil {
		if c.Cache.Set(ctx, key, data, c.TTL) == nil {
			observability.Cache().OnCacheSet(ctx, "size", len(data))
		}
	}
	return size, nil
}

var _ collage.Measurer = (*Cached)(nil)
