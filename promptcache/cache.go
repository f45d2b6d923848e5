package promptcache

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/llmgate/promptist/prompter"
)

// CachedRephraser memoizes a deterministic Rephraser. Concurrent calls for
// the same prompt share one inference, which runs detached from any single
// caller's context and is bounded by timeout instead.
type CachedRephraser struct {
	next     prompter.Rephraser
	cache    *cache.Cache
	group    singleflight.Group
	timeout  time.Duration
	onLookup func(hit bool)
}

// NewCachedRephraser wraps next. A zero timeout leaves the shared call
// unbounded.
func NewCachedRephraser(next prompter.Rephraser, ttl, cleanupInterval, timeout time.Duration, onLookup func(hit bool)) *CachedRephraser {
	if onLookup == nil {
		onLookup = func(bool) {}
	}
	return &CachedRephraser{
		next:     next,
		cache:    cache.New(ttl, cleanupInterval),
		timeout:  timeout,
		onLookup: onLookup,
	}
}

func (c *CachedRephraser) Rephrase(ctx context.Context, input string) (string, error) {
	key := strings.TrimSpace(input)

	if cached, found := c.cache.Get(key); found {
		c.onLookup(true)
		return cached.(string), nil
	}
	c.onLookup(false)

	results := c.group.DoChan(key, func() (interface{}, error) {
		callCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(callCtx, c.timeout)
			defer cancel()
		}

		out, err := c.next.Rephrase(callCtx, input)
		if err != nil {
			return "", err
		}
		c.cache.Set(key, out, cache.DefaultExpiration)
		return out, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *CachedRephraser) Len() int {
	return c.cache.ItemCount()
}
