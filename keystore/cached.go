package keystore

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Cached wraps a Store with an expiring LRU cache. Concurrent loads of the
// same key are coalesced into one call to the underlying store. Errors are
// never cached.
type Cached struct {
	store Store
	cache *expirable.LRU[cacheKey, string]
	group singleflight.Group

	// gen is bumped by every invalidation. A load that started under an
	// older generation does not populate the cache.
	mu  sync.Mutex
	gen uint64
}

type cacheKey struct {
	kind Kind
	name string
}

func (k cacheKey) String() string {
	return string(k.kind) + "/" + k.name
}

// NewCached returns a caching Store in front of store. A size of zero
// means unlimited entries and a ttl of zero means entries never expire.
func NewCached(store Store, size int, ttl time.Duration) *Cached {
	return &Cached{
		store: store,
		cache: expirable.NewLRU[cacheKey, string](size, nil, ttl),
	}
}

// LoadPublicKeyPEM implements Store.
func (c *Cached) LoadPublicKeyPEM(ctx context.Context, name string) (string, error) {
	return c.load(ctx, cacheKey{kind: KindPublic, name: name})
}

// LoadPrivateKeyPEM implements Store.
func (c *Cached) LoadPrivateKeyPEM(ctx context.Context, name string) (string, error) {
	return c.load(ctx, cacheKey{kind: KindPrivate, name: name})
}

// Invalidate drops both cached keys of name, e.g. after key rotation.
// Loads already in flight are not cached.
func (c *Cached) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++

	for _, kind := range []Kind{KindPublic, KindPrivate} {
		key := cacheKey{kind: kind, name: name}
		c.cache.Remove(key)
		c.group.Forget(key.String())
	}
}

// Put writes through to the underlying store when it is a Writer and
// invalidates the cached keys of name.
func (c *Cached) Put(ctx context.Context, name, publicPEM, privatePEM string) error {
	w, ok := c.store.(Writer)
	if !ok {
		return ErrNotWritable
	}

	err := w.Put(ctx, name, publicPEM, privatePEM)
	c.Invalidate(name)

	return err
}

func (c *Cached) load(ctx context.Context, key cacheKey) (string, error) {
	if pem, ok := c.cache.Get(key); ok {
		return pem, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		c.mu.Lock()
		gen := c.gen
		c.mu.Unlock()

		// Shared by every waiter, so not bound to this caller's cancellation.
		pem, err := load(context.WithoutCancel(ctx), c.store, key.kind, key.name)
		if err != nil {
			return "", err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.cache.Add(key, pem)
		}
		c.mu.Unlock()

		return pem, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	}
}
