// Package webcache caches fetched resources (typically web pages) in a kv.Store
// for a fixed time and counts every access per resource.
//
// Keys:
//
//	count:<resource>  - access counter, bumped on every Get (hits included)
//	cache:<resource>  - last fetched content, expires TTL after it was written
//
// Expiry is left to the store; the cache never looks at timestamps.
package webcache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/replaycache"
	"github.com/unkn0wn-root/replaycache/internal/keys"
	"github.com/unkn0wn-root/replaycache/kv"
)

// DefaultTTL bounds how stale a cached resource may be.
const DefaultTTL = 10 * time.Second

// Fetcher loads the current content of a resource.
type Fetcher interface {
	Fetch(ctx context.Context, resource string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, resource string) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, resource string) (string, error) {
	return f(ctx, resource)
}

// Options configure a Cache. Store and Fetcher are required.
type Options struct {
	// Required
	Store   kv.Store
	Fetcher Fetcher

	TTL    time.Duration      // 0 => DefaultTTL
	Logger replaycache.Logger // if nil, NopLogger is used

	// By default concurrent misses for the same resource in this process
	// share one fetch. Set to fetch once per caller instead.
	DisableCoalesce bool
}

// Cache serves resources from the store while they are live and refetches
// them once the store has expired them.
type Cache struct {
	store    kv.Store
	fetcher  Fetcher
	ttl      time.Duration
	log      replaycache.Logger
	coalesce bool
	sf       singleflight.Group
}

// New validates opts and fills in defaults. It does not touch the store.
func New(opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, errors.New("webcache: store is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("webcache: fetcher is required")
	}
	if opts.TTL < 0 {
		return nil, errors.New("webcache: negative ttl")
	}
	return &Cache{
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		ttl:      coalesce[time.Duration](opts.TTL, DefaultTTL),
		log:      coalesce[replaycache.Logger](opts.Logger, replaycache.NopLogger{}),
		coalesce: !opts.DisableCoalesce,
	}, nil
}

// Get returns the content of resource, fetching it only when no live cached
// copy exists. The access counter is bumped on every call.
//
// A failed fetch is returned as a *replaycache.FetchError (unless the fetcher
// already returned one) and leaves nothing cached, so the next Get retries.
func (c *Cache) Get(ctx context.Context, resource string) (string, error) {
	ck := keys.Access(resource)
	if _, err := c.store.Incr(ctx, ck); err != nil {
		return "", &replaycache.StoreError{Op: "incr", Key: ck, Err: err}
	}

	pk := keys.Page(resource)
	raw, ok, err := c.store.Get(ctx, pk)
	if err != nil {
		return "", &replaycache.StoreError{Op: "get", Key: pk, Err: err}
	}
	if ok {
		c.log.Debug("webcache hit", replaycache.Fields{"resource": resource})
		return string(raw), nil
	}

	c.log.Debug("webcache miss", replaycache.Fields{"resource": resource})
	if !c.coalesce {
		return c.refresh(ctx, resource)
	}
	// The shared fetch must outlive any single caller, so it runs detached
	// and each caller waits on its own context.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(resource, func() (any, error) {
		return c.refresh(fetchCtx, resource)
	})
	select {
	case <-ctx.Done():
		return "", &replaycache.FetchError{Resource: resource, Err: ctx.Err()}
	case res := <-ch:
		if res.Shared {
			c.log.Debug("webcache fetch shared", replaycache.Fields{"resource": resource})
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// refresh fetches resource and caches it for the configured TTL.
func (c *Cache) refresh(ctx context.Context, resource string) (string, error) {
	body, err := c.fetcher.Fetch(ctx, resource)
	if err != nil {
		c.log.Warn("webcache fetch failed", replaycache.Fields{"resource": resource, "err": err})
		var fe *replaycache.FetchError
		if errors.As(err, &fe) {
			return "", err
		}
		return "", &replaycache.FetchError{Resource: resource, Err: err}
	}

	pk := keys.Page(resource)
	if err := c.store.Set(ctx, pk, []byte(body), c.ttl); err != nil {
		return "", &replaycache.StoreError{Op: "set", Key: pk, Err: err}
	}
	return body, nil
}

// AccessCount returns how many times Get was called for resource.
func (c *Cache) AccessCount(ctx context.Context, resource string) (int64, error) {
	ck := keys.Access(resource)
	raw, ok, err := c.store.Get(ctx, ck)
	if err != nil {
		return 0, &replaycache.StoreError{Op: "get", Key: ck, Err: err}
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, &replaycache.DecodeError{Key: ck, Type: "int64", Err: err}
	}
	return n, nil
}
