package webcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/replaycache"
	"github.com/unkn0wn-root/replaycache/kv/local"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type countingFetcher struct {
	calls atomic.Int64
	body  string
	err   error
}

func (f *countingFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

func newTestCache(t *testing.T, f Fetcher, mut func(*Options)) (*Cache, *local.Store, *clock) {
	t.Helper()
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	store := local.New(local.Config{Now: clk.Now})
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	opts := Options{Store: store, Fetcher: f}
	if mut != nil {
		mut(&opts)
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c, store, clk
}

func TestNewValidatesOptions(t *testing.T) {
	store := local.New(local.Config{})
	defer store.Close(context.Background())

	_, err := New(Options{Fetcher: &countingFetcher{}})
	assert.Error(t, err)
	_, err = New(Options{Store: store})
	assert.Error(t, err)
	_, err = New(Options{Store: store, Fetcher: &countingFetcher{}, TTL: -time.Second})
	assert.Error(t, err)

	c, err := New(Options{Store: store, Fetcher: &countingFetcher{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, c.ttl)
	assert.Equal(t, replaycache.Logger(replaycache.NopLogger{}), c.log)
	assert.True(t, c.coalesce)

	c, err = New(Options{Store: store, Fetcher: &countingFetcher{}, TTL: time.Minute, DisableCoalesce: true})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, c.ttl)
	assert.False(t, c.coalesce)
}

func TestGetFetchesOnceWithinTTL(t *testing.T) {
	ctx := context.Background()
	f := &countingFetcher{body: "<html>hi</html>"}
	c, _, clk := newTestCache(t, f, nil)

	const url = "http://slowwly.example/page"
	got, err := c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "<html>hi</html>", got)

	clk.Advance(5 * time.Second)
	got, err = c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "<html>hi</html>", got)
	assert.Equal(t, int64(1), f.calls.Load(), "second Get inside ttl must hit")

	clk.Advance(5 * time.Second) // 10s since write
	_, err = c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.calls.Load(), "Get after ttl must refetch")
}

func TestAccessCounterCountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	f := &countingFetcher{body: "x"}
	c, store, _ := newTestCache(t, f, nil)

	const url = "http://example.com"
	for i := 0; i < 3; i++ {
		_, err := c.Get(ctx, url)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), f.calls.Load())

	n, err := c.AccessCount(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	raw, ok, err := store.Get(ctx, "count:"+url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", string(raw))

	n, err = c.AccessCount(ctx, "http://never.example")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEmptyBodyIsCached(t *testing.T) {
	ctx := context.Background()
	f := &countingFetcher{body: ""}
	c, _, _ := newTestCache(t, f, nil)

	for i := 0; i < 2; i++ {
		got, err := c.Get(ctx, "http://empty.example")
		require.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int64(1), f.calls.Load())
}

func TestFetchFailureIsNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")
	f := &countingFetcher{err: boom}
	c, store, _ := newTestCache(t, f, nil)

	const url = "http://down.example"
	_, err := c.Get(ctx, url)
	require.Error(t, err)
	assert.ErrorIs(t, err, replaycache.ErrFetch)
	assert.ErrorIs(t, err, boom)

	_, ok, err := store.Get(ctx, "cache:"+url)
	require.NoError(t, err)
	assert.False(t, ok, "failed fetch must leave no cache entry")

	f.err = nil
	f.body = "back"
	got, err := c.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, "back", got)
	assert.Equal(t, int64(2), f.calls.Load())

	n, err := c.AccessCount(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "failed attempts are still accesses")
}

func TestConcurrentMissesShareOneFetch(t *testing.T) {
	ctx := context.Background()
	release := make(chan struct{})
	var calls atomic.Int64
	f := FetcherFunc(func(ctx context.Context, _ string) (string, error) {
		calls.Add(1)
		<-release
		return "body", nil
	})
	c, _, _ := newTestCache(t, f, nil)

	const callers = 8
	var started sync.WaitGroup
	started.Add(callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			started.Done()
			got, err := c.Get(ctx, "http://hot.example")
			if err == nil && got != "body" {
				return errors.New("unexpected body " + got)
			}
			return err
		})
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond) // let callers reach the fetch
	close(release)
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(1), calls.Load(), "concurrent misses must share one fetch")

	n, err := c.AccessCount(ctx, "http://hot.example")
	require.NoError(t, err)
	assert.Equal(t, int64(callers), n)
}

func TestDisableCoalesceStillCaches(t *testing.T) {
	ctx := context.Background()
	f := &countingFetcher{body: "x"}
	c, _, _ := newTestCache(t, f, func(o *Options) { o.DisableCoalesce = true; o.TTL = time.Minute })

	_, err := c.Get(ctx, "r")
	require.NoError(t, err)
	_, err = c.Get(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.calls.Load())
}

func TestStoreFailureIsStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	f := &countingFetcher{body: "x"}
	c, store, _ := newTestCache(t, f, nil)
	require.NoError(t, store.Close(ctx))

	_, err := c.Get(ctx, "r")
	require.Error(t, err)
	assert.ErrorIs(t, err, replaycache.ErrStoreUnavailable)
	assert.Zero(t, f.calls.Load())
}

func TestHTTPFetcherThroughCache(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("<html>ok</html>"))
		default:
			http.Error(w, "nope", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c, _, _ := newTestCache(t, HTTPFetcher{Client: srv.Client()}, nil)

	got, err := c.Get(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", got)
	_, err = c.Get(ctx, srv.URL+"/ok")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	_, err = c.Get(ctx, srv.URL+"/missing")
	var fe *replaycache.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
}

func TestHTTPFetcherBodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	_, err := HTTPFetcher{Client: srv.Client(), MaxBody: 4}.Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, replaycache.ErrFetch)

	body, err := HTTPFetcher{Client: srv.Client(), MaxBody: 10}.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", body)
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	f := FetcherFunc(func(ctx context.Context, _ string) (string, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-release:
			return "body", nil
		}
	})
	c, _, _ := newTestCache(t, f, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.Get(ctxA, "r")
		errA <- err
	}()
	<-entered

	type result struct {
		body string
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		body, err := c.Get(context.Background(), "r")
		resB <- result{body, err}
	}()
	time.Sleep(50 * time.Millisecond) // let B join the in-flight fetch

	cancelA()
	err := <-errA
	require.ErrorIs(t, err, context.Canceled, "cancelled caller returns its own ctx error")
	assert.ErrorIs(t, err, replaycache.ErrFetch)

	close(release)
	b := <-resB
	require.NoError(t, b.err, "live caller must not inherit another caller's cancellation")
	assert.Equal(t, "body", b.body)
	assert.Equal(t, int64(1), calls.Load())

	// the detached fetch still populated the cache
	got, err := c.Get(context.Background(), "r")
	require.NoError(t, err)
	assert.Equal(t, "body", got)
	assert.Equal(t, int64(1), calls.Load())
}
