// Package asynchook runs a replaycache.Hook on background workers so slow
// side effects (logging, metrics export) stay off the caller's path.
//
// Events are dropped when the queue is full and inner errors are discarded,
// so never wrap hooks that record history (Tracked, CallHistory, CountCalls).
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{Every: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	c, _ := replaycache.New(ctx, replaycache.Options{
//	    Store: store,
//	    Hooks: []replaycache.Hook{hooks},
//	})
package asynchook

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/replaycache"
)

type Hooks struct {
	inner   replaycache.Hook
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ replaycache.Hook = (*Hooks)(nil)

func New(inner replaycache.Hook, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

// Before and After hand a snapshot of call to the inner hook. The context is
// detached from the caller's cancellation.
func (h *Hooks) Before(ctx context.Context, call *replaycache.Call) error {
	snap, bg := *call, context.WithoutCancel(ctx)
	h.try(func() { _ = h.inner.Before(bg, &snap) })
	return nil
}

func (h *Hooks) After(ctx context.Context, call *replaycache.Call) error {
	snap, bg := *call, context.WithoutCancel(ctx)
	h.try(func() { _ = h.inner.After(bg, &snap) })
	return nil
}
