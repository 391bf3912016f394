// Package sloghooks logs instrumented calls through log/slog.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/replaycache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all. Failed calls are always logged.
	Every uint64
	// LogArgs includes the rendered argument tuple. Off by default since
	// arguments are user values.
	LogArgs bool
	// Optional result redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

// Hooks logs "replaycache.call" after every sampled call with its op,
// duration and redacted result, and "replaycache.call_failed" on errors.
type Hooks struct {
	l    *slog.Logger
	opts Options
	ctr  atomic.Uint64
}

var _ replaycache.Hook = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(s string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(s)
	}
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Before(context.Context, *replaycache.Call) error { return nil }

func (h *Hooks) After(ctx context.Context, call *replaycache.Call) error {
	if h.l == nil {
		return nil
	}
	attrs := []slog.Attr{
		slog.String("op", call.Op),
		slog.Duration("took", time.Since(call.Started)),
	}
	if h.opts.LogArgs {
		attrs = append(attrs, slog.String("args", replaycache.FormatArgs(call.Args)))
	}
	if call.Err != nil {
		attrs = append(attrs, slog.Any("err", call.Err))
		h.l.LogAttrs(ctx, slog.LevelWarn, "replaycache.call_failed", attrs...)
		return nil
	}
	if !sample(h.opts.Every, &h.ctr) {
		return nil
	}
	attrs = append(attrs, slog.String("result", h.redact(replaycache.FormatResult(call.Result, nil))))
	h.l.LogAttrs(ctx, slog.LevelDebug, "replaycache.call", attrs...)
	return nil
}
