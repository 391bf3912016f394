package replaycache

import (
	"context"
	"errors"
	"time"

	"github.com/unkn0wn-root/replaycache/internal/keys"
	"github.com/unkn0wn-root/replaycache/kv"
)

// Call describes one invocation of an instrumented operation.
// Result and Err are only meaningful inside After.
type Call struct {
	Op      string
	Args    []any
	Result  any
	Err     error
	Started time.Time
}

// Hook runs around an instrumented operation.
// Before errors abort the call; hooks that already ran Before still get After
// with Err set, so paired bookkeeping stays balanced.
type Hook interface {
	Before(ctx context.Context, call *Call) error
	After(ctx context.Context, call *Call) error
}

// HookFuncs adapts plain functions to Hook. Nil fields are no-ops.
type HookFuncs struct {
	BeforeFunc func(ctx context.Context, call *Call) error
	AfterFunc  func(ctx context.Context, call *Call) error
}

func (h HookFuncs) Before(ctx context.Context, call *Call) error {
	if h.BeforeFunc == nil {
		return nil
	}
	return h.BeforeFunc(ctx, call)
}

func (h HookFuncs) After(ctx context.Context, call *Call) error {
	if h.AfterFunc == nil {
		return nil
	}
	return h.AfterFunc(ctx, call)
}

// Func is a single-argument operation that can be instrumented.
type Func[A, R any] func(ctx context.Context, arg A) (R, error)

// Instrument wraps fn so every invocation runs hooks[i].Before in order, then fn,
// then hooks[i].After in reverse order. The first hook is the outermost one.
//
// An error from fn is returned as is. After errors are joined and returned in
// place of the result.
func Instrument[A, R any](op string, fn Func[A, R], hooks ...Hook) Func[A, R] {
	hs := append([]Hook(nil), hooks...)
	return func(ctx context.Context, arg A) (R, error) {
		var zero R
		call := &Call{Op: op, Args: []any{arg}, Started: time.Now()}

		for i, h := range hs {
			if err := h.Before(ctx, call); err != nil {
				call.Err = err
				if aerr := runAfter(ctx, call, hs[:i]); aerr != nil {
					return zero, errors.Join(err, aerr)
				}
				return zero, err
			}
		}

		res, err := fn(ctx, arg)
		call.Result, call.Err = res, err

		if aerr := runAfter(ctx, call, hs); aerr != nil {
			return zero, errors.Join(err, aerr)
		}
		return res, err
	}
}

func runAfter(ctx context.Context, call *Call, hs []Hook) error {
	var errs []error
	for i := len(hs) - 1; i >= 0; i-- {
		if err := hs[i].After(ctx, call); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CountCalls increments the "<op>" counter before each call.
func CountCalls(store kv.Store) Hook {
	return HookFuncs{
		BeforeFunc: func(ctx context.Context, call *Call) error {
			k := keys.Count(call.Op)
			_, err := store.Incr(ctx, k)
			return storeErr("incr", k, err)
		},
	}
}

// CallHistory appends the argument tuple to "<op>:inputs" before each call and
// the result to "<op>:outputs" after it.
func CallHistory(store kv.Store) Hook {
	return HookFuncs{
		BeforeFunc: func(ctx context.Context, call *Call) error {
			k := keys.Inputs(call.Op)
			return storeErr("rpush", k, store.RPush(ctx, k, []byte(FormatArgs(call.Args))))
		},
		AfterFunc: recordOutput(store),
	}
}

// Tracked combines CountCalls and CallHistory, with the count and the input
// append done as one atomic store step (kv.Store.IncrAndPush).
func Tracked(store kv.Store) Hook {
	return HookFuncs{
		BeforeFunc: func(ctx context.Context, call *Call) error {
			k := keys.Count(call.Op)
			_, err := store.IncrAndPush(ctx, k, keys.Inputs(call.Op), []byte(FormatArgs(call.Args)))
			return storeErr("incr+rpush", k, err)
		},
		AfterFunc: recordOutput(store),
	}
}

// recordOutput appends the result, or "error: <msg>" for failed calls, so
// inputs and outputs keep equal length.
func recordOutput(store kv.Store) func(ctx context.Context, call *Call) error {
	return func(ctx context.Context, call *Call) error {
		k := keys.Outputs(call.Op)
		return storeErr("rpush", k, store.RPush(ctx, k, []byte(FormatResult(call.Result, call.Err))))
	}
}
