package replaycache

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/unkn0wn-root/replaycache/internal/keys"
	"github.com/unkn0wn-root/replaycache/kv"
)

// Record pairs the rendered input and output of one recorded call.
type Record struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// History is the recorded call history of one operation.
type History struct {
	Op    string   `json:"op"`
	Count int64    `json:"count"`
	Calls []Record `json:"calls"`
}

// WriteTo prints a summary line followed by one line per recorded call:
//
//	store was called 2 times:
//	store("hello") -> 5b0e...
//	store(42) -> 91c2...
func (h *History) WriteTo(w io.Writer) (int64, error) {
	var total int64
	n, err := fmt.Fprintf(w, "%s was called %d times:\n", h.Op, h.Count)
	total += int64(n)
	if err != nil {
		return total, err
	}
	for _, r := range h.Calls {
		n, err = fmt.Fprintf(w, "%s%s -> %s\n", h.Op, r.Input, r.Output)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Replay reads the call history of op and, if w is non-nil, prints it.
//
// The call count is best effort: a missing, unreadable or non-numeric counter
// reads as 0. Inputs and outputs are paired by index up to the shorter list.
// Nothing is written to the store.
func Replay(ctx context.Context, store kv.Store, op string, w io.Writer) (*History, error) {
	h := &History{Op: op, Count: readCount(ctx, store, op)}

	inKey, outKey := keys.Inputs(op), keys.Outputs(op)
	inputs, err := store.LRange(ctx, inKey, 0, -1)
	if err != nil {
		return nil, storeErr("lrange", inKey, err)
	}
	outputs, err := store.LRange(ctx, outKey, 0, -1)
	if err != nil {
		return nil, storeErr("lrange", outKey, err)
	}

	n := min(len(inputs), len(outputs))
	h.Calls = make([]Record, n)
	for i := 0; i < n; i++ {
		h.Calls[i] = Record{Input: string(inputs[i]), Output: string(outputs[i])}
	}

	if w != nil {
		if _, err := h.WriteTo(w); err != nil {
			return h, err
		}
	}
	return h, nil
}

func readCount(ctx context.Context, store kv.Store, op string) int64 {
	raw, ok, err := store.Get(ctx, keys.Count(op))
	if err != nil || !ok {
		return 0
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
