package replaycache

import "github.com/google/uuid"

// OpStore is the operation name Cache.Store is counted and recorded under.
const OpStore = "store"

// newKey returns a random (version 4) UUID in its canonical 36-char form.
func newKey() string { return uuid.NewString() }

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
