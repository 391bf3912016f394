package replaycache

import (
	"github.com/unkn0wn-root/replaycache/kv"
)

// Options configure a Cache. Only Store is required.
type Options struct {
	Store kv.Store

	Logger  Logger        // if nil, NopLogger is used
	Hooks   []Hook        // extra hooks around Store, run inside the call tracking
	KeyFunc func() string // nil => random UUIDv4
}
