// Package replaycache stores values in a key-value store under random keys and
// keeps a replayable history of every call that did so.
//
// Components:
//   - kv.Store: the backing store (Redis via kv/redis, in-process via kv/local).
//   - Cache: Store/Get with call counting and input/output history.
//   - Instrument + Hook: the middleware used to count and record calls; usable
//     for any single-argument operation.
//   - Replay: prints the recorded history of an operation.
//   - webcache: fetch cache with a fixed TTL and per-resource access counters.
//
// Keys:
//
//	<op>          - call counter (INCR)
//	<op>:inputs   - rendered argument tuples (RPUSH)
//	<op>:outputs  - rendered results (RPUSH)
//	<uuid>        - stored values
//
// Usage:
//
//	c, _ := replaycache.New(ctx, replaycache.Options{Store: store})
//	k, _ := c.Store(ctx, "hello")
//	s, ok, _ := c.GetString(ctx, k)
//	_, _ = c.Replay(ctx, replaycache.OpStore, os.Stdout)
package replaycache
