package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/replaycache/kv"
)

var ErrNilClient = errors.New("redis store: nil client")

// Redis stores counters, history lists and entries in a Redis database.
type Redis struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ kv.Store = (*Redis)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Redis{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

// NewFromURL dials a client from a redis:// URL. The returned store owns the client.
func NewFromURL(url string) (*Redis, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return New(Config{Client: goredis.NewClient(opts), CloseClient: true})
}

// Flush clears the selected database only (FLUSHDB), not the whole server.
func (s *Redis) Flush(ctx context.Context) error {
	return s.rdb.FlushDB(ctx).Err()
}

func (s *Redis) Incr(ctx context.Context, key string) (int64, error) {
	return s.rdb.Incr(ctx, key).Result()
}

func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0 // non-positive TTLs mean "no expiry"
	}
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *Redis) RPush(ctx context.Context, key string, item []byte) error {
	return s.rdb.RPush(ctx, key, item).Err()
}

func (s *Redis) LRange(ctx context.Context, key string, start, stop int64) ([][]byte, error) {
	vals, err := s.rdb.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		out[i] = []byte(v)
	}
	return out, nil
}

// IncrAndPush runs INCR + RPUSH inside MULTI/EXEC so no other client can
// interleave between the count and the history append. Redis has no rollback:
// if RPUSH fails at EXEC time (e.g. listKey holds a string) the INCR stays.
func (s *Redis) IncrAndPush(ctx context.Context, counterKey, listKey string, item []byte) (int64, error) {
	var incr *goredis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, counterKey)
		p.RPush(ctx, listKey, item)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Redis) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
