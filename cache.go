package replaycache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/unkn0wn-root/replaycache/codec"
	"github.com/unkn0wn-root/replaycache/kv"
)

// Cache stores values under fresh random keys and records every Store call
// (count, arguments, returned key) in the backing store.
type Cache struct {
	store  kv.Store
	log    Logger
	newKey func() string
	put    Func[encoded, string]
}

// New builds a Cache and flushes the store. Everything already in it,
// counters and histories included, is removed.
func New(ctx context.Context, opts Options) (*Cache, error) {
	if opts.Store == nil {
		return nil, errors.New("replaycache: store is required")
	}
	c := &Cache{
		store:  opts.Store,
		log:    coalesce[Logger](opts.Logger, NopLogger{}),
		newKey: newKey,
	}
	if opts.KeyFunc != nil {
		c.newKey = opts.KeyFunc
	}

	if err := c.store.Flush(ctx); err != nil {
		return nil, storeErr("flush", "*", err)
	}

	hooks := make([]Hook, 0, 1+len(opts.Hooks))
	hooks = append(hooks, Tracked(c.store))
	hooks = append(hooks, opts.Hooks...)
	c.put = Instrument[encoded, string](OpStore, c.write, hooks...)
	return c, nil
}

// encoded carries the caller's value next to its stored bytes.
// String renders the original value for the call history.
type encoded struct {
	v       any
	payload []byte
}

func (e encoded) String() string { return formatValue(e.v) }

func (c *Cache) write(ctx context.Context, e encoded) (string, error) {
	key := c.newKey()
	if err := c.store.Set(ctx, key, e.payload, 0); err != nil {
		c.log.Error("store write failed", Fields{"key": key, "err": err})
		return "", storeErr("set", key, err)
	}
	c.log.Debug("stored value", Fields{"key": key, "size": len(e.payload)})
	return key, nil
}

// Store writes v under a new key and returns the key.
// v must be a string, []byte, integer or float; other types fail with
// ErrUnsupportedValue before anything is written or recorded.
func (c *Cache) Store(ctx context.Context, v any) (string, error) {
	payload, err := encodeScalar(v)
	if err != nil {
		return "", err
	}
	return c.put(ctx, encoded{v: v, payload: payload})
}

// StoreAs is Store for arbitrary values serialized with cd.
// The call is counted and recorded under the same operation as Store.
func StoreAs[V any](ctx context.Context, c *Cache, v V, cd codec.Codec[V]) (string, error) {
	payload, err := cd.Encode(v)
	if err != nil {
		return "", fmt.Errorf("replaycache: encode %T: %w", v, err)
	}
	return c.put(ctx, encoded{v: v, payload: payload})
}

// Get returns the raw bytes under key. A missing key is (nil, false, nil).
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false, storeErr("get", key, err)
	}
	return raw, ok, nil
}

// GetWith reads key and converts it with decode. A missing key is
// (zero, false, nil); a decode failure is a *DecodeError.
func GetWith[V any](ctx context.Context, c *Cache, key string, decode func([]byte) (V, error)) (V, bool, error) {
	var zero V
	if decode == nil {
		return zero, false, errors.New("replaycache: nil decoder")
	}
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := decode(raw)
	if err != nil {
		return zero, false, &DecodeError{Key: key, Type: fmt.Sprintf("%T", zero), Err: err}
	}
	return v, true, nil
}

// GetAs reads a value written by StoreAs (or any bytes cd understands).
func GetAs[V any](ctx context.Context, c *Cache, key string, cd codec.Codec[V]) (V, bool, error) {
	return GetWith(ctx, c, key, cd.Decode)
}

// GetString decodes the value as UTF-8 text.
func (c *Cache) GetString(ctx context.Context, key string) (string, bool, error) {
	return GetWith(ctx, c, key, codec.String{}.Decode)
}

// GetInt parses the value as a base-10 integer.
func (c *Cache) GetInt(ctx context.Context, key string) (int64, bool, error) {
	return GetWith(ctx, c, key, codec.Int{}.Decode)
}

// GetFloat parses the value as a decimal float.
func (c *Cache) GetFloat(ctx context.Context, key string) (float64, bool, error) {
	return GetWith(ctx, c, key, codec.Float{}.Decode)
}

// Replay writes the call history of op to w. See Replay.
func (c *Cache) Replay(ctx context.Context, op string, w io.Writer) (*History, error) {
	return Replay(ctx, c.store, op, w)
}

// encodeScalar renders v the way a Redis client sends it on the wire.
func encodeScalar(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case int:
		return codec.Int{}.Encode(int64(x))
	case int8:
		return codec.Int{}.Encode(int64(x))
	case int16:
		return codec.Int{}.Encode(int64(x))
	case int32:
		return codec.Int{}.Encode(int64(x))
	case int64:
		return codec.Int{}.Encode(x)
	case uint:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint8:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint16:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint32:
		return strconv.AppendUint(nil, uint64(x), 10), nil
	case uint64:
		return strconv.AppendUint(nil, x, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(x), 'g', -1, 32), nil
	case float64:
		return codec.Float{}.Encode(x)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}
