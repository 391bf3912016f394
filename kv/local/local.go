// Package local provides an in-process kv.Store.
//
// It mirrors the subset of Redis semantics replaycache relies on: INCR on a
// missing key starts from 0, type mismatches fail, LRANGE indexes may be
// negative, and expired keys read as missing. Optional sweep loop prunes
// expired entries in the background.
package local

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/unkn0wn-root/replaycache/kv"
)

var (
	ErrWrongType  = errors.New("local store: operation against a key holding the wrong kind of value")
	ErrNotInteger = errors.New("local store: value is not an integer or out of range")
	ErrClosed     = errors.New("local store: closed")
	ErrOverflow   = errors.New("local store: increment would overflow")
)

type entry struct {
	val  []byte
	list [][]byte // non-nil => list key
	exp  time.Time
}

func (e entry) isList() bool { return e.list != nil }

type Config struct {
	SweepInterval time.Duration    // 0 disables the background sweep
	Now           func() time.Time // nil => time.Now
}

// Store keeps every key in a single map guarded by one mutex.
type Store struct {
	mu     sync.Mutex
	m      map[string]entry
	now    func() time.Time
	closed bool

	ticker *time.Ticker
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ kv.Store = (*Store)(nil)

func New(cfg Config) *Store {
	s := &Store{
		m:   make(map[string]entry),
		now: cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.SweepInterval > 0 {
		s.ticker = time.NewTicker(cfg.SweepInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.Sweep()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

// lookup returns the live entry for key. Caller holds mu.
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.m[key]
	if !ok {
		return entry{}, false
	}
	if !e.exp.IsZero() && !s.now().Before(e.exp) {
		delete(s.m, key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.m = make(map[string]entry)
	return nil
}

func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.incrLocked(key)
}

func (s *Store) incrLocked(key string) (int64, error) {
	e, ok := s.lookup(key)
	var n int64
	if ok {
		if e.isList() {
			return 0, ErrWrongType
		}
		v, err := strconv.ParseInt(string(e.val), 10, 64)
		if err != nil {
			return 0, ErrNotInteger
		}
		n = v
	}
	if n == math.MaxInt64 {
		return 0, ErrOverflow
	}
	n++
	// INCR keeps an existing TTL
	e.val = []byte(strconv.FormatInt(n, 10))
	s.m[key] = e
	return n, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	e, ok := s.lookup(key)
	if !ok {
		return nil, false, nil
	}
	if e.isList() {
		return nil, false, ErrWrongType
	}
	return append([]byte(nil), e.val...), true, nil
}

func (s *Store) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	var exp time.Time
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.m[key] = entry{val: append([]byte(nil), value...), exp: exp}
	return nil
}

func (s *Store) RPush(_ context.Context, key string, item []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.rpushLocked(key, item)
}

func (s *Store) rpushLocked(key string, item []byte) error {
	e, ok := s.lookup(key)
	if ok && !e.isList() {
		return ErrWrongType
	}
	if !ok {
		e = entry{list: make([][]byte, 0, 1)}
	}
	e.list = append(e.list, append([]byte(nil), item...))
	s.m[key] = e
	return nil
}

func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	e, ok := s.lookup(key)
	if !ok {
		return [][]byte{}, nil
	}
	if !e.isList() {
		return nil, ErrWrongType
	}
	n := int64(len(e.list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return [][]byte{}, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, it := range e.list[start : stop+1] {
		out = append(out, append([]byte(nil), it...))
	}
	return out, nil
}

// IncrAndPush holds the store lock across both steps. A failed push after a
// successful increment rolls the counter back.
func (s *Store) IncrAndPush(_ context.Context, counterKey, listKey string, item []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	prev, hadPrev := s.lookup(counterKey)
	n, err := s.incrLocked(counterKey)
	if err != nil {
		return 0, err
	}
	if err := s.rpushLocked(listKey, item); err != nil {
		if hadPrev {
			s.m[counterKey] = prev
		} else {
			delete(s.m, counterKey)
		}
		return 0, err
	}
	return n, nil
}

// Sweep drops every expired key.
func (s *Store) Sweep() {
	now := s.now()
	s.mu.Lock()
	for k, e := range s.m {
		if !e.exp.IsZero() && !now.Before(e.exp) {
			delete(s.m, k)
		}
	}
	s.mu.Unlock()
}

// Len reports the number of keys, expired ones included until swept or read.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Close stops the sweep loop. Every later operation fails with ErrClosed.
func (s *Store) Close(_ context.Context) error {
	s.once.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop() // stop ticker before waiting
			s.wg.Wait()
		}
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	})
	return nil
}
