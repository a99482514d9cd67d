package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Layered is a two-level cache. L1 holds typed values in memory; the optional
// L2 holds JSON so results survive restarts and are shared between replicas.
type Layered struct {
	l1 *TTLCache
	l2 BytesCache
}

// NewLayered builds a layered cache. l2 may be nil.
func NewLayered(l1 *TTLCache, l2 BytesCache) *Layered {
	if l1 == nil {
		l1 = NewTTLCache()
	}
	return &Layered{l1: l1, l2: l2}
}

// HasL2 reports whether a second level is configured.
func (l *Layered) HasL2() bool { return l.l2 != nil }

// Get reads key from L1, then L2. An L2 hit is promoted to L1 for ttl.
func Get[T any](ctx context.Context, l *Layered, key string, ttl time.Duration) (T, error) {
	var zero T
	if v, ok := l.l1.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	if l.l2 == nil {
		return zero, ErrCacheMiss
	}
	b, ok, err := l.l2.GetBytes(ctx, key)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, ErrCacheMiss
	}
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		return zero, err
	}
	l.l1.Set(key, t, ttl)
	return t, nil
}

// Set writes v to both levels. An L2 failure is returned after L1 is written.
func Set[T any](ctx context.Context, l *Layered, key string, v T, ttl time.Duration) error {
	l.l1.Set(key, v, ttl)
	if l.l2 == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return l.l2.SetBytes(ctx, key, b, ttl)
}
