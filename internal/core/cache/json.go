package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var errNoValue = errors.New("cache: loader returned no value")

// Typed stores one kind of entity as JSON under "<prefix>:<id>".
type Typed[T any] struct {
	c      *Cache
	prefix string
	ttl    time.Duration
}

func NewTyped[T any](c *Cache, prefix string, ttl time.Duration) Typed[T] {
	return Typed[T]{c: c, prefix: prefix, ttl: ttl}
}

func (t Typed[T]) Key(id string) string { return t.prefix + ":" + id }

// Get serves id from the cache or from load. A nil result from load is
// returned as is and never cached. An entry that no longer decodes is
// dropped and reloaded.
func (t Typed[T]) Get(ctx context.Context, id string, load func(context.Context) (*T, error)) (*T, error) {
	if t.c == nil {
		return load(ctx)
	}
	key := t.Key(id)
	b, err := t.c.GetOrLoad(ctx, key, t.ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errNoValue
		}
		return json.Marshal(v)
	})
	if errors.Is(err, errNoValue) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		_ = t.c.Invalidate(ctx, key)
		return load(ctx)
	}
	return &out, nil
}

func (t Typed[T]) Invalidate(ctx context.Context, ids ...string) error {
	if t.c == nil || len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = t.Key(id)
	}
	return t.c.Invalidate(ctx, keys...)
}
