package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Collection is a JSON array of T stored under a single key.
//
// Reads are fail-soft: a missing key or a payload that does not decode as
// an array of T yields an empty collection. Only backend failures are
// returned as errors.
type Collection[T any] struct {
	kv     KV
	key    string
	logger *zap.Logger
}

// NewCollection binds key on kv.
func NewCollection[T any](kv KV, key string, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{kv: kv, key: key, logger: logger}
}

// Key returns the storage key.
func (c *Collection[T]) Key() string { return c.key }

// Read loads the whole collection.
func (c *Collection[T]) Read(ctx context.Context) ([]T, error) {
	raw, err := c.kv.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("read collection %s: %w", c.key, err)
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.Warn("discarding malformed collection",
			zap.String("key", c.key),
			zap.Int("bytes", len(raw)),
			zap.Error(err))
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// Write replaces the whole collection.
func (c *Collection[T]) Write(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", c.key, err)
	}
	if err := c.kv.Set(ctx, c.key, payload); err != nil {
		return fmt.Errorf("write collection %s: %w", c.key, err)
	}
	return nil
}
