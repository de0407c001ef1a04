// Package storage is the durable key-value layer. Every value is a whole
// JSON document written in one call; there are no partial writes.
package storage

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KV.Get when the key holds no value.
var ErrKeyNotFound = errors.New("storage: key not found")

// KV is a durable string-keyed byte store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Keys names the fixed storage keys used by the application.
type Keys struct {
	Users   string
	Tickets string
	Session string
}

// DefaultNamespace prefixes every key when none is configured.
const DefaultNamespace = "ticketapp"

// NewKeys derives the storage keys for namespace.
func NewKeys(namespace string) Keys {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Keys{
		Users:   namespace + "_users",
		Tickets: namespace + "_tickets",
		Session: namespace + "_session",
	}
}
