// Package kv provides the durable key-value slots the snapshot, the
// remembered-identity token and the verification handoff live in.
package kv

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get when the slot has never been written or was deleted.
var ErrNotFound = errors.New("kv: slot not found")

// Store is a durable key-value slot backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("kv: empty key")
	}
	return nil
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
