package kv

import (
	"context"
	"fmt"
)

// slotClient is the subset of pkg/redis.Client the backend relies on.
type slotClient interface {
	GetSlot(ctx context.Context, name string) ([]byte, bool, error)
	PutSlot(ctx context.Context, name string, value []byte) error
	DeleteSlot(ctx context.Context, name string) error
	Close() error
}

// Redis stores slots as namespaced redis strings without expiry.
type Redis struct {
	client slotClient
}

// NewRedis wraps a connected redis client.
func NewRedis(client slotClient) (*Redis, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	value, found, err := r.client.GetSlot(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading slot %s: %w", key, err)
	}
	if !found {
		return nil, ErrNotFound
	}
	return value, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := r.client.PutSlot(ctx, key, value); err != nil {
		return fmt.Errorf("writing slot %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := r.client.DeleteSlot(ctx, key); err != nil {
		return fmt.Errorf("deleting slot %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}
