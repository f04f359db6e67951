package kv

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/staffdesk/pkg/metrics"
)

// Instrumented records slot IO on the store metrics.
type Instrumented struct {
	next    Store
	metrics *metrics.StoreMetrics
}

// WithMetrics wraps next; a nil metrics value makes the wrapper a passthrough.
func WithMetrics(next Store, m *metrics.StoreMetrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	started := time.Now()
	value, err := i.next.Get(ctx, key)
	observed := err
	if errors.Is(err, ErrNotFound) {
		observed = nil
	}
	i.metrics.ObserveSlot("get", started, observed)
	return value, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	started := time.Now()
	err := i.next.Set(ctx, key, value)
	i.metrics.ObserveSlot("set", started, err)
	return err
}

func (i *Instrumented) Delete(ctx context.Context, key string) error {
	started := time.Now()
	err := i.next.Delete(ctx, key)
	i.metrics.ObserveSlot("delete", started, err)
	return err
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}
