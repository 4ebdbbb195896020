package storage

import (
	"context"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
)

// instrumented reports the latency of every TryRegister call.
type instrumented struct {
	service.ReplayStore
	observe func(time.Duration)
}

// Instrument wraps store so that observe receives each TryRegister latency,
// including failed calls.
func Instrument(store service.ReplayStore, observe func(time.Duration)) service.ReplayStore {
	if observe == nil {
		return store
	}
	return &instrumented{ReplayStore: store, observe: observe}
}

func (s *instrumented) TryRegister(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	start := time.Now()
	ok, err := s.ReplayStore.TryRegister(ctx, key, ttl)
	s.observe(time.Since(start))
	return ok, err
}

// Unwrap returns the underlying store.
func (s *instrumented) Unwrap() service.ReplayStore {
	return s.ReplayStore
}
