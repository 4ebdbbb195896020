package storage

import (
	"context"
	"testing"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
	"github.com/rob-jonesdevlab/ods-signage/internal/storage/memory"
)

func TestInstrument(t *testing.T) {
	store := memory.New()
	defer store.Close()

	var calls int
	wrapped := Instrument(store, func(d time.Duration) {
		calls++
		if d < 0 {
			t.Errorf("negative latency %v", d)
		}
	})

	ctx := context.Background()
	if ok, err := wrapped.TryRegister(ctx, "token:a", time.Hour); err != nil || !ok {
		t.Fatalf("first TryRegister() = %v, %v", ok, err)
	}
	if ok, err := wrapped.TryRegister(ctx, "token:a", time.Hour); err != nil || ok {
		t.Fatalf("second TryRegister() = %v, %v", ok, err)
	}
	if calls != 2 {
		t.Errorf("observer calls = %d, want 2", calls)
	}

	u, ok := wrapped.(interface{ Unwrap() service.ReplayStore })
	if !ok || u.Unwrap() != store {
		t.Error("Unwrap() should return the wrapped store")
	}
}

func TestInstrument_NilObserver(t *testing.T) {
	store := memory.New()
	defer store.Close()

	if Instrument(store, nil) != store {
		t.Error("Instrument(nil observer) should return the store unchanged")
	}
}
