package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
	"github.com/rob-jonesdevlab/ods-signage/internal/storage/memory"
	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// PrefillCounts are the replay store sizes benchmarks run against.
var PrefillCounts = []int{1000, 10000, 100000}

// freshTokens mints n tokens stamped now.
func freshTokens(b *testing.B, n int) []string {
	b.Helper()
	gen := token.NewGenerator()
	out := make([]string, n)
	for i := range out {
		s, err := gen.Generate()
		if err != nil {
			b.Fatalf("Generate failed: %v", err)
		}
		out[i] = s
	}
	return out
}

// prefilledStore returns a memory store already holding count registrations.
func prefilledStore(b *testing.B, count int) *memory.Store {
	b.Helper()
	store := memory.New(memory.WithSweepInterval(0))
	ctx := context.Background()
	for i := 0; i < count; i++ {
		if _, err := store.TryRegister(ctx, fmt.Sprintf("token:prefill-%d", i), time.Hour); err != nil {
			b.Fatalf("TryRegister failed: %v", err)
		}
	}
	b.Cleanup(func() { store.Close() })
	return store
}

func newService(store service.ReplayStore) *service.EnrollmentService {
	return service.NewEnrollmentService(store, nil, service.DefaultEnrollmentServiceConfig())
}
