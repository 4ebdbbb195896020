package metric

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubStats struct {
	depth, capacity, sources int
}

func (s stubStats) QueueDepth() int     { return s.depth }
func (s stubStats) QueueCapacity() int  { return s.capacity }
func (s stubStats) TrackedSources() int { return s.sources }

func TestCollector(t *testing.T) {
	c := NewCollector(stubStats{depth: 3, capacity: 128, sources: 7})

	expected := `
# HELP ndep_listener_queue_depth Datagrams waiting for a worker
# TYPE ndep_listener_queue_depth gauge
ndep_listener_queue_depth 3
# HELP ndep_listener_queue_capacity Datagram queue size, 0 when processing inline
# TYPE ndep_listener_queue_capacity gauge
ndep_listener_queue_capacity 128
# HELP ndep_listener_rate_limited_sources Senders with a live rate limiter
# TYPE ndep_listener_rate_limited_sources gauge
ndep_listener_rate_limited_sources 7
`
	if err := testutil.CollectAndCompare(c, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestCollector_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(NewCollector(stubStats{})); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got, err := testutil.GatherAndCount(reg); err != nil || got != 3 {
		t.Errorf("GatherAndCount() = %d, %v; want 3", got, err)
	}
}
