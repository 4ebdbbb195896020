// Package memory provides an in-process replay store.
package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/pkg/cmap"
	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// DefaultSweepInterval is how often expired registrations are purged.
const DefaultSweepInterval = time.Minute

// ErrClosed is returned by TryRegister after Close.
var ErrClosed = errors.New("memory: store closed")

// Store keeps registrations in a sharded map of key -> expiry.
//
// Registration is atomic within one process only; separate listener
// processes each have their own Store and will each accept a token once.
type Store struct {
	entries       *cmap.Map[time.Time]
	clock         token.Clock
	sweepInterval time.Duration
	shardCount    int

	closed  atomic.Bool
	stopCh  chan struct{}
	sweepWg sync.WaitGroup
}

// Option configures the Store.
type Option func(*Store)

// WithClock sets the time source used for expiry.
func WithClock(c token.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithSweepInterval sets the background purge period. Zero or negative
// disables the sweeper; expired entries are then only replaced lazily.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		s.sweepInterval = d
	}
}

// WithShardCount sets the number of map shards (power of 2).
func WithShardCount(n int) Option {
	return func(s *Store) {
		s.shardCount = n
	}
}

// New creates a new in-memory store and starts its sweeper.
func New(opts ...Option) *Store {
	s := &Store{
		clock:         token.SystemClock,
		sweepInterval: DefaultSweepInterval,
		shardCount:    cmap.DefaultShardCount,
		stopCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}
	s.entries = cmap.NewWithShards[time.Time](s.shardCount)

	if s.sweepInterval > 0 {
		s.sweepWg.Add(1)
		go s.sweepLoop()
	}

	return s
}

// TryRegister inserts key with the given ttl unless an unexpired entry
// exists. The check and insert run under the key's shard lock.
func (s *Store) TryRegister(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.closed.Load() {
		return false, ErrClosed
	}

	now := s.clock.Now()
	expiry := now.Add(ttl)
	_, stored := s.entries.Compute(key, func(existing time.Time, exists bool) (time.Time, bool) {
		if exists && now.Before(existing) {
			return existing, false
		}
		return expiry, true
	})
	return stored, nil
}

// Sweep removes expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.clock.Now()
	return s.entries.DeleteFunc(func(_ string, expiry time.Time) bool {
		return !now.Before(expiry)
	})
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Store) Len() int {
	return s.entries.Count()
}

// Close stops the sweeper and drops all entries.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.stopCh)

	s.sweepWg.Wait()
	s.entries.Clear()
	return nil
}

func (s *Store) sweepLoop() {
	defer s.sweepWg.Done()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
