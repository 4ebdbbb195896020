package ndepserver

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/rob-jonesdevlab/ods-signage/pkg/cmap"
)

type sourceLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// SourceLimiter keeps one token bucket per sender IP.
type SourceLimiter struct {
	limiters *cmap.Map[*sourceLimiter]
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewSourceLimiter creates a limiter allowing perSecond datagrams per IP
// with the given burst. perSecond <= 0 returns nil, which allows everything.
func NewSourceLimiter(perSecond float64, burst int) *SourceLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &SourceLimiter{
		limiters: cmap.New[*sourceLimiter](),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether ip may send another datagram now.
func (l *SourceLimiter) Allow(ip string) bool {
	if l == nil {
		return true
	}
	now := l.now()
	entry := l.limiters.GetOrCreate(ip, func() *sourceLimiter {
		return &sourceLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	})
	entry.lastSeen.Store(now.UnixNano())
	return entry.limiter.AllowN(now, 1)
}

// Prune drops limiters idle for longer than idle and returns how many
// were removed. An idle bucket has refilled, so dropping it loses nothing.
func (l *SourceLimiter) Prune(idle time.Duration) int {
	if l == nil {
		return 0
	}
	cutoff := l.now().Add(-idle).UnixNano()
	return l.limiters.DeleteFunc(func(_ string, e *sourceLimiter) bool {
		return e.lastSeen.Load() < cutoff
	})
}

// Len returns the number of tracked sources.
func (l *SourceLimiter) Len() int {
	if l == nil {
		return 0
	}
	return l.limiters.Count()
}
