// Package ndepserver provides the UDP enrollment listener.
package ndepserver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/metric"
)

// Config holds the listener configuration.
type Config struct {
	// Address is the UDP bind address (default: 0.0.0.0:9999).
	Address string
	// MaxPayload is the largest accepted datagram (default: 1024).
	// Larger datagrams are rejected as malformed.
	MaxPayload int
	// Workers is the number of processing goroutines. 1 processes each
	// datagram inline on the read loop.
	Workers int
	// QueueSize bounds the hand-off queue when Workers > 1.
	QueueSize int
	// RateLimit is datagrams per second per source IP (0 disables).
	RateLimit float64
	// RateBurst is the per-source burst size.
	RateBurst int
	// LimiterIdle is how long an idle source keeps its limiter (default: 10m).
	LimiterIdle time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:     "0.0.0.0:9999",
		MaxPayload:  1024,
		Workers:     1,
		QueueSize:   1024,
		RateBurst:   10,
		LimiterIdle: 10 * time.Minute,
	}
}

type datagram struct {
	payload    []byte
	oversize   bool
	source     netip.AddrPort
	receivedAt time.Time
}

// Server receives enrollment datagrams and runs each through the
// enrollment service.
type Server struct {
	cfg     *Config
	svc     *service.EnrollmentService
	logger  *slog.Logger
	metrics *metric.Registry
	limiter *SourceLimiter

	conn    *net.UDPConn
	queue   chan datagram
	running atomic.Bool
	readWg  sync.WaitGroup
	workWg  sync.WaitGroup
	stopCh  chan struct{}

	idMu    sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records outcomes and transport counters in reg.
func WithMetrics(reg *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = reg
	}
}

// New creates a listener. Call Start to bind the socket.
func New(cfg *Config, svc *service.EnrollmentService, logger *slog.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = 1024
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.LimiterIdle <= 0 {
		cfg.LimiterIdle = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  logger,
		limiter: NewSourceLimiter(cfg.RateLimit, cfg.RateBurst),
		stopCh:  make(chan struct{}),
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the socket and starts the read loop. Bind failures are
// returned; everything after that is absorbed and logged.
func (s *Server) Start(ctx context.Context) error {
	if s.svc == nil {
		return errors.New("ndepserver: enrollment service is required")
	}

	addr, err := net.ResolveUDPAddr("udp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.cfg.Address, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	s.conn = conn
	s.running.Store(true)

	if s.cfg.Workers > 1 {
		queueSize := s.cfg.QueueSize
		if queueSize < 1 {
			queueSize = 1
		}
		s.queue = make(chan datagram, queueSize)
		for i := 0; i < s.cfg.Workers; i++ {
			s.workWg.Add(1)
			go s.worker(ctx)
		}
	}

	if s.limiter != nil {
		s.readWg.Add(1)
		go s.pruneLoop()
	}

	s.readWg.Add(1)
	go func() {
		defer s.readWg.Done()
		s.readLoop(ctx)
	}()

	s.logger.Info("enrollment listener started",
		"address", conn.LocalAddr().String(),
		"workers", s.cfg.Workers,
		"max_payload", s.cfg.MaxPayload,
		"rate_limit", s.cfg.RateLimit,
	)
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Shutdown closes the socket and waits for the read loop and workers.
// Datagrams still queued are dropped.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stopCh)

	var firstErr error
	if err := s.conn.Close(); err != nil {
		firstErr = err
	}

	done := make(chan struct{})
	go func() {
		s.readWg.Wait()
		if s.queue != nil {
			close(s.queue)
		}
		s.workWg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("enrollment listener stopped")
	return firstErr
}

func (s *Server) readLoop(ctx context.Context) {
	// One spare byte distinguishes "exactly MaxPayload" from "truncated".
	buf := make([]byte, s.cfg.MaxPayload+1)

	for {
		n, src, err := s.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.metricTransportError("read")
			s.logger.Warn("enrollment socket read failed", "error", err)
			// Avoid spinning on a persistent error.
			select {
			case <-time.After(10 * time.Millisecond):
			case <-s.stopCh:
				return
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.IncReceived()
		}

		d := datagram{
			source:     src,
			receivedAt: time.Now(),
		}
		if n > s.cfg.MaxPayload {
			d.oversize = true
		} else {
			d.payload = append([]byte(nil), buf[:n]...)
		}

		if s.queue == nil {
			s.handle(ctx, d)
			continue
		}

		select {
		case s.queue <- d:
		default:
			if s.metrics != nil {
				s.metrics.IncDropped(metric.DropQueueFull)
			}
			s.logger.Warn("enrollment queue full, datagram dropped",
				"source", src.String(),
				"queue_size", cap(s.queue),
			)
		}
	}
}

func (s *Server) worker(ctx context.Context) {
	defer s.workWg.Done()
	for d := range s.queue {
		if !s.running.Load() {
			if s.metrics != nil {
				s.metrics.IncDropped(metric.DropShutdown)
			}
			continue
		}
		s.handle(ctx, d)
	}
}

func (s *Server) pruneLoop() {
	defer s.readWg.Done()

	ticker := time.NewTicker(s.cfg.LimiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.limiter.Prune(s.cfg.LimiterIdle); n > 0 {
				s.logger.Debug("pruned idle rate limiters", "count", n)
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *Server) newRequestID(t time.Time) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), s.entropy)
	if err != nil {
		return ""
	}
	return id.String()
}

func (s *Server) metricTransportError(op string) {
	if s.metrics != nil {
		s.metrics.IncTransportError(op)
	}
}

// QueueDepth implements metric.ListenerStats.
func (s *Server) QueueDepth() int {
	if s.queue == nil {
		return 0
	}
	return len(s.queue)
}

// QueueCapacity implements metric.ListenerStats.
func (s *Server) QueueCapacity() int {
	if s.queue == nil {
		return 0
	}
	return cap(s.queue)
}

// TrackedSources implements metric.ListenerStats.
func (s *Server) TrackedSources() int {
	return s.limiter.Len()
}
