// Package redis provides a replay store backed by a Redis server.
package redis

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config configures the Redis replay store.
type Config struct {
	// URL is a redis:// or rediss:// URL, e.g. redis://:secret@10.0.0.5:6379/2.
	URL string

	// PoolSize is the maximum number of connections (default: 4).
	PoolSize int

	// DialTimeout bounds connection establishment (default: 2s).
	DialTimeout time.Duration

	// IOTimeout bounds each read and write (default: 2s).
	IOTimeout time.Duration

	// TLS replaces the default client TLS settings of a rediss:// URL.
	TLS *tls.Config
}

// ErrTLSRequiresRediss is returned when TLS settings accompany a plain
// redis:// URL.
var ErrTLSRequiresRediss = errors.New("redis: tls settings require a rediss:// url")

// DefaultConfig returns default configuration for the given URL.
func DefaultConfig(url string) Config {
	return Config{
		URL:         url,
		PoolSize:    4,
		DialTimeout: 2 * time.Second,
		IOTimeout:   2 * time.Second,
	}
}

// Store implements service.ReplayStore with SET NX and an expiry.
//
// Registration is atomic on the server, so any number of listener
// processes may share one Store backend.
type Store struct {
	client *goredis.Client
	logger *slog.Logger
	addr   string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.IOTimeout > 0 {
		opts.ReadTimeout = cfg.IOTimeout
		opts.WriteTimeout = cfg.IOTimeout
	}
	if cfg.TLS != nil {
		if opts.TLSConfig == nil {
			return nil, ErrTLSRequiresRediss
		}
		tc := cfg.TLS.Clone()
		if tc.ServerName == "" {
			tc.ServerName = opts.TLSConfig.ServerName
		}
		opts.TLSConfig = tc
	}
	opts.ContextTimeoutEnabled = true
	// One attempt per call; the listener reports failures as unavailable.
	opts.MaxRetries = -1

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}

	logger.Info("redis replay store connected",
		"addr", opts.Addr,
		"db", opts.DB,
		"tls", opts.TLSConfig != nil,
		"pool_size", opts.PoolSize)

	return &Store{
		client: client,
		logger: logger,
		addr:   opts.Addr,
	}, nil
}

// TryRegister issues SET key used NX with the given ttl.
// Returns true when the server stored the key, false when it already existed.
func (s *Store) TryRegister(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "used", ttl).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return false, fmt.Errorf("redis: set %s: %w", key, err)
	}
	return ok, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Addr returns the server address.
func (s *Store) Addr() string {
	return s.addr
}

// Close closes all pooled connections.
func (s *Store) Close() error {
	return s.client.Close()
}
