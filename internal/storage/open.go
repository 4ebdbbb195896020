package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/service"
	"github.com/rob-jonesdevlab/ods-signage/internal/infra/tlsroots"
	"github.com/rob-jonesdevlab/ods-signage/internal/storage/memory"
	"github.com/rob-jonesdevlab/ods-signage/internal/storage/redis"
)

// Endpoint schemes understood by Open.
const (
	SchemeMemory = "memory"
	SchemeBadger = "badger"
	SchemeRedis  = "redis"
	SchemeRedisS = "rediss"
)

// OpenOptions carries the settings shared by all store kinds.
type OpenOptions struct {
	// Logger receives store lifecycle logs.
	Logger *slog.Logger

	// Registry, if set, receives store metrics.
	Registry prometheus.Registerer

	// PoolSize is the connection pool size for network stores.
	PoolSize int

	// Timeout bounds dialing and each round trip for network stores.
	Timeout time.Duration

	// SweepInterval is the purge period for the memory store.
	SweepInterval time.Duration

	// TLS names CA and client certificate files for rediss:// endpoints.
	TLS tlsroots.ClientOptions
}

// Open creates the replay store named by endpoint:
//
//	memory://
//	badger:///var/lib/ndep/replay[?sync_writes=false&gc_interval=5m]
//	badger://?in_memory=true
//	redis://[:password@]host:port[/db]
//	rediss://[:password@]host:port[/db]
//
// An empty endpoint means memory://.
func Open(ctx context.Context, endpoint string, opts OpenOptions) (service.ReplayStore, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if strings.TrimSpace(endpoint) == "" {
		endpoint = SchemeMemory + "://"
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("storage: parse endpoint: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case SchemeMemory:
		var memOpts []memory.Option
		if opts.SweepInterval != 0 {
			memOpts = append(memOpts, memory.WithSweepInterval(opts.SweepInterval))
		}
		opts.Logger.Warn("using in-memory replay store; registrations are per process and lost on restart")
		return memory.New(memOpts...), nil

	case SchemeBadger:
		cfg, err := badgerConfigFromURL(u)
		if err != nil {
			return nil, err
		}
		s, err := NewBadgerStore(cfg, opts.Logger)
		if err != nil {
			return nil, err
		}
		if opts.Registry != nil {
			s.RegisterMetrics(opts.Registry)
		}
		return s, nil

	case SchemeRedis, SchemeRedisS:
		cfg := redis.DefaultConfig(endpoint)
		if opts.PoolSize > 0 {
			cfg.PoolSize = opts.PoolSize
		}
		if opts.Timeout > 0 {
			cfg.DialTimeout = opts.Timeout
			cfg.IOTimeout = opts.Timeout
		}
		if !opts.TLS.IsZero() {
			tc, err := tlsroots.ClientConfig(opts.TLS)
			if err != nil {
				return nil, fmt.Errorf("storage: %w", err)
			}
			cfg.TLS = tc
		}
		return redis.New(ctx, cfg, opts.Logger)

	default:
		return nil, fmt.Errorf("storage: unsupported endpoint scheme %q", u.Scheme)
	}
}

func badgerConfigFromURL(u *url.URL) (BadgerConfig, error) {
	dir := u.Host + u.Path
	if u.Opaque != "" {
		dir = u.Opaque
	}
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	cfg := DefaultBadgerConfig(dir)

	q := u.Query()
	if v := q.Get("in_memory"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("storage: in_memory: %w", err)
		}
		cfg.InMemory = b
	}
	if v := q.Get("sync_writes"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("storage: sync_writes: %w", err)
		}
		cfg.SyncWrites = b
	}
	if v := q.Get("gc_interval"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("storage: gc_interval: %w", err)
		}
		cfg.GCInterval = d
	}

	if cfg.Dir == "" && !cfg.InMemory {
		return cfg, fmt.Errorf("storage: badger endpoint needs a directory, e.g. badger:///var/lib/ndep/replay")
	}
	return cfg, nil
}

// Redact returns endpoint with any password masked, for logging.
func Redact(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "<invalid endpoint>"
	}
	return u.Redacted()
}
