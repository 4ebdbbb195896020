package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/rob-jonesdevlab/ods-signage/internal/telemetry/logger"
)

// MaxDatagramSize bounds ndep.read_buffer_size.
const MaxDatagramSize = 65507

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyListener(&cfg.NDEP); err != nil {
		return err
	}
	if err := verifyReplayStore(&cfg.ReplayStore); err != nil {
		return err
	}
	if err := verifyEnrollment(&cfg.Enrollment); err != nil {
		return err
	}
	if err := verifyHTTP(&cfg.HTTP); err != nil {
		return err
	}
	if !logger.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("log.format %q must be json or text", cfg.Log.Format)
	}
	return nil
}

func verifyListener(cfg *ListenerSection) error {
	if cfg.ListenAddr != "" && net.ParseIP(cfg.ListenAddr) == nil {
		return fmt.Errorf("ndep.listen_addr %q is not an IP address", cfg.ListenAddr)
	}
	if cfg.ListenPort < 0 || cfg.ListenPort > 65535 {
		return fmt.Errorf("ndep.listen_port %d out of range", cfg.ListenPort)
	}
	if cfg.ReadBufferSize < 36 || cfg.ReadBufferSize > MaxDatagramSize {
		return fmt.Errorf("ndep.read_buffer_size must be between 36 and %d", MaxDatagramSize)
	}
	if cfg.Workers < 1 {
		return errors.New("ndep.workers must be at least 1")
	}
	if cfg.Workers > 1 && cfg.QueueSize < 1 {
		return errors.New("ndep.queue_size must be at least 1 when workers > 1")
	}
	if cfg.RateLimit < 0 {
		return errors.New("ndep.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("ndep.rate_burst must be at least 1 when rate limiting")
	}
	return nil
}

func verifyReplayStore(cfg *ReplayStoreSection) error {
	scheme := "memory"
	if cfg.Endpoint != "" {
		u, err := url.Parse(cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("replay_store.endpoint: %w", err)
		}
		scheme = u.Scheme
		switch scheme {
		case "memory", "badger", "redis", "rediss":
		default:
			return fmt.Errorf("replay_store.endpoint: unsupported scheme %q", u.Scheme)
		}
	}
	tlsSet := cfg.TLS != (StoreTLSSection{})
	if tlsSet && scheme != "rediss" {
		return errors.New("replay_store.tls requires a rediss:// endpoint")
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return errors.New("replay_store.tls.cert_file and key_file must be set together")
	}
	if cfg.Timeout <= 0 {
		return errors.New("replay_store.timeout must be positive")
	}
	if cfg.PoolSize < 1 {
		return errors.New("replay_store.pool_size must be at least 1")
	}
	return nil
}

func verifyEnrollment(cfg *EnrollmentSection) error {
	if cfg.DriftLimitMs < 0 {
		return errors.New("enrollment.drift_limit_ms must not be negative")
	}
	if cfg.RegistrationTTLMs <= 0 {
		return errors.New("enrollment.registration_ttl_ms must be positive")
	}
	// A record that expires inside the drift window lets the token replay.
	if cfg.RegistrationTTLMs <= 2*cfg.DriftLimitMs {
		return fmt.Errorf("enrollment.registration_ttl_ms (%d) must exceed twice drift_limit_ms (%d)",
			cfg.RegistrationTTLMs, cfg.DriftLimitMs)
	}
	return nil
}

func verifyHTTP(cfg *HTTPSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("http.addr: %w", err)
	}
	return nil
}
