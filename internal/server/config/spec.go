// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for ndep-server.
type ServerConfig struct {
	NDEP        ListenerSection    `koanf:"ndep"`
	ReplayStore ReplayStoreSection `koanf:"replay_store"`
	Enrollment  EnrollmentSection  `koanf:"enrollment"`
	HTTP        HTTPSection        `koanf:"http"`
	Log         LogSection         `koanf:"log"`
}

// ListenerSection configures the UDP enrollment listener.
type ListenerSection struct {
	ListenAddr     string `koanf:"listen_addr"`
	ListenPort     int    `koanf:"listen_port"`
	ReadBufferSize int    `koanf:"read_buffer_size"`

	// Workers is the number of goroutines processing datagrams.
	// 1 processes inline on the read loop.
	Workers   int `koanf:"workers"`
	QueueSize int `koanf:"queue_size"`

	// RateLimit is datagrams per second per source IP. 0 disables limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`
}

// ReplayStoreSection selects and tunes the replay store.
type ReplayStoreSection struct {
	// Endpoint is memory://, badger:///path or redis://[:password@]host:port[/db].
	Endpoint      string        `koanf:"endpoint"`
	Timeout       time.Duration `koanf:"timeout"`
	PoolSize      int           `koanf:"pool_size"`
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// TLS applies to rediss:// endpoints only.
	TLS StoreTLSSection `koanf:"tls"`
}

// StoreTLSSection names the files for a TLS connection to the store.
type StoreTLSSection struct {
	CAFile   string `koanf:"ca_file"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// EnrollmentSection configures token acceptance.
type EnrollmentSection struct {
	DriftLimitMs      int64 `koanf:"drift_limit_ms"`
	RegistrationTTLMs int64 `koanf:"registration_ttl_ms"`
}

// DriftLimit returns the drift window as a duration.
func (e EnrollmentSection) DriftLimit() time.Duration {
	return time.Duration(e.DriftLimitMs) * time.Millisecond
}

// RegistrationTTL returns the replay record lifetime as a duration.
func (e EnrollmentSection) RegistrationTTL() time.Duration {
	return time.Duration(e.RegistrationTTLMs) * time.Millisecond
}

// HTTPSection configures the ops HTTP server.
type HTTPSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
