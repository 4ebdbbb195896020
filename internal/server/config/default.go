package config

import "time"

// Default configuration values.
const (
	DefaultListenAddr     = "0.0.0.0"
	DefaultListenPort     = 9999
	DefaultReadBufferSize = 1024
	DefaultWorkers        = 1
	DefaultQueueSize      = 1024
	DefaultRateBurst      = 10

	DefaultReplayStoreEndpoint = "memory://"
	DefaultReplayStoreTimeout  = 2 * time.Second
	DefaultReplayStorePoolSize = 4
	DefaultSweepInterval       = time.Minute

	DefaultDriftLimitMs      = 300000
	DefaultRegistrationTTLMs = 86400000

	DefaultHTTPAddr = "127.0.0.1:9998"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		NDEP: ListenerSection{
			ListenAddr:     DefaultListenAddr,
			ListenPort:     DefaultListenPort,
			ReadBufferSize: DefaultReadBufferSize,
			Workers:        DefaultWorkers,
			QueueSize:      DefaultQueueSize,
			RateBurst:      DefaultRateBurst,
		},
		ReplayStore: ReplayStoreSection{
			Endpoint:      DefaultReplayStoreEndpoint,
			Timeout:       DefaultReplayStoreTimeout,
			PoolSize:      DefaultReplayStorePoolSize,
			SweepInterval: DefaultSweepInterval,
		},
		Enrollment: EnrollmentSection{
			DriftLimitMs:      DefaultDriftLimitMs,
			RegistrationTTLMs: DefaultRegistrationTTLMs,
		},
		HTTP: HTTPSection{
			Enabled: true,
			Addr:    DefaultHTTPAddr,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
