package config

import "github.com/rob-jonesdevlab/ods-signage/internal/storage"

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.ReplayStore.Endpoint = storage.Redact(cfg.ReplayStore.Endpoint)
	return &sanitized
}
