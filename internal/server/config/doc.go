// Package config provides server configuration for ndep-server.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Range and consistency checks
//   - sanitize.go: Log sanitization (hide the replay store password)
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and NDEP_ environment variables.
package config
