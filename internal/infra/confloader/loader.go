// Package confloader provides configuration loading mechanism.
//
// It uses Koanf for loading from multiple sources with priority:
// Env > Env aliases > File > Default.
package confloader

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "NDEP_"

// EnvNestingSeparator separates key levels in environment variable names.
// A single underscore stays part of the key, so NDEP_REPLAY_STORE__ENDPOINT
// maps to replay_store.endpoint.
const EnvNestingSeparator = "__"

// Loader loads configuration from multiple sources.
type Loader struct {
	k          *koanf.Koanf
	envPrefix  string
	envAliases map[string]string
	filePath   string
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithEnvAliases maps bare environment variable names to config keys,
// e.g. "REDIS_URL" to "replay_store.endpoint". Aliases are overridden by
// prefixed variables naming the same key.
func WithEnvAliases(aliases map[string]string) Option {
	return func(l *Loader) {
		l.envAliases = aliases
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load loads configuration from all sources and unmarshals into target.
// Loading order (later sources override earlier):
//  1. Default values (already present in target)
//  2. Configuration file (YAML)
//  3. Environment variable aliases
//  4. Prefixed environment variables
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.LoadEnvAliases(); err != nil {
		return fmt.Errorf("load env aliases: %w", err)
	}

	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// Reload discards previously loaded values and runs Load again.
func (l *Loader) Reload(target any) error {
	l.k = koanf.New(".")
	return l.Load(target)
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	provider := file.Provider(path)
	if err := l.k.Load(provider, yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv loads configuration from prefixed environment variables.
// Example: NDEP_REPLAY_STORE__ENDPOINT=redis://10.0.0.5:6379
func (l *Loader) LoadEnv() error {
	envTransformer := func(s string) string {
		// Aliases that share the prefix (NDEP_PORT) are handled separately.
		if _, ok := l.envAliases[s]; ok {
			return ""
		}
		s = strings.TrimPrefix(s, l.envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, EnvNestingSeparator, ".")
	}

	provider := env.Provider(l.envPrefix, ".", envTransformer)
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	return nil
}

// LoadEnvAliases loads the variables registered with WithEnvAliases.
func (l *Loader) LoadEnvAliases() error {
	if len(l.envAliases) == 0 {
		return nil
	}

	data := make(map[string]any)
	for name, key := range l.envAliases {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			data[key] = v
		}
	}
	if len(data) == 0 {
		return nil
	}
	return l.LoadMap(data)
}

// LoadMap loads configuration from a map (useful for flags or testing).
// Keys may be dotted paths.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal unmarshals the loaded configuration into the target struct.
// Uses koanf tags for struct field mapping.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}
