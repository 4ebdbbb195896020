// Package confloader provides configuration loading mechanism.
//
// This package implements the configuration loader used by ndep-server,
// built on koanf:
//
//   - Sources: YAML file, NDEP_ environment variables, bare env aliases, maps
//   - Nesting: "__" in variable names, so NDEP_ENROLLMENT__DRIFT_LIMIT_MS
//     sets enrollment.drift_limit_ms
//   - Watch Support: fsnotify watcher with per-file filtering and debounce
//   - Defaults: values already present in the target struct are kept
//
// Priority (highest to lowest):
//
//  1. Prefixed environment variables
//  2. Environment aliases (NDEP_PORT, REDIS_URL, ...)
//  3. Configuration file
//  4. Default values
package confloader
