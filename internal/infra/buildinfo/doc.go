// Package buildinfo provides build information for ndep-server and
// ndep-device.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash, or vcs.revision from the embedded build info
//   - BuildTime: Build timestamp, or vcs.time
//   - GoVersion: Go compiler version, or runtime.Version()
//
// The ops HTTP server serves Get() at /version.
package buildinfo
