// Package shutdown provides graceful shutdown for ndep-server.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Programmatic trigger after fatal serve errors
//   - Named cleanup hooks run in reverse registration order
//   - A single timeout bounding all hooks
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("listener", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
