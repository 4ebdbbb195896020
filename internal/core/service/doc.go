// Package service provides the enrollment domain services.
//
// Domain services contain pure business logic and orchestrate operations
// on domain models. They define interfaces for storage dependencies,
// allowing for dependency injection and testability.
//
// This package contains:
//
//   - Validate / TokenValidator: pure temporal validation of a token
//   - ReplayStore: the atomic register-if-absent capability the core consumes
//   - EnrollmentService: validation, registration and the acceptance hook
//
// Nothing here touches sockets or disks; transports live in
// internal/server and stores in internal/storage.
package service
