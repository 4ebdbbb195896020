// Package domain defines the core domain models for zero-touch enrollment.
//
// Domain models are pure values without IO dependencies. This package
// contains:
//
//   - Errors: coded DomainError sentinels for every rejection and failure
//   - Outcome: the terminal state of one enrollment attempt
//
// The token layout itself lives in pkg/token so that device-side tools can
// import it without pulling in server code.
package domain
