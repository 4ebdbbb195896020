package service

import (
	"context"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// DefaultRegistrationTTL is how long an accepted token blocks re-registration.
const DefaultRegistrationTTL = 24 * time.Hour

// ReplayStore records accepted tokens.
//
// TryRegister must be atomic: when several callers race on the same key,
// at most one of them observes true until the entry expires. Implementations
// return an error only when the store itself could not be consulted.
type ReplayStore interface {
	// TryRegister inserts key with the given ttl if it is absent.
	// Returns true if inserted, false if the key already exists.
	TryRegister(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// Enrollment describes an accepted token.
type Enrollment struct {
	Token      token.Token
	Source     string
	ReceivedAt time.Time
}

// AcceptHook is notified once per accepted token, after registration.
type AcceptHook interface {
	OnAccepted(ctx context.Context, e Enrollment) error
}

// AcceptHookFunc adapts a function to AcceptHook.
type AcceptHookFunc func(ctx context.Context, e Enrollment) error

// OnAccepted implements AcceptHook.
func (f AcceptHookFunc) OnAccepted(ctx context.Context, e Enrollment) error {
	return f(ctx, e)
}

// NopAcceptHook ignores accepted enrollments.
var NopAcceptHook AcceptHook = AcceptHookFunc(func(context.Context, Enrollment) error { return nil })

// ChainHooks runs hooks in order and returns the first error. Later hooks
// still run.
func ChainHooks(hooks ...AcceptHook) AcceptHook {
	return AcceptHookFunc(func(ctx context.Context, e Enrollment) error {
		var first error
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h.OnAccepted(ctx, e); err != nil && first == nil {
				first = err
			}
		}
		return first
	})
}
