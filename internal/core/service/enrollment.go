package service

import (
	"context"
	"errors"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/domain"
	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// EnrollmentServiceConfig holds configuration for EnrollmentService.
type EnrollmentServiceConfig struct {
	// DriftLimit is the freshness window. Zero is a valid window; use
	// DefaultEnrollmentServiceConfig or a negative value for the 5m default.
	DriftLimit time.Duration

	// RegistrationTTL is how long an accepted token is remembered (default: 24h).
	RegistrationTTL time.Duration

	// StoreTimeout bounds each TryRegister call (default: 2s, 0 disables).
	StoreTimeout time.Duration

	// Clock overrides the system clock.
	Clock token.Clock
}

// DefaultEnrollmentServiceConfig returns default configuration.
func DefaultEnrollmentServiceConfig() *EnrollmentServiceConfig {
	return &EnrollmentServiceConfig{
		DriftLimit:      DefaultDriftLimit,
		RegistrationTTL: DefaultRegistrationTTL,
		StoreTimeout:    2 * time.Second,
		Clock:           token.SystemClock,
	}
}

// EnrollmentService runs one enrollment attempt: temporal validation, then
// replay registration, then the acceptance hook.
type EnrollmentService struct {
	validator    *TokenValidator
	store        ReplayStore
	hook         AcceptHook
	ttl          time.Duration
	storeTimeout time.Duration
	clock        token.Clock
}

// NewEnrollmentService creates an EnrollmentService. hook may be nil.
func NewEnrollmentService(store ReplayStore, hook AcceptHook, config *EnrollmentServiceConfig) *EnrollmentService {
	if config == nil {
		config = DefaultEnrollmentServiceConfig()
	}
	if hook == nil {
		hook = NopAcceptHook
	}
	clock := config.Clock
	if clock == nil {
		clock = token.SystemClock
	}
	ttl := config.RegistrationTTL
	if ttl <= 0 {
		ttl = DefaultRegistrationTTL
	}

	return &EnrollmentService{
		validator:    NewTokenValidator(clock, config.DriftLimit),
		store:        store,
		hook:         hook,
		ttl:          ttl,
		storeTimeout: config.StoreTimeout,
		clock:        clock,
	}
}

// EnrollRequest is one decoded datagram.
type EnrollRequest struct {
	Token      string    // Token text, already trimmed
	Source     string    // Sender address, for logging and the hook
	ReceivedAt time.Time // Zero means now
}

// EnrollResponse is the terminal state of an attempt.
type EnrollResponse struct {
	Outcome domain.Outcome
	Verdict Verdict

	// Err describes a rejection. Nil when accepted.
	Err error

	// HookErr is the acceptance hook's error. The attempt stays accepted.
	HookErr error
}

// Enroll processes one attempt. It never panics on bad input; every failure
// is reported through the response.
func (s *EnrollmentService) Enroll(ctx context.Context, req *EnrollRequest) *EnrollResponse {
	// 1. Temporal validation (pure)
	verdict := s.validator.Validate(req.Token)
	if !verdict.Passed() {
		return &EnrollResponse{
			Outcome: verdict.Outcome,
			Verdict: verdict,
			Err:     verdict.Err,
		}
	}

	// 2. Atomic registration
	registered, err := s.register(ctx, verdict.Token.Key())
	if err != nil {
		return &EnrollResponse{
			Outcome: domain.OutcomeRejectedUnavailable,
			Verdict: verdict,
			Err:     domain.ErrStoreUnavailable.WithCause(err),
		}
	}
	if !registered {
		return &EnrollResponse{
			Outcome: domain.OutcomeRejectedReplay,
			Verdict: verdict,
			Err:     domain.ErrReplayDetected.WithDetails(verdict.Token.String()),
		}
	}

	// 3. Hand off
	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.clock.Now()
	}
	resp := &EnrollResponse{
		Outcome: domain.OutcomeAccepted,
		Verdict: verdict,
	}
	resp.HookErr = s.hook.OnAccepted(ctx, Enrollment{
		Token:      verdict.Token,
		Source:     req.Source,
		ReceivedAt: receivedAt,
	})
	return resp
}

func (s *EnrollmentService) register(ctx context.Context, key string) (bool, error) {
	if s.store == nil {
		return false, errors.New("no replay store configured")
	}
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}
	return s.store.TryRegister(ctx, key, s.ttl)
}

// RegistrationTTL returns the configured registration window.
func (s *EnrollmentService) RegistrationTTL() time.Duration {
	return s.ttl
}

// DriftLimit returns the configured freshness window.
func (s *EnrollmentService) DriftLimit() time.Duration {
	return s.validator.DriftLimit()
}
