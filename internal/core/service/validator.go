package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/rob-jonesdevlab/ods-signage/internal/core/domain"
	"github.com/rob-jonesdevlab/ods-signage/pkg/token"
)

// DefaultDriftLimit is the maximum accepted distance between a token's
// embedded timestamp and the validator's clock.
const DefaultDriftLimit = 5 * time.Minute

// Verdict is the result of temporal validation.
type Verdict struct {
	// Outcome is OutcomeAccepted when the token is well formed and fresh.
	// Only Malformed, Expired, Future and Accepted are produced here.
	Outcome domain.Outcome

	// Token is the decoded token. Zero when malformed.
	Token token.Token

	// EmbeddedMs is the token's timestamp in Unix milliseconds.
	EmbeddedMs int64

	// DeltaMs is now minus EmbeddedMs. Positive means the token is in the past.
	DeltaMs int64

	// Err describes a rejection. Nil when accepted.
	Err error
}

// Passed reports whether the token passed temporal validation.
func (v Verdict) Passed() bool {
	return v.Outcome.Accepted()
}

// Validate decodes tokenString and checks its embedded timestamp against
// nowMs. It has no side effects.
//
// delta = nowMs - embedded. delta > driftLimitMs is expired, delta <
// -driftLimitMs is future, anything in between (inclusive) passes. A negative
// driftLimitMs is treated as zero.
func Validate(tokenString string, nowMs, driftLimitMs int64) Verdict {
	t, err := token.Parse(tokenString)
	if err != nil {
		return Verdict{
			Outcome: domain.OutcomeRejectedMalformed,
			Err:     domain.ErrTokenMalformed.WithCause(err),
		}
	}

	if driftLimitMs < 0 {
		driftLimitMs = 0
	}

	embedded := t.UnixMilli()
	delta := nowMs - embedded
	v := Verdict{
		Outcome:    domain.OutcomeAccepted,
		Token:      t,
		EmbeddedMs: embedded,
		DeltaMs:    delta,
	}

	switch {
	case delta > driftLimitMs:
		v.Outcome = domain.OutcomeRejectedExpired
		v.Err = domain.ErrTokenExpired.WithDetails(fmt.Sprintf("%dms old, limit %dms", delta, driftLimitMs))
	case delta < -driftLimitMs:
		v.Outcome = domain.OutcomeRejectedFuture
		v.Err = domain.ErrTokenFuture.WithDetails(fmt.Sprintf("%dms ahead, limit %dms", -delta, driftLimitMs))
	}
	return v
}

// TokenValidator applies Validate with a configured drift limit and clock.
type TokenValidator struct {
	clock      token.Clock
	driftLimit time.Duration
}

// NewTokenValidator creates a validator. A nil clock means the system clock;
// a negative limit means DefaultDriftLimit. Zero only accepts tokens minted in
// the current millisecond.
func NewTokenValidator(clock token.Clock, driftLimit time.Duration) *TokenValidator {
	if clock == nil {
		clock = token.SystemClock
	}
	if driftLimit < 0 {
		driftLimit = DefaultDriftLimit
	}
	return &TokenValidator{
		clock:      clock,
		driftLimit: driftLimit,
	}
}

// DriftLimit returns the configured window.
func (v *TokenValidator) DriftLimit() time.Duration {
	return v.driftLimit
}

// Validate checks tokenString against the validator's clock. A clock that
// returns the zero time yields OutcomeRejectedUnavailable.
func (v *TokenValidator) Validate(tokenString string) Verdict {
	now := v.clock.Now()
	if now.IsZero() {
		return Verdict{
			Outcome: domain.OutcomeRejectedUnavailable,
			Err:     domain.ErrClockUnavailable,
		}
	}
	return Validate(tokenString, now.UnixMilli(), v.driftLimit.Milliseconds())
}

// IsTemporalRejection reports whether err is an expired or future rejection.
func IsTemporalRejection(err error) bool {
	return errors.Is(err, domain.ErrTokenExpired) || errors.Is(err, domain.ErrTokenFuture)
}
