package domain

// Outcome is the terminal state of one enrollment attempt.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeRejectedMalformed
	OutcomeRejectedExpired
	OutcomeRejectedFuture
	OutcomeRejectedReplay
	OutcomeRejectedThrottled
	OutcomeRejectedUnavailable
)

var outcomeNames = [...]string{
	OutcomeAccepted:            "accepted",
	OutcomeRejectedMalformed:   "rejected_malformed",
	OutcomeRejectedExpired:     "rejected_expired",
	OutcomeRejectedFuture:      "rejected_future",
	OutcomeRejectedReplay:      "rejected_replay",
	OutcomeRejectedThrottled:   "rejected_throttled",
	OutcomeRejectedUnavailable: "rejected_unavailable",
}

// Outcomes lists every outcome, in declaration order.
func Outcomes() []Outcome {
	out := make([]Outcome, len(outcomeNames))
	for i := range outcomeNames {
		out[i] = Outcome(i)
	}
	return out
}

// String returns the snake_case name used in logs and metric labels.
func (o Outcome) String() string {
	if o < 0 || int(o) >= len(outcomeNames) {
		return "unknown"
	}
	return outcomeNames[o]
}

// Accepted reports whether the attempt was accepted.
func (o Outcome) Accepted() bool {
	return o == OutcomeAccepted
}

// Err returns the sentinel error describing a rejection, or nil for
// OutcomeAccepted.
func (o Outcome) Err() error {
	switch o {
	case OutcomeAccepted:
		return nil
	case OutcomeRejectedMalformed:
		return ErrTokenMalformed
	case OutcomeRejectedExpired:
		return ErrTokenExpired
	case OutcomeRejectedFuture:
		return ErrTokenFuture
	case OutcomeRejectedReplay:
		return ErrReplayDetected
	case OutcomeRejectedThrottled:
		return ErrThrottled
	case OutcomeRejectedUnavailable:
		return ErrStoreUnavailable
	default:
		return ErrInternal
	}
}
