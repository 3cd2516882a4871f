package coordinator

import (
	"time"

	"careerpilot/internal/models"
)

// Policy computes the continuation delay after a terminal outcome.
type Policy struct {
	ErrorBase time.Duration
	ErrorStep time.Duration
	ErrorMax  time.Duration
	Skip      time.Duration
	Success   time.Duration
	// SkipCountsAsError applies the error formula to SKIPPED outcomes, as some
	// platforms historically did.
	SkipCountsAsError bool
}

// DefaultPolicy: ERROR min(2s + 1s*n, 10s), SKIPPED 1s, SUCCESS 1.5s.
func DefaultPolicy() Policy {
	return Policy{
		ErrorBase: 2000 * time.Millisecond,
		ErrorStep: 1000 * time.Millisecond,
		ErrorMax:  10000 * time.Millisecond,
		Skip:      1000 * time.Millisecond,
		Success:   1500 * time.Millisecond,
	}
}

// Next returns the delay for an outcome and the updated count of consecutive
// errors since the last SUCCESS.
func (p Policy) Next(kind models.OutcomeKind, errorCount int) (time.Duration, int) {
	switch kind {
	case models.OutcomeSuccess:
		return p.Success, 0
	case models.OutcomeSkipped:
		if !p.SkipCountsAsError {
			return p.Skip, errorCount
		}
	}
	errorCount++
	delay := p.ErrorBase + time.Duration(errorCount)*p.ErrorStep
	if p.ErrorMax > 0 && delay > p.ErrorMax {
		delay = p.ErrorMax
	}
	return delay, errorCount
}
