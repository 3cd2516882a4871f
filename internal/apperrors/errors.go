// Package apperrors defines the error taxonomy shared by the coordinator, the
// message channel and the worker client.
//
// Sentinels are built on github.com/cockroachdb/errors so that wrapped errors
// keep their identity across errors.Is and carry operator hints.
package apperrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrNoActiveSession means the coordinator has no live record of the session.
	ErrNoActiveSession = errors.WithHint(
		errors.New("no active session"),
		"the session must be re-created",
	)
	// ErrAlreadyProcessing means another job is mid-application in the session.
	ErrAlreadyProcessing = errors.WithHint(
		errors.New("session is already processing a job"),
		"wait for the current job to finish; do not retry",
	)
	// ErrDuplicate means the normalized URL already has a terminal ledger row.
	ErrDuplicate = errors.WithHint(
		errors.New("job already processed"),
		"skip to the next candidate",
	)
	// ErrNotReady means no search task is outstanding (for example a continuation is pending).
	ErrNotReady = errors.New("session is not awaiting an application")
	// ErrApplication is the generic recoverable application failure.
	ErrApplication = errors.New("application failed")
	// ErrSessionAborted is fatal: the session completed with status ABORTED.
	ErrSessionAborted = errors.New("session aborted")
	// ErrNoMatchingApplication is returned for an outcome that no BeginApplication preceded.
	ErrNoMatchingApplication = errors.New("no matching application in flight")
	// ErrInvalidMessage is returned when a payload fails decoding or validation.
	ErrInvalidMessage = errors.New("invalid message")
	// ErrSessionExists is returned when StartSession reuses a live session id.
	ErrSessionExists = errors.New("session already exists")
	// ErrUnreachable is returned by transports when the destination has no receiver.
	ErrUnreachable = errors.New("destination unreachable")
)

// SkipApplicationError is an expected, non-fatal reason to skip a job
// (closed posting, already applied, no form found). It never counts toward backoff.
type SkipApplicationError struct {
	Reason string
}

func (e *SkipApplicationError) Error() string {
	return fmt.Sprintf("skip application: %s", e.Reason)
}

// Skip builds a SkipApplicationError.
func Skip(reason string) error {
	return &SkipApplicationError{Reason: reason}
}

// SkipReason reports whether err is (or wraps) a SkipApplicationError.
func SkipReason(err error) (string, bool) {
	var skip *SkipApplicationError
	if errors.As(err, &skip) {
		return skip.Reason, true
	}
	return "", false
}
