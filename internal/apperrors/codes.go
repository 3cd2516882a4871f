package apperrors

import "github.com/cockroachdb/errors"

// Code is the wire representation of an error in the taxonomy.
type Code string

const (
	CodeNoActiveSession Code = "NO_ACTIVE_SESSION"
	CodeAlreadyProcess  Code = "ALREADY_PROCESSING"
	CodeDuplicate       Code = "DUPLICATE"
	CodeNotReady        Code = "NOT_READY"
	CodeSessionAborted  Code = "SESSION_ABORTED"
	CodeNoMatching      Code = "NO_MATCHING_APPLICATION"
	CodeInvalidMessage  Code = "INVALID_MESSAGE"
	CodeUnreachable     Code = "UNREACHABLE"
	CodeSessionExists   Code = "SESSION_EXISTS"
	CodeSkip            Code = "SKIP"
	CodeApplication     Code = "APPLICATION_ERROR"
	CodeInternal        Code = "INTERNAL"
)

var sentinels = []struct {
	code Code
	err  error
}{
	{CodeNoActiveSession, ErrNoActiveSession},
	{CodeAlreadyProcess, ErrAlreadyProcessing},
	{CodeDuplicate, ErrDuplicate},
	{CodeNotReady, ErrNotReady},
	{CodeSessionAborted, ErrSessionAborted},
	{CodeNoMatching, ErrNoMatchingApplication},
	{CodeInvalidMessage, ErrInvalidMessage},
	{CodeUnreachable, ErrUnreachable},
	{CodeSessionExists, ErrSessionExists},
	{CodeApplication, ErrApplication},
}

// CodeOf maps err to its wire code. Unknown errors map to CodeInternal.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if _, ok := SkipReason(err); ok {
		return CodeSkip
	}
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return CodeInternal
}

// FromCode rebuilds an error received over the wire so that errors.Is matches
// the same sentinel the sender used.
func FromCode(code Code, message string) error {
	if code == CodeSkip {
		return Skip(message)
	}
	for _, s := range sentinels {
		if s.code == code {
			if message == "" {
				return s.err
			}
			return errors.Wrap(s.err, message)
		}
	}
	if message == "" {
		message = "internal error"
	}
	return errors.New(message)
}
