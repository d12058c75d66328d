package errors

import "errors"

// Pipeline rejection kinds. Every failure from an external dependency is
// mapped to exactly one of these at its call site; the HTTP layer translates
// them to status codes and keeps the access-denied kinds indistinguishable
// to the caller.
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrReceiptVerification  = errors.New("receipt verification failed")
	ErrNoActiveSubscription = errors.New("no active subscription")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrUpstream             = errors.New("upstream completion error")
	ErrUpstreamMalformed    = errors.New("malformed upstream response")
)

// Error carries an internal detail message alongside the rejection kind.
// The message is for logs; callers only ever see the kind.
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Wrap(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
	}
}
