package authkit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidRequest reports malformed input (empty email, username, code).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidCredentials is the generic login failure. It deliberately does
	// not distinguish an unknown email from a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountBlocked is returned when a correctly authenticating user has a
	// blocked account. Distinct from ErrInvalidCredentials by design.
	ErrAccountBlocked = errors.New("account blocked")
	// ErrAccountExists reports a duplicate email or username, whether caught
	// by the advisory pre-check or by the identity store's unique constraint.
	ErrAccountExists = errors.New("email or username already in use")
	// ErrUserNotFound reports an absent identity record.
	ErrUserNotFound = errors.New("user not found")
	// ErrOTPInvalid covers a missing, expired, already-consumed, or mismatched
	// one-time code. The cases are indistinguishable to the caller.
	ErrOTPInvalid = errors.New("invalid or expired otp")
	// ErrRateLimited reports an exhausted fixed window. Returned wrapped in a
	// ThrottledError carrying the remaining wait.
	ErrRateLimited = errors.New("too many otp requests")
	// ErrPasswordPolicy reports a password failing the strength policy. The
	// wrapped message names the missing character class.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrOTPUnavailable reports a cache-store failure during an OTP or
	// rate-limit operation. Rate limiting fails closed on this error.
	ErrOTPUnavailable = errors.New("otp backend unavailable")
	// ErrStoreUnavailable reports an identity-store failure.
	ErrStoreUnavailable = errors.New("identity store unavailable")
	// ErrDeliveryFailed reports a mail-dispatch failure after the code was
	// stored. The rate-limit slot stays consumed; retrying the issue flow
	// consumes another.
	ErrDeliveryFailed = errors.New("otp delivery failed")
	// ErrEngineNotReady reports a Build with a required dependency missing. The
	// wrapped message names the dependency.
	ErrEngineNotReady = errors.New("engine not ready")
)

// ThrottledError is the concrete error behind ErrRateLimited. RetryAfter is
// the remaining TTL of the offending counter's window, not a fresh window.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many otp requests, try again in %d seconds", int(e.RetryAfter.Seconds()))
}

// Is makes errors.Is(err, ErrRateLimited) match a *ThrottledError.
func (e *ThrottledError) Is(target error) bool {
	return target == ErrRateLimited
}

// ErrorKind buckets engine errors for callers that translate them into a
// transport-level response. HTTP handlers typically switch on KindOf.
type ErrorKind int

const (
	// KindUnknown is any error the engine did not classify.
	KindUnknown ErrorKind = iota
	// KindValidation covers malformed input and password-policy failures.
	KindValidation
	// KindConflict covers duplicate email/username.
	KindConflict
	// KindThrottled covers exhausted rate-limit windows.
	KindThrottled
	// KindAuthentication covers bad credentials, invalid codes, and blocked
	// accounts.
	KindAuthentication
	// KindNotFound covers lookups of absent identities.
	KindNotFound
	// KindDependency covers cache-store, identity-store, and mail failures.
	KindDependency
)

// KindOf classifies an engine error into its stable taxonomy bucket.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrPasswordPolicy):
		return KindValidation
	case errors.Is(err, ErrAccountExists):
		return KindConflict
	case errors.Is(err, ErrRateLimited):
		return KindThrottled
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrOTPInvalid), errors.Is(err, ErrAccountBlocked):
		return KindAuthentication
	case errors.Is(err, ErrUserNotFound):
		return KindNotFound
	case errors.Is(err, ErrOTPUnavailable), errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrDeliveryFailed), errors.Is(err, ErrEngineNotReady):
		return KindDependency
	default:
		return KindUnknown
	}
}

// wrapUnavailable tags a dependency failure with its public sentinel while
// keeping the cause in the message.
func wrapUnavailable(kind, cause error) error {
	return fmt.Errorf("%w: %v", kind, cause)
}

// RetryAfter extracts the remaining window from a throttled error, or zero
// when err is not a rate-limit failure.
func RetryAfter(err error) time.Duration {
	var throttled *ThrottledError
	if errors.As(err, &throttled) {
		return throttled.RetryAfter
	}
	return 0
}
