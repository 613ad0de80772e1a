package domain

import "errors"

// Lifecycle errors
var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflictStale     = errors.New("stale write: record changed since it was read")
	ErrDuplicateRequest  = errors.New("an open request for this book already exists")
	ErrSelfBorrow        = errors.New("owner cannot borrow their own book")
)

// OTP errors
var (
	ErrOTPExpired  = errors.New("otp has expired")
	ErrOTPMismatch = errors.New("otp does not match")
)

// Rating errors
var (
	ErrInvalidRating = errors.New("invalid rating")
	ErrAlreadyRated  = errors.New("already rated")
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrRateLimited     = errors.New("too many attempts")
	// ErrDeliveryFailure is only ever logged by the dispatcher.
	ErrDeliveryFailure = errors.New("notification delivery failed")
)
