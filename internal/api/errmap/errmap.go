// Package errmap translates domain errors into transport codes and stable reasons.
package errmap

import (
	"errors"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookshare-backend/internal/domain"
)

// Mapping is how one domain error surfaces at the API edge.
type Mapping struct {
	Code   codes.Code
	HTTP   int
	Reason string
}

var internal = Mapping{Code: codes.Internal, HTTP: http.StatusInternalServerError, Reason: "INTERNAL"}

var table = []struct {
	err error
	m   Mapping
}{
	{domain.ErrNotFound, Mapping{codes.NotFound, http.StatusNotFound, "NOT_FOUND"}},
	{domain.ErrForbidden, Mapping{codes.PermissionDenied, http.StatusForbidden, "FORBIDDEN"}},
	{domain.ErrInvalidTransition, Mapping{codes.FailedPrecondition, http.StatusConflict, "INVALID_TRANSITION"}},
	{domain.ErrConflictStale, Mapping{codes.Aborted, http.StatusConflict, "CONFLICT_STALE"}},
	{domain.ErrOTPExpired, Mapping{codes.FailedPrecondition, http.StatusGone, "OTP_EXPIRED"}},
	{domain.ErrOTPMismatch, Mapping{codes.InvalidArgument, http.StatusUnprocessableEntity, "OTP_MISMATCH"}},
	{domain.ErrDuplicateRequest, Mapping{codes.AlreadyExists, http.StatusConflict, "DUPLICATE_REQUEST"}},
	{domain.ErrAlreadyRated, Mapping{codes.FailedPrecondition, http.StatusConflict, "ALREADY_RATED"}},
	{domain.ErrSelfBorrow, Mapping{codes.InvalidArgument, http.StatusBadRequest, "SELF_BORROW"}},
	{domain.ErrInvalidRating, Mapping{codes.InvalidArgument, http.StatusBadRequest, "INVALID_RATING"}},
	{domain.ErrInvalidArgument, Mapping{codes.InvalidArgument, http.StatusBadRequest, "INVALID_ARGUMENT"}},
	{domain.ErrRateLimited, Mapping{codes.ResourceExhausted, http.StatusTooManyRequests, "RATE_LIMITED"}},
}

// Lookup returns the mapping for err. Unknown errors are internal.
func Lookup(err error) Mapping {
	for _, e := range table {
		if errors.Is(err, e.err) {
			return e.m
		}
	}
	return internal
}

// Message is the client-safe text for err; internal failures are not echoed.
func Message(err error) string {
	if Lookup(err).Code == codes.Internal {
		return "internal error"
	}
	return err.Error()
}

// ErrorDomain tags ErrorInfo details.
const ErrorDomain = "bookshare"

// Status converts err to a gRPC status carrying an ErrorInfo with the stable reason.
// Errors that already are statuses pass through.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	m := Lookup(err)
	st := status.New(m.Code, Message(err))
	detailed, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: m.Reason, Domain: ErrorDomain})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}

// ReasonOf extracts the ErrorInfo reason from a gRPC error, or "" when absent.
func ReasonOf(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}
