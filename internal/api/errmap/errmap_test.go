package errmap

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookshare-backend/internal/domain"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		err    error
		code   codes.Code
		status int
		reason string
	}{
		{domain.ErrNotFound, codes.NotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrForbidden, codes.PermissionDenied, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrInvalidTransition, codes.FailedPrecondition, http.StatusConflict, "INVALID_TRANSITION"},
		{domain.ErrConflictStale, codes.Aborted, http.StatusConflict, "CONFLICT_STALE"},
		{domain.ErrOTPExpired, codes.FailedPrecondition, http.StatusGone, "OTP_EXPIRED"},
		{domain.ErrOTPMismatch, codes.InvalidArgument, http.StatusUnprocessableEntity, "OTP_MISMATCH"},
		{domain.ErrDuplicateRequest, codes.AlreadyExists, http.StatusConflict, "DUPLICATE_REQUEST"},
		{domain.ErrAlreadyRated, codes.FailedPrecondition, http.StatusConflict, "ALREADY_RATED"},
		{domain.ErrSelfBorrow, codes.InvalidArgument, http.StatusBadRequest, "SELF_BORROW"},
		{domain.ErrRateLimited, codes.ResourceExhausted, http.StatusTooManyRequests, "RATE_LIMITED"},
		{errors.New("pq: connection refused"), codes.Internal, http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			m := Lookup(fmt.Errorf("transaction t1: %w", tt.err))
			assert.Equal(t, tt.code, m.Code)
			assert.Equal(t, tt.status, m.HTTP)
			assert.Equal(t, tt.reason, m.Reason)
		})
	}
}

func TestMessage_HidesInternalErrors(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("pq: password authentication failed")))
	assert.Equal(t, "forbidden: only the owner may do this", Message(fmt.Errorf("%w: only the owner may do this", domain.ErrForbidden)))
}

func TestStatus_CarriesReason(t *testing.T) {
	err := Status(fmt.Errorf("transaction t1: %w", domain.ErrOTPExpired))
	st, ok := status.FromError(err)
	assert.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Equal(t, "OTP_EXPIRED", ReasonOf(err))

	passthrough := status.Error(codes.Unauthenticated, "no token")
	assert.Equal(t, passthrough, Status(passthrough))
	assert.NoError(t, Status(nil))
}
