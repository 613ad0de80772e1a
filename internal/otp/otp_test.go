package otp

import (
	"regexp"
	"testing"
	"time"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fourDigits = regexp.MustCompile(`^\d{4}$`)

func TestGenerator_Generate(t *testing.T) {
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	g := NewGenerator(0, clock.NewFake(now))
	assert.Equal(t, DefaultTTL, g.TTL())

	for i := 0; i < 200; i++ {
		code, expiry, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, fourDigits, code)
		assert.Equal(t, now.Add(10*time.Minute), expiry)
	}
}

func TestGenerator_CustomTTL(t *testing.T) {
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	g := NewGenerator(2*time.Minute, clock.NewFake(now))
	_, expiry, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Minute), expiry)
}

func TestValidate(t *testing.T) {
	expiry := time.Date(2025, 5, 1, 8, 10, 0, 0, time.UTC)

	tests := []struct {
		name    string
		entered string
		stored  string
		now     time.Time
		want    Result
	}{
		{"match before expiry", "0420", "0420", expiry.Add(-time.Minute), Valid},
		{"match at expiry instant", "0420", "0420", expiry, Valid},
		{"wrong code", "0421", "0420", expiry.Add(-time.Minute), Mismatch},
		{"match after expiry", "0420", "0420", expiry.Add(time.Second), Expired},
		{"wrong code after expiry", "9999", "0420", expiry.Add(time.Hour), Expired},
		{"empty entry", "", "0420", expiry.Add(-time.Minute), Mismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.entered, tt.stored, expiry, tt.now))
		})
	}
}

func TestValidateStored(t *testing.T) {
	now := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	code := "1234"
	expiry := now.Add(time.Minute)

	assert.Equal(t, Expired, ValidateStored("1234", nil, nil, now))
	assert.Equal(t, Expired, ValidateStored("1234", &code, nil, now))
	assert.Equal(t, Valid, ValidateStored("1234", &code, &expiry, now))
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Valid.Err())
	assert.ErrorIs(t, Expired.Err(), domain.ErrOTPExpired)
	assert.ErrorIs(t, Mismatch.Err(), domain.ErrOTPMismatch)
	assert.Equal(t, "expired", Expired.String())
}
