// Package otp issues and checks the four-digit codes two people read to each other at a book handover.
package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/domain"
)

const (
	// DefaultTTL matches the countdown shown on the handover screen.
	DefaultTTL = 10 * time.Minute
	codeSpace  = 10000
)

type Result int

const (
	Valid Result = iota
	Expired
	Mismatch
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case Expired:
		return "expired"
	case Mismatch:
		return "mismatch"
	}
	return "unknown"
}

// Err maps a failed result to the domain error the client reacts to.
func (r Result) Err() error {
	switch r {
	case Expired:
		return domain.ErrOTPExpired
	case Mismatch:
		return domain.ErrOTPMismatch
	}
	return nil
}

type Generator struct {
	ttl   time.Duration
	clock clock.Clock
}

func NewGenerator(ttl time.Duration, clk clock.Clock) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{ttl: ttl, clock: clk}
}

func (g *Generator) TTL() time.Duration { return g.ttl }

// Generate returns a zero-padded code in 0000-9999 and its absolute expiry.
func (g *Generator) Generate() (string, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), g.clock.Now().Add(g.ttl), nil
}

// Validate checks expiry before the code, so an expired code never passes even when it matches.
// It has no side effects.
func Validate(entered, stored string, expiry, now time.Time) Result {
	if now.After(expiry) {
		return Expired
	}
	if subtle.ConstantTimeCompare([]byte(entered), []byte(stored)) != 1 {
		return Mismatch
	}
	return Valid
}

// ValidateStored handles the nullable pair kept on a transaction. A missing code has been consumed
// or never issued and is reported as expired so the client offers a fresh one.
func ValidateStored(entered string, stored *string, expiry *time.Time, now time.Time) Result {
	if stored == nil || expiry == nil {
		return Expired
	}
	return Validate(entered, *stored, *expiry, now)
}
