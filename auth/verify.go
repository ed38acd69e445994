// Package auth holds the email verification material: a one-time link
// token and a 6-digit code, both valid for 15 minutes and cleared by the
// first successful verification.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

const CodeTTL = 15 * time.Minute

var (
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// Verification is the pending state stored on an unverified user.
type Verification struct {
	Token     string
	Code      string
	ExpiresAt int64
}

// NewVerification generates a fresh link token and 6-digit code.
func NewVerification(now time.Time) (Verification, error) {
	code, err := generateCode()
	if err != nil {
		return Verification{}, err
	}
	return Verification{
		Token:     uuid.NewString(),
		Code:      code,
		ExpiresAt: now.Add(CodeTTL).Unix(),
	}, nil
}

// CheckCode validates a submitted code against the pending state.
func (v Verification) CheckCode(code string, now time.Time) error {
	if v.Code == "" || now.Unix() > v.ExpiresAt {
		return ErrCodeExpired
	}
	if code != v.Code {
		return ErrCodeMismatch
	}
	return nil
}

// CheckToken validates a submitted link token against the pending state.
func (v Verification) CheckToken(token string, now time.Time) error {
	if v.Token == "" || now.Unix() > v.ExpiresAt {
		return ErrCodeExpired
	}
	if token != v.Token {
		return ErrCodeMismatch
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
