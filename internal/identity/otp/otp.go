// Package otp generates one-time numeric codes and opaque reset tokens.
package otp

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// Length is the number of digits in a code.
const Length = 6

// resetTokenBytes is the entropy of a reset token before hex encoding.
const resetTokenBytes = 32

var ten = big.NewInt(10)

// Generate returns a 6-digit code. Each digit is drawn from crypto/rand.
func Generate() (string, error) {
	var code [Length]byte
	for i := range code {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate otp: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code[:]), nil
}

// NewResetToken returns a 64-character hex token.
func NewResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
