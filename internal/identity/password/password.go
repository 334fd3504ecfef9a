// Package password hashes and verifies account passwords with bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the minimum work factor accepted for stored digests.
const DefaultCost = 10

// dummyDigest is compared against when the account does not exist so that
// unknown emails take as long as wrong passwords.
var dummyDigest, _ = bcrypt.GenerateFromPassword([]byte("pharmacy-api-dummy-password"), DefaultCost)

// Hasher produces and checks salted bcrypt digests.
type Hasher struct {
	cost int
}

// NewHasher creates a hasher. Costs are clamped to [DefaultCost, bcrypt.MaxCost].
func NewHasher(cost int) *Hasher {
	return &Hasher{cost: min(max(cost, DefaultCost), bcrypt.MaxCost)}
}

// Hash returns a bcrypt digest of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest.
func (h *Hasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// DummyVerify spends the same time as a failed Verify.
func (h *Hasher) DummyVerify(plaintext string) {
	_ = bcrypt.CompareHashAndPassword(dummyDigest, []byte(plaintext))
}

// ErrTooLong is returned for passwords longer than bcrypt accepts (72 bytes).
var ErrTooLong = errors.New("password is too long")
