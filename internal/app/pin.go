/**
 * @description
 * This file defines the credential capability that gates every money movement:
 * a one-way hash of the holder's numeric PIN plus verification of a presented
 * PIN against the stored hash. The concrete algorithm sits behind a small
 * interface so it can be swapped without touching the engine.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: Slow, salted one-way hash. Its comparison runs
 *   in time independent of where a mismatch occurs.
 */

package app

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes PINs at registration time and verifies presented
// PINs at transfer time. Implementations must never expose the stored hash.
type CredentialVerifier interface {
	Hash(pin string) (string, error)
	Verify(pin, hash string) bool
}

// BcryptVerifier implements CredentialVerifier with bcrypt.
type BcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a verifier with the given bcrypt cost. Costs
// outside bcrypt's supported range fall back to the library default.
func NewBcryptVerifier(cost int) *BcryptVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptVerifier{cost: cost}
}

// Hash derives a salted one-way hash of the PIN.
func (v *BcryptVerifier) Hash(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), v.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether the presented PIN matches the stored hash.
func (v *BcryptVerifier) Verify(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
