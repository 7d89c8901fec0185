package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor: ~250ms per verification on a
// modern server, which only the login call ever pays.
const defaultCost = 12

// PasswordService verifies the admin shared secret against a bcrypt hash.
// The plaintext secret from the environment is hashed once at startup and
// discarded; only the hash stays in memory.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// newPasswordServiceWithCost is used by tests to run at bcrypt's minimum
// cost instead of ~250ms per hash.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with a caller-chosen
// (low) cost for tests in other packages. Not for production use.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes a plaintext secret with bcrypt. The output embeds the salt
// and cost, so it is the only thing that needs storing.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext secret against a stored bcrypt hash.
// bcrypt's comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
