package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type bcryptHasher struct {
	cost int
}

// NewPasswordHasher returns a bcrypt-backed [PasswordHasher]. A cost of zero
// selects bcrypt.DefaultCost.
func NewPasswordHasher(cost int) PasswordHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("error hashing password: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
