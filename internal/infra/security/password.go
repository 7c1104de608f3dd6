package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher hashes passwords with bcrypt. A Cost below bcrypt.MinCost
// falls back to bcrypt.DefaultCost.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost())
	if err != nil {
		return "", fmt.Errorf("security: hash password: %w", err)
	}
	return string(out), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

var ErrPasswordMismatch = errors.New("security: password mismatch")

func (h BcryptHasher) cost() int {
	if h.Cost >= bcrypt.MinCost {
		return h.Cost
	}
	return bcrypt.DefaultCost
}
