package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password represents a hashed password
type Password struct {
	plaintext *string // Pointer to distinguish nil from empty
	hash      []byte
}

// Set hashes and stores a plaintext password
func (p *Password) Set(plaintextPassword string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintextPassword), cost)
	if err != nil {
		return err
	}

	p.plaintext = &plaintextPassword
	p.hash = hash
	return nil
}

// Hash returns the stored bcrypt hash
func (p *Password) Hash() string {
	return string(p.hash)
}

// PasswordFromHash wraps a stored hash
func PasswordFromHash(hash string) Password {
	return Password{hash: []byte(hash)}
}

// Matches checks if a plaintext password matches the hash
func (p *Password) Matches(plaintextPassword string) (bool, error) {
	err := bcrypt.CompareHashAndPassword(p.hash, []byte(plaintextPassword))
	if err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, err
		}
	}
	return true, nil
}
