package auth

import (
	"fmt"
	"regexp"
	"strings"
)

// Password length bounds. bcrypt rejects inputs longer than 72 bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Validator collects field errors
type Validator struct {
	Errors map[string]string
}

// NewValidator creates an empty validator
func NewValidator() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no errors were recorded
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// Check records message for field when ok is false. The first error per field wins.
func (v *Validator) Check(ok bool, field, message string) {
	if ok {
		return
	}
	if _, exists := v.Errors[field]; !exists {
		v.Errors[field] = message
	}
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks presence and shape of an address
func ValidateEmail(v *Validator, email string) {
	v.Check(email != "", "email", "Email is required")
	v.Check(emailPattern.MatchString(email), "email", "Email is invalid")
}

// ValidatePassword checks presence and length of a password
func ValidatePassword(v *Validator, password string) {
	v.Check(password != "", "password", "Password is required")
	v.Check(len(password) >= MinPasswordLength, "password", fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	v.Check(len(password) <= MaxPasswordBytes, "password", fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
}

// ValidateSignIn checks a sign-in form
func ValidateSignIn(v *Validator, in SignInInput) {
	ValidateEmail(v, in.Email)
	ValidatePassword(v, in.Password)
}

// ValidateRegistration checks a sign-up form
func ValidateRegistration(v *Validator, in RegisterInput) {
	v.Check(strings.TrimSpace(in.Name) != "", "name", "Name is required")
	ValidateEmail(v, in.Email)
	ValidatePassword(v, in.Password)
	v.Check(in.ConfirmPassword == in.Password, "confirmPassword", "Passwords do not match")
}
