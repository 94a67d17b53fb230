// Package auth holds the operator credential check and the per-client gate
// that switches between the public catalogue and the operator console.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/iliyamo/rental-listings/internal/utils"
)

// ErrInvalidCredentials is returned for any username/password mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks an operator credential pair.
type Authenticator interface {
	Verify(username, password string) error
}

// StaticAuthenticator accepts exactly one configured pair.  Only a bcrypt
// hash of the password is kept.
type StaticAuthenticator struct {
	Username string
	hash     string
}

// NewStaticAuthenticator hashes password with the given bcrypt cost.
func NewStaticAuthenticator(username, password string, cost int) (*StaticAuthenticator, error) {
	if username == "" || password == "" {
		return nil, errors.New("auth: username and password are required")
	}
	h, err := utils.HashPassword(password, cost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	return &StaticAuthenticator{Username: username, hash: h}, nil
}

func (a *StaticAuthenticator) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	passOK := utils.VerifyPassword(a.hash, password)
	if !userOK || !passOK {
		return ErrInvalidCredentials
	}
	return nil
}
