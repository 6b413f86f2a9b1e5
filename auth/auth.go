// Package auth implements the local credential gate of the bridge.
//
// Credentials are opaque to the server: a token-shaped password is accepted
// locally and forwarded verbatim to the backend, which performs the real
// authorization on first use. Statically configured users are the exception
// and are verified here with bcrypt.
package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// tokenParts is the number of dot-separated segments a credential must have
// to be considered token-shaped (header.payload.signature).
const tokenParts = 3

// Service answers login attempts. It holds only the static user table; it
// keeps no per-connection state.
type Service struct {
	// username -> bcrypt password hash
	users map[string]string
}

// NewService creates a credential gate with the given static users. The map
// may be nil; all logins then go through the token shape check.
func NewService(users map[string]string) *Service {
	if users == nil {
		users = make(map[string]string)
	}
	return &Service{users: users}
}

// Verify reports whether the username/credential pair passes the local gate.
// Static users must match their bcrypt hash; everyone else needs a
// token-shaped credential.
func (s *Service) Verify(username, credential string) bool {
	if hash, ok := s.users[username]; ok {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)) == nil
	}
	return TokenShaped(credential)
}

// TokenShaped reports whether credential has the expected number of
// non-empty dot-separated segments.
func TokenShaped(credential string) bool {
	parts := strings.Split(credential, ".")
	if len(parts) != tokenParts {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// HashPassword creates a bcrypt hash for a static user entry.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
