package auth

import (
	"crypto/subtle"

	"github.com/spec-kit/support-bot/internal/config"
)

// Credentials verifies the single configured admin credential pair.
type Credentials struct {
	username     string
	passwordHash string
	password     string
}

// NewCredentials builds a verifier from configuration. A bcrypt hash takes
// precedence over the plaintext fallback.
func NewCredentials(cfg config.AdminConfig) Credentials {
	return Credentials{
		username:     cfg.Username,
		passwordHash: cfg.PasswordHash,
		password:     cfg.Password,
	}
}

// Verify reports whether the supplied pair matches the configured one.
func (c Credentials) Verify(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(c.username)) != 1 {
		return false
	}
	if c.passwordHash != "" {
		return ComparePassword(c.passwordHash, password) == nil
	}
	if c.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(c.password)) == 1
}
