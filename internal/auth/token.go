package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// WebhookTokenManager signs and validates the HS256 bearer tokens
// exchanged with the webhook channel provider.
type WebhookTokenManager struct {
	secret []byte
}

// NewWebhookTokenManager builds a new manager.
func NewWebhookTokenManager(secret string) *WebhookTokenManager {
	return &WebhookTokenManager{secret: []byte(secret)}
}

// Sign issues a short-lived token for an outbound request.
func (tm *WebhookTokenManager) Sign(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(tm.secret)
}

// Verify validates an inbound bearer token.
func (tm *WebhookTokenManager) Verify(tokenStr string) error {
	parsed, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}
