package auth

import (
	"testing"
	"time"
)

func TestWebhookTokenRoundTrip(t *testing.T) {
	tm := NewWebhookTokenManager("test-secret")

	token, err := tm.Sign("support-bot", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := tm.Verify(token); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestWebhookTokenWrongSecret(t *testing.T) {
	token, err := NewWebhookTokenManager("secret-a").Sign("support-bot", time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := NewWebhookTokenManager("secret-b").Verify(token); err == nil {
		t.Error("token signed with another secret accepted")
	}
}

func TestWebhookTokenExpired(t *testing.T) {
	tm := NewWebhookTokenManager("test-secret")
	token, err := tm.Sign("support-bot", -time.Minute)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := tm.Verify(token); err == nil {
		t.Error("expired token accepted")
	}
}

func TestWebhookTokenGarbage(t *testing.T) {
	if err := NewWebhookTokenManager("test-secret").Verify("not-a-token"); err == nil {
		t.Error("garbage token accepted")
	}
}
