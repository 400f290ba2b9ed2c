package ratelimit

import (
	"testing"
	"time"

	"github.com/spec-kit/support-bot/internal/config"
)

func testDetector(now *time.Time) *SpamDetector {
	cfg := config.SpamConfig{MaxMessages: 10, Window: time.Minute}
	return NewSpamDetector(cfg).WithClock(func() time.Time { return *now })
}

func TestSpamDetectorTriggersOncePerEpisode(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	detector := testDetector(&now)

	for i := 0; i < 10; i++ {
		if v := detector.Record("79161234567"); v != SpamOK {
			t.Fatalf("message %d verdict = %v, want SpamOK", i+1, v)
		}
		now = now.Add(time.Second)
	}

	if v := detector.Record("79161234567"); v != SpamTriggered {
		t.Fatalf("11th message verdict = %v, want SpamTriggered", v)
	}
	if v := detector.Record("79161234567"); v != SpamAlreadyTriggered {
		t.Fatalf("12th message verdict = %v, want SpamAlreadyTriggered", v)
	}
}

func TestSpamDetectorWindowSlides(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	detector := testDetector(&now)

	for i := 0; i < 11; i++ {
		detector.Record("79161234567")
	}

	now = now.Add(2 * time.Minute)
	if v := detector.Record("79161234567"); v != SpamOK {
		t.Errorf("verdict after the window slid = %v, want SpamOK", v)
	}
}

func TestSpamDetectorForget(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	detector := testDetector(&now)

	for i := 0; i < 11; i++ {
		detector.Record("79161234567")
	}
	detector.Forget("79161234567")

	if v := detector.Record("79161234567"); v != SpamOK {
		t.Errorf("verdict after Forget = %v, want SpamOK", v)
	}
}
