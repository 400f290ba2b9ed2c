package ratelimit

import (
	"testing"
	"time"

	"github.com/spec-kit/support-bot/internal/config"
)

func testLimiter(now *time.Time) *Limiter {
	cfg := config.RateLimitConfig{MaxPerMinute: 1, MaxPerHour: 5, MaxPerDay: 20}
	return NewLimiter(cfg).WithClock(func() time.Time { return *now })
}

func TestLimiterMinuteWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := testLimiter(&now)

	if v := limiter.CanCreate("79161234567"); !v.Allowed {
		t.Fatalf("first creation denied: %+v", v)
	}
	limiter.RecordCreation("79161234567")

	now = now.Add(30 * time.Second)
	v := limiter.CanCreate("79161234567")
	if v.Allowed {
		t.Fatal("second creation within a minute allowed")
	}
	if v.Violated != PeriodMinute {
		t.Errorf("violated period = %q, want %q", v.Violated, PeriodMinute)
	}
	if v.Remaining <= 0 || v.Remaining > time.Minute {
		t.Errorf("remaining = %v, want within (0, 1m]", v.Remaining)
	}
	if v.MaxForPeriod != 1 {
		t.Errorf("max for period = %d, want 1", v.MaxForPeriod)
	}

	now = now.Add(31 * time.Second)
	if v := limiter.CanCreate("79161234567"); !v.Allowed {
		t.Errorf("creation denied after the minute window elapsed: %+v", v)
	}
}

func TestLimiterHourWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := testLimiter(&now)

	for i := 0; i < 5; i++ {
		if v := limiter.CanCreate("79161234567"); !v.Allowed {
			t.Fatalf("creation %d denied: %+v", i+1, v)
		}
		limiter.RecordCreation("79161234567")
		now = now.Add(2 * time.Minute)
	}

	v := limiter.CanCreate("79161234567")
	if v.Allowed {
		t.Fatal("sixth creation within the hour allowed")
	}
	if v.Violated != PeriodHour {
		t.Errorf("violated period = %q, want %q", v.Violated, PeriodHour)
	}

	now = now.Add(time.Hour)
	if v := limiter.CanCreate("79161234567"); !v.Allowed {
		t.Errorf("creation denied after the hour window elapsed: %+v", v)
	}
}

func TestLimiterIsolatesIdentities(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter := testLimiter(&now)

	limiter.RecordCreation("79161234567")
	if v := limiter.CanCreate("79160000000"); !v.Allowed {
		t.Errorf("unrelated identity denied: %+v", v)
	}
}
