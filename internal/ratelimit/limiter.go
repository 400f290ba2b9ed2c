package ratelimit

import (
	"sync"
	"time"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
)

// Period names the window a denial refers to.
type Period string

const (
	PeriodMinute Period = "minute"
	PeriodHour   Period = "hour"
	PeriodDay    Period = "day"
)

var periodLength = map[Period]time.Duration{
	PeriodMinute: time.Minute,
	PeriodHour:   time.Hour,
	PeriodDay:    24 * time.Hour,
}

// Verdict is the result of a creation check. On denial it carries enough to
// render a precise wait-time message.
type Verdict struct {
	Allowed      bool
	Violated     Period
	Remaining    time.Duration
	CurrentCount int
	MaxForPeriod int
}

type window struct {
	count int
	start time.Time
}

type counters struct {
	windows map[Period]*window
}

// Limiter tracks per-identity ticket-creation counts over minute, hour and
// day windows. State is in-memory only; a restart clears it.
type Limiter struct {
	mu     sync.Mutex
	perID  map[domain.Identity]*counters
	maxima map[Period]int
	now    func() time.Time
}

// NewLimiter builds a limiter with the configured maxima.
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		perID: make(map[domain.Identity]*counters),
		maxima: map[Period]int{
			PeriodMinute: cfg.MaxPerMinute,
			PeriodHour:   cfg.MaxPerHour,
			PeriodDay:    cfg.MaxPerDay,
		},
		now: time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// CanCreate checks all three windows without committing anything. Elapsed
// windows are reset as a side effect so stale counts never deny.
func (l *Limiter) CanCreate(identity domain.Identity) Verdict {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c := l.countersFor(identity, now)

	for _, period := range []Period{PeriodMinute, PeriodHour, PeriodDay} {
		w := c.windows[period]
		length := periodLength[period]
		if now.Sub(w.start) > length {
			w.count = 0
			w.start = now
			continue
		}
		if w.count >= l.maxima[period] {
			return Verdict{
				Allowed:      false,
				Violated:     period,
				Remaining:    length - now.Sub(w.start),
				CurrentCount: w.count,
				MaxForPeriod: l.maxima[period],
			}
		}
	}
	return Verdict{Allowed: true}
}

// RecordCreation commits a successful ticket creation to all three windows.
func (l *Limiter) RecordCreation(identity domain.Identity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c := l.countersFor(identity, now)
	for period, w := range c.windows {
		if now.Sub(w.start) > periodLength[period] {
			w.count = 0
			w.start = now
		}
		w.count++
	}
}

func (l *Limiter) countersFor(identity domain.Identity, now time.Time) *counters {
	c, ok := l.perID[identity]
	if !ok {
		c = &counters{windows: map[Period]*window{
			PeriodMinute: {start: now},
			PeriodHour:   {start: now},
			PeriodDay:    {start: now},
		}}
		l.perID[identity] = c
	}
	return c
}
