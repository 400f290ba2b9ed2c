package ratelimit

import (
	"sync"
	"time"

	"github.com/spec-kit/support-bot/internal/config"
	"github.com/spec-kit/support-bot/internal/domain"
)

// SpamVerdict is the result of recording one message arrival.
type SpamVerdict int

const (
	// SpamOK means the arrival stayed inside the window limit.
	SpamOK SpamVerdict = iota
	// SpamTriggered means this message crossed the threshold; the caller
	// must ban and may warn exactly once.
	SpamTriggered
	// SpamAlreadyTriggered means the episode was already flagged; no
	// further warning is due.
	SpamAlreadyTriggered
)

type arrivals struct {
	times  []time.Time
	warned bool
}

// SpamDetector tracks raw message arrivals per identity in a rolling window.
// It covers one-to-one conversations only; the router never feeds it group
// traffic.
type SpamDetector struct {
	mu     sync.Mutex
	perID  map[domain.Identity]*arrivals
	max    int
	window time.Duration
	now    func() time.Time
}

// NewSpamDetector builds a detector with the configured threshold.
func NewSpamDetector(cfg config.SpamConfig) *SpamDetector {
	return &SpamDetector{
		perID:  make(map[domain.Identity]*arrivals),
		max:    cfg.MaxMessages,
		window: cfg.Window,
		now:    time.Now,
	}
}

// WithClock overrides the time source, for tests.
func (d *SpamDetector) WithClock(now func() time.Time) *SpamDetector {
	d.now = now
	return d
}

// Record registers one arrival and reports whether it crossed the threshold.
func (d *SpamDetector) Record(identity domain.Identity) SpamVerdict {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	a, ok := d.perID[identity]
	if !ok {
		a = &arrivals{}
		d.perID[identity] = a
	}

	cutoff := now.Add(-d.window)
	kept := a.times[:0]
	for _, t := range a.times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	a.times = append(kept, now)

	if len(a.times) <= d.max {
		a.warned = false
		return SpamOK
	}
	if a.warned {
		return SpamAlreadyTriggered
	}
	a.warned = true
	return SpamTriggered
}

// Forget drops all state for identity.
func (d *SpamDetector) Forget(identity domain.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.perID, identity)
}
