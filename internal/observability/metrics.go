package observability

import (
	"sync"
)

// Metrics provides basic in-memory counters for bot activity.
type Metrics struct {
	mu           sync.Mutex
	messageCount map[string]int64
	commandCount map[string]int64
	ticketCount  int64
	banCount     int64
	droppedCount map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		messageCount: make(map[string]int64),
		commandCount: make(map[string]int64),
		droppedCount: make(map[string]int64),
	}
}

// RecordMessage increments the processed-message counter for a channel.
func (m *Metrics) RecordMessage(channel string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageCount[channel]++
}

// RecordCommand increments the dispatched-command counter.
func (m *Metrics) RecordCommand(command string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCount[command]++
}

// RecordDrop counts messages dropped by a named policy branch.
func (m *Metrics) RecordDrop(reason string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.droppedCount[reason]++
}

// RecordTicketCreated increments the created-ticket counter.
func (m *Metrics) RecordTicketCreated() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketCount++
}

// RecordBan increments the ban counter.
func (m *Metrics) RecordBan() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.banCount++
}

// Snapshot returns copies of all counters, keyed for logging.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.messageCount)+len(m.commandCount)+len(m.droppedCount)+2)
	for k, v := range m.messageCount {
		out["messages|"+k] = v
	}
	for k, v := range m.commandCount {
		out["commands|"+k] = v
	}
	for k, v := range m.droppedCount {
		out["dropped|"+k] = v
	}
	out["tickets_created"] = m.ticketCount
	out["bans"] = m.banCount
	return out
}
