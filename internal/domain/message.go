package domain

import "time"

// InboundMessage is the channel-agnostic inbound event the router consumes.
type InboundMessage struct {
	Channel     string
	MessageID   string
	From        string
	DisplayName string
	Body        string
	HasMedia    bool
	MediaBytes  int64
	IsGroup     bool
	Timestamp   time.Time
}

// OutboundMessage is a reply or notification the core asks a channel to send.
type OutboundMessage struct {
	Target string `json:"target"`
	Body   string `json:"body"`
}

// AuditRecord captures one inbound message for the persistent audit log.
type AuditRecord struct {
	Identity    Identity
	DisplayName string
	Body        string
	IsGroup     bool
	Banned      bool
	ReceivedAt  time.Time
}
