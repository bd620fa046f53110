package entities

import "time"

// Interaction is one handled inbound event as stored for usage stats.
type Interaction struct {
	Platform  string
	ChatID    string
	Intent    IntentKind
	OK        bool
	Latency   time.Duration
	CreatedAt time.Time
}

// IntentCount is a per-intent aggregate returned by the stats endpoint.
type IntentCount struct {
	Intent   IntentKind `json:"intent"`
	Total    int64      `json:"total"`
	Failures int64      `json:"failures"`
}
