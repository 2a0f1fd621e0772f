package domain

import "time"

// EventType defines the type of event that occurred.
type EventType string

const (
	EventPagesRefreshed EventType = "pages.refreshed"
	EventManualReload   EventType = "manual.reload"
	EventManualSync     EventType = "manual.sync"
)

// Event represents a domain event that occurred in the system.
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Data      any
}

// PagesRefreshedPayload contains data for pages.refreshed events.
type PagesRefreshedPayload struct {
	Count       int
	Fingerprint string
}

// ManualTriggerPayload contains data for manual trigger events.
type ManualTriggerPayload struct {
	Source string // "signal" or "cli"
}
