// Package audit builds relationship graphs from security audit events.
// Every event becomes one edge between its source and destination entities;
// entity node types are inferred from configurable glob rules over the
// entity identifier.
package audit

import "time"

// LogEvent is a single audit record connecting two entities.
type LogEvent struct {
	// EventID uniquely identifies the event and becomes the edge origin id,
	// so scores can be traced back to the record that produced them.
	EventID string `json:"event_id"`

	// Timestamp is when the event occurred. Carried through for callers;
	// graph construction does not depend on it.
	Timestamp time.Time `json:"timestamp"`

	// SourceEntity is the acting entity (e.g. "user_alice").
	SourceEntity string `json:"source_entity"`

	// DestinationEntity is the entity acted upon (e.g. "system_billing").
	DestinationEntity string `json:"destination_entity"`

	// Action is the operation the event records (e.g. "read", "delete").
	Action string `json:"action"`

	// Metadata holds free-form event attributes.
	Metadata map[string]string `json:"metadata,omitempty"`
}
