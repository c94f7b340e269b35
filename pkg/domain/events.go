package domain

import "time"

// Event is the contract every reduced event must satisfy.
// EventType returns the discriminant used as the lookup key into a handler table.
type Event interface {
	EventType() string
}

// Record is a generic event envelope.
type Record struct {
	Type      string         `json:"type" yaml:"type" mapstructure:"type"`
	Payload   map[string]any `json:"payload,omitempty" yaml:"payload,omitempty" mapstructure:"payload"`
	Timestamp time.Time      `json:"timestamp,omitempty" yaml:"timestamp,omitempty" mapstructure:"timestamp"`
}

// EventType implements Event.
func (r Record) EventType() string {
	return r.Type
}

// NewRecord creates a record stamped with the current time.
func NewRecord(eventType string, payload map[string]any) Record {
	return Record{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
