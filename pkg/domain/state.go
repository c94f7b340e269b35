package domain

import "time"

// Document is the map-shaped state folded by rule-driven reducers.
type Document map[string]any

// Clone returns a deep copy of the document.
// Nested maps and slices are copied so the result can be mutated freely.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Document:
		return val.Clone()
	case map[string]any:
		return map[string]any(Document(val).Clone())
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Snapshot is the persisted result of folding a stream of events.
type Snapshot struct {
	// StreamID identifies the stream the events belong to.
	StreamID string `json:"stream_id"`

	// Version counts the events applied so far.
	Version int64 `json:"version"`

	// State is the folded document.
	State Document `json:"state"`

	// UpdatedAt is set every time events are applied.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSnapshot creates a version zero snapshot holding a copy of initial.
func NewSnapshot(streamID string, initial Document) *Snapshot {
	state := initial.Clone()
	if state == nil {
		state = Document{}
	}
	return &Snapshot{
		StreamID:  streamID,
		State:     state,
		UpdatedAt: time.Now().UTC(),
	}
}

// Copy returns a deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.State = s.State.Clone()
	return &out
}
