package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/foldtable/pkg/domain"
)

// Change is the SSE payload sent after events were applied to a stream.
type Change struct {
	StreamID string         `json:"stream_id"`
	Version  int64          `json:"version"`
	Diff     map[string]any `json:"diff"`
}

// Broadcaster fans state diffs out to SSE subscribers.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // StreamID -> Set of Channels
	logger      *slog.Logger
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for streamID and returns it with its cancel function.
func (b *Broadcaster) Subscribe(streamID string) (chan string, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := b.subscribers[streamID]; !ok {
		b.subscribers[streamID] = make(map[chan<- string]struct{})
	}
	b.subscribers[streamID][ch] = struct{}{}

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if subs, ok := b.subscribers[streamID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(b.subscribers, streamID)
			}
		}
	}
}

// Observe matches stream.Observer. It broadcasts the diff between before and after.
func (b *Broadcaster) Observe(before, after *domain.Snapshot) {
	diff := domain.Diff(before.State, after.State)
	if diff == nil {
		b.logger.Debug("Broadcaster: No diff calculated", "stream_id", after.StreamID)
		return
	}

	payload, err := json.Marshal(Change{
		StreamID: after.StreamID,
		Version:  after.Version,
		Diff:     diff,
	})
	if err != nil {
		b.logger.Error("Broadcaster: Failed to encode diff", "stream_id", after.StreamID, "err", err)
		return
	}
	b.Broadcast(after.StreamID, string(payload))
}

// Broadcast sends msg to every subscriber of streamID, dropping it for slow clients.
func (b *Broadcaster) Broadcast(streamID string, msg string) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[streamID] {
		select {
		case ch <- msg:
		default:
			b.logger.Warn("SSE: Client buffer full, dropping message", "stream_id", streamID)
		}
	}
}
