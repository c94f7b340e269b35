package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/aretw0/foldtable"
	"github.com/aretw0/foldtable/internal/sanitize"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/stream"
	"github.com/go-chi/chi/v5"
)

// maxBodySize caps request bodies of POST /streams/{id}/events.
const maxBodySize = 1 << 20

// Server serves a stream manager over HTTP.
type Server struct {
	Streams     *stream.Manager
	Keys        []string
	Broadcaster *Broadcaster

	sanitizer *sanitize.Sanitizer
	metrics   http.Handler
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithBroadcaster shares a Broadcaster that is also registered as a stream.Observer.
func WithBroadcaster(b *Broadcaster) Option {
	return func(s *Server) {
		s.Broadcaster = b
	}
}

// WithSanitizer overrides the default input sanitizer.
func WithSanitizer(san *sanitize.Sanitizer) Option {
	return func(s *Server) {
		s.sanitizer = san
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger configures the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler for mgr. keys lists the reducer's table keys.
func NewHandler(mgr *stream.Manager, keys []string, opts ...Option) http.Handler {
	server := &Server{
		Streams:   mgr,
		Keys:      keys,
		sanitizer: sanitize.New(0),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Broadcaster == nil {
		server.Broadcaster = NewBroadcaster(server.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/handlers", server.ListHandlers)
	r.Route("/streams", func(r chi.Router) {
		r.Get("/", server.ListStreams)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", server.GetStream)
			r.Delete("/", server.DeleteStream)
			r.Post("/events", server.ApplyEvents)
			r.Get("/changes", server.SubscribeChanges)
		})
	})
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":      "foldtable-http",
		"version":  strings.TrimSpace(foldtable.Version),
		"handlers": len(s.Keys),
	})
}

// ListHandlers handles the GET /handlers request.
func (s *Server) ListHandlers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"keys": s.Keys})
}

// ListStreams handles the GET /streams request.
func (s *Server) ListStreams(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Streams.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("List streams failed", "err", err)
		return
	}
	slices.Sort(ids)
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"streams": ids})
}

// GetStream handles the GET /streams/{id} request.
func (s *Server) GetStream(w http.ResponseWriter, r *http.Request) {
	id, ok := s.streamID(w, r)
	if !ok {
		return
	}

	snap, err := s.Streams.Load(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DeleteStream handles the DELETE /streams/{id} request.
func (s *Server) DeleteStream(w http.ResponseWriter, r *http.Request) {
	id, ok := s.streamID(w, r)
	if !ok {
		return
	}

	if err := s.Streams.Delete(r.Context(), id); err != nil {
		s.writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyEvents handles the POST /streams/{id}/events request.
// The body is a single event record or an array of records.
func (s *Server) ApplyEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := s.streamID(w, r)
	if !ok {
		return
	}

	events, err := decodeEvents(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("ApplyEvents: Invalid request body", "err", err)
		return
	}

	for i, evt := range events {
		clean, err := s.sanitizer.Record(evt)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid event %d: %v", i, err), http.StatusBadRequest)
			s.logger.Warn("ApplyEvents: Event rejected", "err", err, "index", i)
			return
		}
		events[i] = clean
	}

	snap, err := s.Streams.Apply(r.Context(), id, events...)
	if err != nil {
		s.writeStoreError(w, id, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// SubscribeChanges handles the GET /streams/{id}/changes request (SSE).
func (s *Server) SubscribeChanges(w http.ResponseWriter, r *http.Request) {
	id, ok := s.streamID(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeChanges: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Broadcaster.Subscribe(id)
	defer cancel()

	s.logger.Info("SSE: Subscribing to stream changes", "stream_id", id)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "stream_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) streamID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := s.sanitizer.Input(chi.URLParam(r, "id"))
	if err != nil || strings.TrimSpace(id) == "" {
		http.Error(w, "Invalid stream id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// writeStoreError maps errors from the stream manager to status codes.
// Anything that is not a lookup or store failure came from a handler.
func (s *Server) writeStoreError(w http.ResponseWriter, id string, err error) {
	var storeErr *stream.StoreError
	switch {
	case errors.Is(err, domain.ErrStreamNotFound):
		http.Error(w, fmt.Sprintf("Stream %q not found", id), http.StatusNotFound)
	case errors.Is(err, domain.ErrStaleSnapshot):
		http.Error(w, fmt.Sprintf("Stream %q was updated concurrently, retry", id), http.StatusConflict)
	case errors.As(err, &storeErr):
		http.Error(w, fmt.Sprintf("Store error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Store operation failed", "stream_id", id, "err", err)
	default:
		http.Error(w, fmt.Sprintf("Handler failed: %v", err), http.StatusUnprocessableEntity)
		s.logger.Warn("Handler failed", "stream_id", id, "err", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

func decodeEvents(body io.Reader) ([]domain.Record, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var events []domain.Record
		if err := json.Unmarshal(raw, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var evt domain.Record
	if err := json.Unmarshal(raw, &evt); err != nil {
		return nil, err
	}
	return []domain.Record{evt}, nil
}
