package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/foldtable"
	"github.com/aretw0/foldtable/internal/sanitize"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/stream"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HandlersURI is the resource listing the flattened handler keys.
const HandlersURI = "foldtable://handlers"

// DispatchResponse is returned by the dispatch_event tool.
type DispatchResponse struct {
	Snapshot *domain.Snapshot `json:"snapshot" jsonschema_description:"The stream snapshot after the event was applied"`
	Matched  bool             `json:"matched" jsonschema_description:"Whether a handler was registered for the event type"`
}

// HandlersResponse is returned by the list_handlers tool.
type HandlersResponse struct {
	Keys []string `json:"keys" jsonschema_description:"Flattened handler keys in registration order"`
}

// Server exposes a stream manager as an MCP Server.
type Server struct {
	streams   *stream.Manager
	keys      []string
	sanitizer *sanitize.Sanitizer
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
// keys lists the reducer's table keys; a nil sanitizer uses the default limits.
func NewServer(streams *stream.Manager, keys []string, sanitizer *sanitize.Sanitizer) *Server {
	if sanitizer == nil {
		sanitizer = sanitize.New(0)
	}
	s := &Server{
		streams:   streams,
		keys:      keys,
		sanitizer: sanitizer,
		mcpServer: server.NewMCPServer("foldtable-mcp", strings.TrimSpace(foldtable.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: dispatch_event
	dispatchTool := mcp.NewTool("dispatch_event",
		mcp.WithDescription("Apply an event to a stream and return the resulting snapshot. Unknown event types leave the state unchanged."),
		mcp.WithString("stream_id", mcp.Required(), mcp.Description("The stream to apply the event to")),
		mcp.WithString("type", mcp.Required(), mcp.Description("The event type, e.g. Cart_Add")),
		mcp.WithString("payload", mcp.Description("JSON object carried by the event (optional)")),
		mcp.WithOutputSchema[DispatchResponse](),
	)
	s.mcpServer.AddTool(dispatchTool, mcp.NewStructuredToolHandler(s.handleDispatch))

	// TOOL: get_stream
	getTool := mcp.NewTool("get_stream",
		mcp.WithDescription("Get the current snapshot of a stream."),
		mcp.WithString("stream_id", mcp.Required(), mcp.Description("The stream ID")),
		mcp.WithOutputSchema[domain.Snapshot](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetStream))

	// TOOL: list_handlers
	listTool := mcp.NewTool("list_handlers",
		mcp.WithDescription("List the event types the reducer handles."),
		mcp.WithOutputSchema[HandlersResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListHandlers))
}

// Handler methods for structured tools

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (DispatchResponse, error) {
	streamID, _ := args["stream_id"].(string)
	eventType, _ := args["type"].(string)

	if strings.TrimSpace(streamID) == "" {
		return DispatchResponse{}, errors.New("stream_id is required")
	}

	rec := domain.NewRecord(eventType, nil)
	if payloadStr, ok := args["payload"].(string); ok && payloadStr != "" {
		if err := json.Unmarshal([]byte(payloadStr), &rec.Payload); err != nil {
			return DispatchResponse{}, fmt.Errorf("payload must be a JSON object: %w", err)
		}
	}

	clean, err := s.sanitizer.Record(rec)
	if err != nil {
		slog.Warn("MCP Dispatch: Event rejected", "err", err)
		return DispatchResponse{}, fmt.Errorf("event rejected: %w", err)
	}

	snap, err := s.streams.Apply(ctx, streamID, clean)
	if err != nil {
		return DispatchResponse{}, fmt.Errorf("dispatch failed: %w", err)
	}

	return DispatchResponse{
		Snapshot: snap,
		Matched:  slices.Contains(s.keys, clean.Type),
	}, nil
}

func (s *Server) handleGetStream(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.Snapshot, error) {
	streamID, _ := args["stream_id"].(string)

	snap, err := s.streams.Load(ctx, streamID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("get stream failed: %w", err)
	}
	return *snap, nil
}

func (s *Server) handleListHandlers(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (HandlersResponse, error) {
	return HandlersResponse{Keys: s.keys}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: foldtable://handlers
	s.mcpServer.AddResource(mcp.NewResource(HandlersURI, "Handler Table",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(HandlersResponse{Keys: s.keys})
		if err != nil {
			return nil, fmt.Errorf("failed to encode handlers: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      HandlersURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
