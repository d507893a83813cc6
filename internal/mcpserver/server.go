package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/mark3labs/mcp-go/server"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/apresai/creatorpilot/internal/recorder"
)

// Config holds server configuration.
type Config struct {
	Name         string
	Version      string
	Port         string // empty serves over stdio
	APIKey       string // required as a bearer token over HTTP when set
	ProgressFile string
	ResetCron    string // empty disables the scheduled weekly reset
}

// Server is the MCP server for progress tracking and persona messaging.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	handlers *Handlers
	reset    *WeeklyReset
	log      *slog.Logger
}

// New restores the saved week and registers all tools. A missing progress
// file starts a new week; a corrupt one is returned as an error.
func New(cfg Config, asst *assistant.Assistant, rec recorder.Recorder, logger *slog.Logger) (*Server, error) {
	if cfg.Name == "" {
		cfg.Name = "creatorpilot"
	}
	if cfg.ProgressFile == "" {
		cfg.ProgressFile = progress.DefaultFile
	}

	tracker, err := progress.LoadFile(cfg.ProgressFile)
	switch {
	case errors.Is(err, progress.ErrNotFound):
		logger.Info("No saved progress, starting a new week", "file", cfg.ProgressFile)
		tracker = progress.New()
	case err != nil:
		return nil, fmt.Errorf("load progress: %w", err)
	}

	handlers := NewHandlers(tracker, cfg.ProgressFile, asst, rec, logger)

	var reset *WeeklyReset
	if cfg.ResetCron != "" {
		if reset, err = NewWeeklyReset(cfg.ResetCron, handlers, logger); err != nil {
			return nil, err
		}
	}

	mcpServer := server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
	)
	for _, t := range handlers.Tools() {
		mcpServer.AddTool(t.Tool, t.Handler)
	}

	return &Server{
		cfg:      cfg,
		mcp:      mcpServer,
		handlers: handlers,
		reset:    reset,
		log:      logger,
	}, nil
}

// Start serves over streamable HTTP when a port is configured, otherwise
// over stdin/stdout until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.reset != nil {
		s.reset.Start()
		defer s.reset.Stop()
	}

	if s.cfg.Port == "" {
		s.log.Info("Starting MCP server", "transport", "stdio", "tools", len(s.handlers.Tools()))
		return server.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	}

	addr := ":" + s.cfg.Port
	s.log.Info("Starting MCP server", "transport", "http", "addr", addr, "auth", s.cfg.APIKey != "")
	mcpHandler := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
	)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Router(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// Router serves the MCP endpoint behind API key auth when a key is set, and
// an open /health check.
func (s *Server) Router(mcpHandler http.Handler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.PathPrefix("/mcp").Handler(NewAPIKeyAuth(s.cfg.APIKey).Middleware(mcpHandler, s.log))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"name":    s.cfg.Name,
		"version": s.cfg.Version,
		"tools":   len(s.handlers.Tools()),
	}); err != nil {
		s.log.Warn("Error encoding health check", "error", err)
	}
}
