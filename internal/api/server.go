// Package api implements the trainer HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sokolovskiy0103/personal-ai-trainer/internal/agent"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/buildinfo"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/identity"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/llm"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/plan"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/storage"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/tools"
	"github.com/sokolovskiy0103/personal-ai-trainer/internal/web"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the trainer HTTP API server. It keeps one live Agent per
// user; a user's messages are serialized through their agent.
type Server struct {
	address  string
	port     int
	logger   *slog.Logger
	llm      llm.Client
	model    string
	registry *tools.Registry
	docs     storage.DocumentStore
	briefing *agent.Briefing
	maxIters int
	codec    *identity.CookieCodec
	provider identity.Provider
	isDev    bool
	server   *http.Server

	mu       sync.Mutex
	sessions map[string]*agent.Agent
}

// Options carries the server dependencies.
type Options struct {
	Address  string
	Port     int
	Logger   *slog.Logger
	LLM      llm.Client
	Model    string
	Registry *tools.Registry
	Docs     storage.DocumentStore
	Briefing *agent.Briefing
	MaxIters int
	Codec    *identity.CookieCodec
	// Provider authenticates bearer credentials. When nil, Tokens is
	// wrapped in a static token provider.
	Provider identity.Provider
	Tokens   map[string]string
	IsDev    bool
}

// NewServer creates the API server.
func NewServer(opts Options) *Server {
	provider := opts.Provider
	if provider == nil {
		provider = identity.NewStaticTokenProvider(opts.Tokens)
	}
	return &Server{
		address:  opts.Address,
		port:     opts.Port,
		logger:   opts.Logger,
		llm:      opts.LLM,
		model:    opts.Model,
		registry: opts.Registry,
		docs:     opts.Docs,
		briefing: opts.Briefing,
		maxIters: opts.MaxIters,
		codec:    opts.Codec,
		provider: provider,
		isDev:    opts.IsDev,
		sessions: make(map[string]*agent.Agent),
	}
}

// Handler builds the full route table with identity and logging
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("POST /v1/chat/stream", s.handleChatStream)
	mux.HandleFunc("GET /v1/chat/ws", s.handleChatWS)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
	mux.HandleFunc("POST /v1/session/reset", s.handleSessionReset)
	mux.HandleFunc("GET /v1/plan/export", s.handlePlanExport)
	mux.HandleFunc("GET /v1/version", s.handleVersion)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	web.RegisterRoutes(mux)

	authed := identity.Middleware(s.codec, s.provider, s.isDev)(mux)
	return s.withLogging(authed)
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Long for streaming responses
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]string{"error": message}, s.logger)
}

// historyDocKey is the per-user document holding the visible transcript.
const historyDocKey = "chat_history.json"

// agentFor returns the live agent for a user, creating one on first
// use. Each agent carries its own tool session bound to the user. A
// previously persisted transcript is restored, so plain user and
// assistant turns survive a server restart.
func (s *Server) agentFor(ctx context.Context, userID string) *agent.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.sessions[userID]; ok {
		return a
	}
	sess := &tools.Session{UserID: userID, Store: s.docs}
	a := agent.New(s.logger, s.llm, s.model, s.registry, sess, s.briefing, s.maxIters)
	if history := s.loadHistory(ctx, userID); len(history) > 0 {
		a.RestoreHistory(ctx, history)
	}
	s.sessions[userID] = a
	return a
}

func (s *Server) loadHistory(ctx context.Context, userID string) []llm.Message {
	doc, err := s.docs.Load(ctx, userID, historyDocKey)
	if err != nil {
		s.logger.Warn("failed to load chat history", "user", userID, "error", err)
		return nil
	}
	if doc == nil {
		return nil
	}
	var history []llm.Message
	if err := json.Unmarshal(doc, &history); err != nil {
		s.logger.Warn("corrupt chat history, starting fresh", "user", userID, "error", err)
		return nil
	}
	return history
}

// saveHistory persists the agent's visible transcript. Best effort; a
// failed save only costs restart continuity.
func (s *Server) saveHistory(ctx context.Context, userID string, a *agent.Agent) {
	doc, err := json.Marshal(a.History())
	if err != nil {
		return
	}
	if _, err := s.docs.Save(ctx, userID, historyDocKey, doc); err != nil {
		s.logger.Warn("failed to save chat history", "user", userID, "error", err)
	}
}

// ResetSession drops a user's live agent and its persisted transcript
// so the next message starts a fresh conversation with a rebuilt
// briefing.
func (s *Server) ResetSession(ctx context.Context, userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()

	if _, err := s.docs.Save(ctx, userID, historyDocKey, []byte("[]")); err != nil {
		s.logger.Warn("failed to clear chat history", "user", userID, "error", err)
	}
}

// ChatRequest is the body of POST /v1/chat and /v1/chat/stream.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply envelope for POST /v1/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
	User  string `json:"user"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	userID := identity.UserIDFromContext(r.Context())
	a := s.agentFor(r.Context(), userID)
	reply, err := a.Send(r.Context(), req.Message)
	if err != nil {
		s.logger.Error("chat failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "agent error")
		return
	}
	s.saveHistory(r.Context(), userID, a)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, ChatResponse{Reply: reply, User: userID}, s.logger)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.errorResponse(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	rc := http.NewResponseController(w)
	streamed := false

	cb := func(event llm.StreamEvent) {
		switch event.Kind {
		case llm.KindToken:
			streamed = true
			s.writeSSE(w, map[string]string{"token": event.Token})
			flusher.Flush()

		case llm.KindToolCallStart, llm.KindToolCallDone:
			// SSE comment as keepalive so the write deadline is not
			// hit during long tool executions.
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}

		if err := rc.SetWriteDeadline(time.Now().Add(120 * time.Second)); err != nil {
			s.logger.Debug("failed to reset write deadline", "error", err)
		}
	}

	userID := identity.UserIDFromContext(r.Context())
	a := s.agentFor(r.Context(), userID)
	reply, err := a.SendStream(r.Context(), req.Message, cb)
	if err != nil {
		s.logger.Error("chat stream failed", "user", userID, "error", err)
		// Status is already committed; surface the failure in-band.
		s.writeSSE(w, map[string]string{"error": "agent error"})
		flusher.Flush()
		return
	}
	s.saveHistory(r.Context(), userID, a)

	// Fast paths may answer without emitting tokens.
	if !streamed && reply != "" {
		s.writeSSE(w, map[string]string{"token": reply})
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func (s *Server) writeSSE(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Debug("failed to marshal SSE payload", "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	history := s.agentFor(r.Context(), userID).History()

	type turn struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	turns := make([]turn, 0, len(history))
	for _, m := range history {
		turns = append(turns, turn{Role: m.Role, Content: m.Content})
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{"user": userID, "messages": turns}, s.logger)
}

func (s *Server) handleSessionReset(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	s.ResetSession(r.Context(), userID)

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "reset", "user": userID}, s.logger)
}

func (s *Server) handlePlanExport(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	p, err := plan.NewStore(s.docs).Load(r.Context(), userID)
	if err != nil {
		s.logger.Error("plan export failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "storage error")
		return
	}
	if p == nil {
		s.errorResponse(w, http.StatusNotFound, "no workout plan")
		return
	}

	html, err := p.RenderHTML()
	if err != nil {
		s.logger.Error("plan render failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "render error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.Info(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.llm.Ping(r.Context()); err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "llm unreachable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": "healthy"}, s.logger)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// wsFrame is one server-to-client message on the chat websocket.
type wsFrame struct {
	Type   string `json:"type"` // token, tool, tool_result, done, error
	Token  string `json:"token,omitempty"`
	Tool   string `json:"tool,omitempty"`
	Result string `json:"result,omitempty"`
	Reply  string `json:"reply,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (s *Server) handleChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	userID := identity.UserIDFromContext(r.Context())
	a := s.agentFor(r.Context(), userID)

	writeFrame := func(f wsFrame) {
		data, err := json.Marshal(f)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.logger.Debug("websocket write failed", "user", userID, "error", err)
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if r.Context().Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "user", userID, "error", err)
			}
			return
		}

		var req ChatRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.Message == "" {
			writeFrame(wsFrame{Type: "error", Error: "invalid message"})
			continue
		}

		// Messages are handled sequentially; the agent serializes a
		// user's conversation anyway.
		reply, err := a.SendStream(r.Context(), req.Message, func(ev llm.StreamEvent) {
			switch ev.Kind {
			case llm.KindToken:
				writeFrame(wsFrame{Type: "token", Token: ev.Token})
			case llm.KindToolCallStart:
				if ev.ToolCall != nil {
					writeFrame(wsFrame{Type: "tool", Tool: ev.ToolCall.Function.Name})
				}
			case llm.KindToolCallDone:
				writeFrame(wsFrame{Type: "tool_result", Tool: ev.ToolName, Result: ev.ToolResult})
			}
		})
		if err != nil {
			writeFrame(wsFrame{Type: "error", Error: "agent error"})
			continue
		}
		s.saveHistory(r.Context(), userID, a)
		writeFrame(wsFrame{Type: "done", Reply: reply})
	}
}
