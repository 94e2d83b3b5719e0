// Package api provides the HTTP surface of the assistant: the chat endpoint
// with its file fast path, session and history management, generated-file
// listing and download, and key activation.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gen-labs/gen-assistant/internal/metrics"
	"github.com/gen-labs/gen-assistant/pkg/dispatch"
	"github.com/gen-labs/gen-assistant/pkg/intent"
	"github.com/gen-labs/gen-assistant/pkg/models"
	"github.com/gen-labs/gen-assistant/pkg/prompt"
	"github.com/gen-labs/gen-assistant/pkg/store"
)

// Generator is the conversational backend (the model router).
type Generator interface {
	Generate(ctx context.Context, prompt string, image *models.File) string
}

// Activator validates a client key against the provider and, on success,
// persists it and rebuilds the model chain.
type Activator interface {
	Activate(ctx context.Context, apiKey string) error
	Activated() bool
}

// Assembler builds the contextual prompt for a conversation turn.
type Assembler interface {
	Assemble(ctx context.Context, sessionID, text string, mode prompt.Mode) string
}

// Handler holds the chat pipeline dependencies.
type Handler struct {
	repo       store.Repository
	generator  Generator
	dispatcher *dispatch.Dispatcher
	assembler  Assembler
	activator  Activator
	docsDir    string
	staticDir  string
	logger     *zap.Logger
}

func NewHandler(repo store.Repository, gen Generator, dp *dispatch.Dispatcher, asm Assembler, act Activator, docsDir, staticDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		repo:       repo,
		generator:  gen,
		dispatcher: dp,
		assembler:  asm,
		activator:  act,
		docsDir:    docsDir,
		staticDir:  staticDir,
		logger:     logger,
	}
}

// Routes mounts every endpoint on a fresh chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/chat", h.Chat)
	r.Get("/sessions", h.Sessions)
	r.Get("/history/{sessionID}", h.History)
	r.Delete("/chat/{sessionID}", h.DeleteChat)
	r.Get("/files/{sessionID}", h.Files)
	r.Get("/download/{filename}", h.Download)
	r.Post("/config/key", h.SaveKey)
	r.Get("/status", h.Status)
	r.Handle("/metrics", promhttp.Handler())

	if h.staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.staticDir)))
	}
	return r
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Texto     string `json:"texto"`
	Modo      string `json:"modo"`
}

type chatResponse struct {
	SessionID       string `json:"session_id"`
	RespostaUsuario string `json:"resposta_usuario,omitempty"`
	Arquivo         string `json:"arquivo,omitempty"`
	RespostaGen     string `json:"resposta_gen,omitempty"`
}

// Chat is the main conversation endpoint. File-producing requests are served
// by the dispatcher without touching the model; everything else goes through
// the contextual prompt and the router.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	defer func() { metrics.ChatDuration.Observe(time.Since(started).Seconds()) }()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Texto == "" {
		Error(w, http.StatusBadRequest, "texto is required")
		return
	}
	// A missing session id starts a fresh conversation.
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := r.Context()
	if err := h.repo.Append(ctx, req.SessionID, "user", req.Texto); err != nil {
		h.logger.Warn("failed to persist user message", zap.Error(err))
	}

	decision := intent.Classify(req.Texto, nil)
	if decision.ShouldGenerateFile {
		res := h.dispatcher.Dispatch(ctx, req.SessionID, decision, nil)
		if res.Handled {
			if err := h.repo.Append(ctx, req.SessionID, "model", res.Reply); err != nil {
				h.logger.Warn("failed to persist model message", zap.Error(err))
			}
			JSON(w, http.StatusOK, chatResponse{
				SessionID:       req.SessionID,
				RespostaUsuario: res.Reply,
				Arquivo:         res.Filename,
			})
			return
		}
	}

	mode := prompt.NormalizeMode(req.Modo)
	metrics.ChatRequests.WithLabelValues(string(mode)).Inc()

	full := h.assembler.Assemble(ctx, req.SessionID, req.Texto, mode)
	raw := h.generator.Generate(ctx, full, nil)
	reply := prompt.ParseReply(raw)

	if err := h.repo.Append(ctx, req.SessionID, "model", reply); err != nil {
		h.logger.Warn("failed to persist model message", zap.Error(err))
	}
	JSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, RespostaGen: reply})
}

// Sessions lists all conversations, newest first.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.repo.Sessions(r.Context())
	if err != nil {
		h.logger.Error("failed to list sessions", zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}

	out := make([]map[string]string, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, map[string]string{"id": s.ID, "titulo": s.Title})
	}
	JSON(w, http.StatusOK, out)
}

// History returns every turn of a session in insertion order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	msgs, err := h.repo.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load history", zap.String("session", sessionID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	out := make([]map[string]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, map[string]string{"role": m.Role, "content": m.Content})
	}
	JSON(w, http.StatusOK, out)
}

// DeleteChat removes a session and its messages.
func (h *Handler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.repo.DeleteSession(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to delete session", zap.String("session", sessionID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Files lists the generated files of a session, newest first.
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	docs, err := h.repo.List(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to list files", zap.String("session", sessionID), zap.Error(err))
		Error(w, http.StatusInternalServerError, "failed to list files")
		return
	}

	out := make([]map[string]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, map[string]string{
			"nome": d.Filename,
			"tipo": d.Kind,
			"data": d.CreatedAt.Format(time.RFC3339),
		})
	}
	JSON(w, http.StatusOK, out)
}

// Download serves a generated file by name. The name is flattened to its base
// so the documents directory cannot be escaped.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "filename"))
	path := filepath.Join(h.docsDir, name)

	if _, err := os.Stat(path); err != nil {
		Error(w, http.StatusNotFound, "Arquivo não encontrado.")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

type keyRequest struct {
	APIKey string `json:"api_key"`
}

// SaveKey validates the client key with a live model call before persisting
// it. An invalid key is reported as a normal response, matching the desktop
// front end's expectations.
func (h *Handler) SaveKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		Error(w, http.StatusBadRequest, "api_key is required")
		return
	}

	if err := h.activator.Activate(r.Context(), req.APIKey); err != nil {
		h.logger.Warn("key activation failed", zap.Error(err))
		JSON(w, http.StatusOK, map[string]string{"status": "erro", "mensagem": "Chave inválida."})
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status reports whether a working key is active.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := "pendente"
	if h.activator.Activated() {
		status = "ativo"
	}
	JSON(w, http.StatusOK, map[string]string{"status": status})
}
