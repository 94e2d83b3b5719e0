package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gen-labs/gen-assistant/pkg/dispatch"
	"github.com/gen-labs/gen-assistant/pkg/models"
	"github.com/gen-labs/gen-assistant/pkg/prompt"
	"github.com/gen-labs/gen-assistant/pkg/store"
)

type fakeRepo struct {
	messages []store.Message
	sessions []store.Session
	docs     []store.Document
	deleted  []string
}

func (f *fakeRepo) Append(ctx context.Context, sessionID, role, content string) error {
	f.messages = append(f.messages, store.Message{Role: role, Content: content})
	return nil
}

func (f *fakeRepo) History(ctx context.Context, sessionID string) ([]store.Message, error) {
	return f.messages, nil
}

func (f *fakeRepo) HistoryText(ctx context.Context, sessionID string) (string, error) {
	return "", nil
}

func (f *fakeRepo) Sessions(ctx context.Context) ([]store.Session, error) {
	return f.sessions, nil
}

func (f *fakeRepo) DeleteSession(ctx context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func (f *fakeRepo) Record(ctx context.Context, sessionID, filename, kind string) error {
	f.docs = append(f.docs, store.Document{Filename: filename, Kind: kind})
	return nil
}

func (f *fakeRepo) List(ctx context.Context, sessionID string) ([]store.Document, error) {
	return f.docs, nil
}

func (f *fakeRepo) Lookup(ctx context.Context, text string) (string, error) { return "", nil }
func (f *fakeRepo) Ping(ctx context.Context) error                          { return nil }
func (f *fakeRepo) Close() error                                            { return nil }

type fakeGenerator struct {
	output string
	calls  int
}

func (f *fakeGenerator) Generate(ctx context.Context, p string, image *models.File) string {
	f.calls++
	return f.output
}

type fakeFileGen struct {
	docName   string
	sheetName string
}

func (f *fakeFileGen) Document(kind string, data map[string]any) (string, error) {
	return f.docName, nil
}

func (f *fakeFileGen) Spreadsheet(kind string, data map[string]any) (string, error) {
	return f.sheetName, nil
}

type fakeAssembler struct {
	lastMode prompt.Mode
}

func (f *fakeAssembler) Assemble(ctx context.Context, sessionID, text string, mode prompt.Mode) string {
	f.lastMode = mode
	return "PROMPT"
}

type fakeActivator struct {
	err     error
	active  bool
	lastKey string
}

func (f *fakeActivator) Activate(ctx context.Context, apiKey string) error {
	f.lastKey = apiKey
	if f.err == nil {
		f.active = true
	}
	return f.err
}

func (f *fakeActivator) Activated() bool { return f.active }

func newTestHandler(repo *fakeRepo, gen *fakeGenerator, act *fakeActivator, docsDir string) *Handler {
	dp := dispatch.New(&fakeFileGen{docName: "contrato_120000.pdf", sheetName: "estoque_120000.xlsx"}, repo, nil)
	return NewHandler(repo, gen, dp, &fakeAssembler{}, act, docsDir, "", nil)
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatConversation(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{output: `{"resposta_usuario": "É um regime tributário simplificado."}`}
	h := newTestHandler(repo, gen, &fakeActivator{active: true}, "")
	routes := h.Routes()

	rec := postJSON(t, routes, "/chat", map[string]string{
		"session_id": "s1",
		"texto":      "o que é simples nacional?",
		"modo":       "financeiro",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "É um regime tributário simplificado.", resp["resposta_gen"])
	assert.Empty(t, resp["arquivo"])
	assert.Equal(t, 1, gen.calls)

	require.Len(t, repo.messages, 2)
	assert.Equal(t, "user", repo.messages[0].Role)
	assert.Equal(t, "model", repo.messages[1].Role)
	assert.Equal(t, "É um regime tributário simplificado.", repo.messages[1].Content)
}

func TestChatFileFastPathSkipsModel(t *testing.T) {
	repo := &fakeRepo{}
	gen := &fakeGenerator{output: "nunca chamado"}
	h := newTestHandler(repo, gen, &fakeActivator{active: true}, "")
	routes := h.Routes()

	rec := postJSON(t, routes, "/chat", map[string]string{
		"session_id": "s1",
		"texto":      "crie um contrato para João",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, dispatch.MsgDocumentCreated, resp["resposta_usuario"])
	assert.Equal(t, "contrato_120000.pdf", resp["arquivo"])
	assert.Zero(t, gen.calls)

	// Both the user turn and the confirmation are persisted.
	require.Len(t, repo.messages, 2)
	assert.Equal(t, dispatch.MsgDocumentCreated, repo.messages[1].Content)
}

func TestChatRejectsEmptyText(t *testing.T) {
	h := newTestHandler(&fakeRepo{}, &fakeGenerator{}, &fakeActivator{}, "")
	routes := h.Routes()

	rec := postJSON(t, routes, "/chat", map[string]string{"session_id": "s1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatMintsSessionIDWhenMissing(t *testing.T) {
	gen := &fakeGenerator{output: "olá"}
	h := newTestHandler(&fakeRepo{}, gen, &fakeActivator{active: true}, "")
	routes := h.Routes()

	rec := postJSON(t, routes, "/chat", map[string]string{"texto": "oi"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["session_id"])
}

func TestSessionsAndHistory(t *testing.T) {
	repo := &fakeRepo{
		sessions: []store.Session{{ID: "s1", Title: "primeira conversa"}},
		messages: []store.Message{{Role: "user", Content: "oi"}, {Role: "model", Content: "olá"}},
	}
	h := newTestHandler(repo, &fakeGenerator{}, &fakeActivator{}, "")
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0]["id"])
	assert.Equal(t, "primeira conversa", sessions[0]["titulo"])

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0]["role"])
}

func TestDeleteChat(t *testing.T) {
	repo := &fakeRepo{}
	h := newTestHandler(repo, &fakeGenerator{}, &fakeActivator{}, "")
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/chat/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"s1"}, repo.deleted)
}

func TestFilesListing(t *testing.T) {
	repo := &fakeRepo{docs: []store.Document{
		{Filename: "contrato_120000.pdf", Kind: "contract", CreatedAt: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)},
	}}
	h := newTestHandler(repo, &fakeGenerator{}, &fakeActivator{}, "")
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var files []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "contrato_120000.pdf", files[0]["nome"])
	assert.Equal(t, "contract", files[0]["tipo"])
}

func TestDownload(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recibo_120000.pdf"), []byte("%PDF"), 0o644))

	h := newTestHandler(&fakeRepo{}, &fakeGenerator{}, &fakeActivator{}, dir)
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/recibo_120000.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "recibo_120000.pdf")

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/nao_existe.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveKeyAndStatus(t *testing.T) {
	act := &fakeActivator{}
	h := newTestHandler(&fakeRepo{}, &fakeGenerator{}, act, "")
	routes := h.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "pendente", status["status"])

	rec = postJSON(t, routes, "/config/key", map[string]string{"api_key": "AIza-valid"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "AIza-valid", act.lastKey)

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ativo", status["status"])
}

func TestSaveKeyInvalid(t *testing.T) {
	act := &fakeActivator{err: errors.New("401 unauthorized")}
	h := newTestHandler(&fakeRepo{}, &fakeGenerator{}, act, "")
	routes := h.Routes()

	rec := postJSON(t, routes, "/config/key", map[string]string{"api_key": "ruim"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "erro", resp["status"])
	assert.Equal(t, "Chave inválida.", resp["mensagem"])
}
