package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "s1", "user", "primeira pergunta"))
	require.NoError(t, s.Append(ctx, "s1", "model", "primeira resposta"))
	require.NoError(t, s.Append(ctx, "s1", "user", "segunda pergunta"))
	require.NoError(t, s.Append(ctx, "s2", "user", "outra sessão"))

	msgs, err := s.History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{Role: "user", Content: "primeira pergunta"}, msgs[0])
	assert.Equal(t, Message{Role: "model", Content: "primeira resposta"}, msgs[1])
	assert.Equal(t, Message{Role: "user", Content: "segunda pergunta"}, msgs[2])
}

func TestHistoryTextFormat(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "s1", "user", "oi"))
	require.NoError(t, s.Append(ctx, "s1", "model", "olá"))

	text, err := s.HistoryText(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "user: oi\nmodel: olá", text)
}

func TestFirstUserMessageTitlesSession(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	long := "quero abrir uma loja de roupas no centro da cidade"
	require.NoError(t, s.Append(ctx, "s1", "user", long))
	require.NoError(t, s.Append(ctx, "s1", "user", "segunda mensagem não altera o título"))

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)
	assert.Equal(t, []rune(long)[:30], []rune(sessions[0].Title))
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "s1", "user", "oi"))
	require.NoError(t, s.DeleteSession(ctx, "s1"))

	msgs, err := s.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestDocumentRegistryNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "s1", "contrato_101010.pdf", "contract"))
	require.NoError(t, s.Record(ctx, "s1", "estoque_101011.xlsx", "inventory"))

	docs, err := s.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "estoque_101011.xlsx", docs[0].Filename)
	assert.Equal(t, "contrato_101010.pdf", docs[1].Filename)
}

func TestLookupRequiresTriggerTerm(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	out, err := s.Lookup(ctx, "qual o melhor CNAE para software?")
	require.NoError(t, err)
	assert.Contains(t, out, "6201-5/00")

	out, err = s.Lookup(ctx, "bom dia")
	require.NoError(t, err)
	assert.Empty(t, out)
}
