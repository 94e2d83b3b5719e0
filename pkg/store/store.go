// Package store persists conversations, generated-document records and the
// seeded local fact tables. SQLite is the default backend (the assistant is a
// desktop app); a Postgres implementation exists for hosted deployments.
package store

import (
	"context"
	"time"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Session is a named conversation.
type Session struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// Document is one registry entry for a generated file.
type Document struct {
	Filename  string
	Kind      string
	CreatedAt time.Time
}

// ConversationStore persists chat turns in insertion order.
type ConversationStore interface {
	Append(ctx context.Context, sessionID, role, content string) error
	History(ctx context.Context, sessionID string) ([]Message, error)
	HistoryText(ctx context.Context, sessionID string) (string, error)
	Sessions(ctx context.Context) ([]Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// DocumentRegistry records generated files so they can later be listed and
// downloaded.
type DocumentRegistry interface {
	Record(ctx context.Context, sessionID, filename, kind string) error
	List(ctx context.Context, sessionID string) ([]Document, error)
}

// FactsSource serves locally seeded reference data (CNAE codes, Simples
// Nacional brackets) keyed by trigger terms in the user text.
type FactsSource interface {
	Lookup(ctx context.Context, text string) (string, error)
}

// Repository is the full persistence surface the server wires up.
type Repository interface {
	ConversationStore
	DocumentRegistry
	FactsSource
	Ping(ctx context.Context) error
	Close() error
}

// sessionTitleLimit caps the auto-generated session title at the first
// characters of the opening user message.
const sessionTitleLimit = 30

func sessionTitle(content string) string {
	runes := []rune(content)
	if len(runes) > sessionTitleLimit {
		runes = runes[:sessionTitleLimit]
	}
	return string(runes)
}
