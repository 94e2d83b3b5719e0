package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (and if needed creates) the assistant database, applies the
// schema and seeds the reference tables.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL mode for better concurrency under parallel chat requests.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := s.seedFacts(); err != nil {
		return nil, fmt.Errorf("seed reference tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_session ON documents(session_id);

	CREATE TABLE IF NOT EXISTS cnae_codes (
		code TEXT,
		description TEXT,
		simples_annex TEXT,
		initial_rate TEXT
	);

	CREATE TABLE IF NOT EXISTS simples_brackets (
		annex TEXT,
		bracket INTEGER,
		revenue_limit REAL,
		rate REAL,
		deduction REAL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) seedFacts() error {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cnae_codes").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		seed := [][4]string{
			{"4781-4/00", "Comércio de vestuário", "Anexo I", "4.0%"},
			{"6201-5/00", "Desenvolvimento de software", "Anexo III", "6.0%"},
			{"7319-0/02", "Marketing", "Anexo III", "6.0%"},
		}
		for _, row := range seed {
			if _, err := s.db.Exec(
				"INSERT INTO cnae_codes (code, description, simples_annex, initial_rate) VALUES (?, ?, ?, ?)",
				row[0], row[1], row[2], row[3],
			); err != nil {
				return err
			}
		}
	}

	if err := s.db.QueryRow("SELECT COUNT(*) FROM simples_brackets").Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		type bracket struct {
			annex  string
			n      int
			limit  float64
			rate   float64
			deduct float64
		}
		for _, b := range []bracket{
			{"Anexo I", 1, 180000, 4.0, 0},
			{"Anexo III", 1, 180000, 6.0, 0},
		} {
			if _, err := s.db.Exec(
				"INSERT INTO simples_brackets (annex, bracket, revenue_limit, rate, deduction) VALUES (?, ?, ?, ?, ?)",
				b.annex, b.n, b.limit, b.rate, b.deduct,
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// Append stores one chat turn. The first user message of a session also
// creates the session row, titled with the message's opening characters.
func (s *SQLiteStore) Append(ctx context.Context, sessionID, role, content string) error {
	now := time.Now().Format(time.RFC3339)

	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		sessionID, role, content, now,
	); err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	if role == "user" {
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO sessions (session_id, title, created_at) VALUES (?, ?, ?)",
			sessionID, sessionTitle(content), now,
		); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content FROM messages WHERE session_id = ? ORDER BY id ASC", sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) HistoryText(ctx context.Context, sessionID string) (string, error) {
	msgs, err := s.History(ctx, sessionID)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n"), nil
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, title, created_at FROM sessions ORDER BY rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess Session
			ts   string
		)
		if err := rows.Scan(&sess.ID, &sess.Title, &ts); err != nil {
			return nil, err
		}
		sess.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Record(ctx context.Context, sessionID, filename, kind string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (session_id, filename, kind, created_at) VALUES (?, ?, ?, ?)",
		sessionID, filename, kind, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record document: %w", err)
	}
	return nil
}

// List returns the session's files, newest first, capped at 20.
func (s *SQLiteStore) List(ctx context.Context, sessionID string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT filename, kind, created_at FROM documents WHERE session_id = ? ORDER BY id DESC LIMIT 20",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var (
			d  Document
			ts string
		)
		if err := rows.Scan(&d.Filename, &d.Kind, &ts); err != nil {
			return nil, err
		}
		d.CreatedAt, _ = time.Parse(time.RFC3339, ts)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Lookup serves CNAE reference rows when the user text mentions "cnae".
func (s *SQLiteStore) Lookup(ctx context.Context, text string) (string, error) {
	if !strings.Contains(strings.ToLower(text), "cnae") {
		return "", nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT code, description FROM cnae_codes LIMIT 3")
	if err != nil {
		return "", fmt.Errorf("lookup cnae: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var code, desc string
		if err := rows.Scan(&code, &desc); err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "\n- CNAE %s: %s", code, desc)
	}
	return b.String(), rows.Err()
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var _ Repository = (*SQLiteStore)(nil)
