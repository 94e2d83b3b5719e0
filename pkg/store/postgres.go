package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Repository on Postgres for hosted deployments
// where several assistant instances share one database.
type PostgresStore struct {
	DB *pgxpool.Pool
}

// NewPostgres connects and prepares the schema.
func NewPostgres(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to Postgres: %w", err)
	}
	s := &PostgresStore{DB: db}
	if err := s.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := s.seedFacts(ctx); err != nil {
		return nil, fmt.Errorf("seed reference tables: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);

	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		session_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
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
		revenue_limit DOUBLE PRECISION,
		rate DOUBLE PRECISION,
		deduction DOUBLE PRECISION
	);
	`
	_, err := s.DB.Exec(ctx, query)
	return err
}

func (s *PostgresStore) seedFacts(ctx context.Context) error {
	var n int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(*) FROM cnae_codes").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	seed := [][4]string{
		{"4781-4/00", "Comércio de vestuário", "Anexo I", "4.0%"},
		{"6201-5/00", "Desenvolvimento de software", "Anexo III", "6.0%"},
		{"7319-0/02", "Marketing", "Anexo III", "6.0%"},
	}
	for _, row := range seed {
		if _, err := s.DB.Exec(ctx,
			"INSERT INTO cnae_codes (code, description, simples_annex, initial_rate) VALUES ($1, $2, $3, $4)",
			row[0], row[1], row[2], row[3],
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sessionID, role, content string) error {
	if _, err := s.DB.Exec(ctx,
		"INSERT INTO messages (session_id, role, content) VALUES ($1, $2, $3)",
		sessionID, role, content,
	); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if role == "user" {
		if _, err := s.DB.Exec(ctx,
			"INSERT INTO sessions (session_id, title) VALUES ($1, $2) ON CONFLICT (session_id) DO NOTHING",
			sessionID, sessionTitle(content),
		); err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT role, content FROM messages WHERE session_id = $1 ORDER BY id ASC", sessionID)
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

func (s *PostgresStore) HistoryText(ctx context.Context, sessionID string) (string, error) {
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

func (s *PostgresStore) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT session_id, title, created_at FROM sessions ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Title, &sess.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.DB.Exec(ctx, "DELETE FROM messages WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	if _, err := s.DB.Exec(ctx, "DELETE FROM sessions WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, sessionID, filename, kind string) error {
	_, err := s.DB.Exec(ctx,
		"INSERT INTO documents (session_id, filename, kind) VALUES ($1, $2, $3)",
		sessionID, filename, kind)
	if err != nil {
		return fmt.Errorf("record document: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, sessionID string) ([]Document, error) {
	rows, err := s.DB.Query(ctx,
		"SELECT filename, kind, created_at FROM documents WHERE session_id = $1 ORDER BY id DESC LIMIT 20",
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.Filename, &d.Kind, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Lookup(ctx context.Context, text string) (string, error) {
	if !strings.Contains(strings.ToLower(text), "cnae") {
		return "", nil
	}

	rows, err := s.DB.Query(ctx, "SELECT code, description FROM cnae_codes LIMIT 3")
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

func (s *PostgresStore) Close() error {
	s.DB.Close()
	return nil
}

var _ Repository = (*PostgresStore)(nil)
