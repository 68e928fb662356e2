package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SaiNageswarS/tube-agent/llm"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteStore opens (or creates) the database at path. ":memory:" is accepted for tests.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT NOT NULL DEFAULT '',
			tool_call_id TEXT NOT NULL DEFAULT '',
			tool_name TEXT NOT NULL DEFAULT '',
			is_error INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at DESC);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_session_seq ON messages(session_id, seq);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateSession(ctx context.Context) (*Session, error) {
	sess := newSession("", s.now())
	if err := s.insertSession(ctx, s.db, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.loadSession(ctx, s.db, id)
}

func (s *SQLiteStore) GetOrCreateSession(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		sess, err := s.loadSession(ctx, s.db, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
	}

	sess := newSession(id, s.now())
	if err := s.insertSession(ctx, s.db, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *SQLiteStore) Append(ctx context.Context, id string, msgs ...llm.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sess, err := s.loadSession(ctx, tx, id)
	if err != nil {
		return err
	}

	start := len(sess.Messages)
	if err := sess.appendMessages(s.now(), msgs...); err != nil {
		return err
	}

	for i, m := range sess.Messages[start:] {
		if err := insertMessage(ctx, tx, id, start+i, m); err != nil {
			return err
		}
	}

	if err := updateSession(ctx, tx, sess); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Truncate(ctx context.Context, id string, n int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sess, err := s.loadSession(ctx, tx, id)
	if err != nil {
		return err
	}
	if n >= len(sess.Messages) {
		return nil
	}
	sess.truncate(n, s.now())

	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ? AND seq >= ?", id, len(sess.Messages)); err != nil {
		return err
	}
	if err := updateSession(ctx, tx, sess); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.title, s.updated_at, COUNT(m.id)
		FROM sessions s LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.updated_at DESC, s.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SessionSummary{}
	for rows.Next() {
		var it SessionSummary
		var updated int64
		if err := rows.Scan(&it.ID, &it.Title, &updated, &it.MessageCount); err != nil {
			return nil, err
		}
		it.UpdatedAt = time.UnixMilli(updated)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) insertSession(ctx context.Context, q sqlQuerier, sess *Session) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO sessions(id, title, created_at, updated_at) VALUES(?, ?, ?, ?)",
		sess.ID,
		sess.Title,
		sess.CreatedAt.UnixMilli(),
		sess.UpdatedAt.UnixMilli(),
	)
	return err
}

func updateSession(ctx context.Context, q sqlQuerier, sess *Session) error {
	_, err := q.ExecContext(ctx,
		"UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?",
		sess.Title,
		sess.UpdatedAt.UnixMilli(),
		sess.ID,
	)
	return err
}

func insertMessage(ctx context.Context, q sqlQuerier, sessionID string, seq int, m llm.Message) error {
	toolCalls := ""
	if len(m.ToolCalls) > 0 {
		raw, err := json.Marshal(m.ToolCalls)
		if err != nil {
			return fmt.Errorf("error encoding tool calls: %w", err)
		}
		toolCalls = string(raw)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO messages(session_id, seq, role, content, tool_calls, tool_call_id, tool_name, is_error)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID,
		seq,
		m.Role,
		m.Content,
		toolCalls,
		m.ToolCallID,
		m.ToolName,
		m.IsError,
	)
	return err
}

func (s *SQLiteStore) loadSession(ctx context.Context, q sqlQuerier, id string) (*Session, error) {
	sess := &Session{ID: id}
	var created, updated int64
	err := q.QueryRowContext(ctx,
		"SELECT title, created_at, updated_at FROM sessions WHERE id = ?", id,
	).Scan(&sess.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	sess.CreatedAt = time.UnixMilli(created)
	sess.UpdatedAt = time.UnixMilli(updated)

	rows, err := q.QueryContext(ctx,
		`SELECT role, content, tool_calls, tool_call_id, tool_name, is_error
		FROM messages WHERE session_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sess.Messages = []llm.Message{}
	for rows.Next() {
		var m llm.Message
		var toolCalls string
		if err := rows.Scan(&m.Role, &m.Content, &toolCalls, &m.ToolCallID, &m.ToolName, &m.IsError); err != nil {
			return nil, err
		}
		if toolCalls != "" {
			if err := json.Unmarshal([]byte(toolCalls), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("error decoding tool calls: %w", err)
			}
		}
		sess.Messages = append(sess.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sess, nil
}
