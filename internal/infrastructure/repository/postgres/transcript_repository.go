package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mfandino/area-assistant/internal/core/domain"
)

// TranscriptRepository persists chat sessions and their message history.
// Chat keeps working when this store is down; only history survives less.
type TranscriptRepository struct {
	db *sql.DB
}

func NewTranscriptRepository(db *sql.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TranscriptRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id TEXT PRIMARY KEY,
	area TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_messages (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES chat_sessions(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_sessions_area ON chat_sessions(area);
CREATE INDEX IF NOT EXISTS idx_chat_messages_session ON chat_messages(session_id, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *TranscriptRepository) CreateSession(ctx context.Context, area string) (string, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_sessions (id, area, created_at)
VALUES ($1, $2, $3)`,
		id, area, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// AppendExchange writes the prompt and the answer atomically so a history
// readback never shows a question without its reply. The area guard keeps
// one tenant from appending to another tenant's session.
func (r *TranscriptRepository) AppendExchange(ctx context.Context, sessionID, area, prompt, response string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exchange tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	const insert = `
INSERT INTO chat_messages (session_id, role, content, created_at)
SELECT $1, $2, $3, $4
WHERE EXISTS (SELECT 1 FROM chat_sessions WHERE id = $1 AND area = $5)`

	result, err := tx.ExecContext(ctx, insert, sessionID, "user", prompt, now, area)
	if err != nil {
		return fmt.Errorf("insert user message: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError("transcripts", "append "+sessionID, domain.ErrSessionNotFound)
	}

	if _, err := tx.ExecContext(ctx, insert, sessionID, "assistant", response, now, area); err != nil {
		return fmt.Errorf("insert assistant message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exchange tx: %w", err)
	}
	return nil
}

// ListMessages is area-guarded the same way AppendExchange is: a session id
// from another tenant reads as not found, never as someone else's history.
func (r *TranscriptRepository) ListMessages(ctx context.Context, sessionID, area string, limit int) ([]domain.TranscriptMessage, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chat_sessions WHERE id = $1 AND area = $2)`, sessionID, area,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	if !exists {
		return nil, domain.WrapError("transcripts", "list "+sessionID, domain.ErrSessionNotFound)
	}

	query := `
SELECT role, content, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at, id`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TranscriptMessage, 0, 16)
	for rows.Next() {
		var msg domain.TranscriptMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
