package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jswider/quizforge/internal/workflow"
)

// SessionRepo stores serialized workflow snapshots keyed by session ID.
// It satisfies workflow.Store.
type SessionRepo struct {
	db *sql.DB
}

// SessionInfo is one row of a session listing.
type SessionInfo struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveSession upserts the snapshot for id.
func (r *SessionRepo) SaveSession(ctx context.Context, id string, data []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, snapshot) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot = excluded.snapshot,
			updated_at = CURRENT_TIMESTAMP`,
		id, data)
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// LoadSession returns the snapshot for id, or
// workflow.ErrSessionNotFound when no such session exists.
func (r *SessionRepo) LoadSession(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT snapshot FROM sessions WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", id, workflow.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return data, nil
}

// DeleteSession removes the session. Deleting an unknown ID is a no-op.
func (r *SessionRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

// ListSessions returns all sessions, most recently updated first.
func (r *SessionRepo) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.CreatedAt, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
