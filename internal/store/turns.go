package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aharnip2705/studylab-sub000/internal/chat"
)

// LoadTurns returns a session's turns in the order they were appended.
func (db *DB) LoadTurns(ctx context.Context, sessionID string) ([]chat.Turn, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT role, text, created_at FROM chat_turns WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying chat turns: %w", err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var t chat.Turn
		var role string
		var createdAt string
		if err := rows.Scan(&role, &t.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		t.Role = chat.Role(role)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			t.CreatedAt = ts.Local()
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (db *DB) AppendTurn(ctx context.Context, sessionID, userID string, turn chat.Turn) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO chat_turns (session_id, user_id, role, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		sessionID, userID, string(turn.Role), turn.Text, turn.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting chat turn: %w", err)
	}
	return nil
}

// LatestSession returns the id of the user's most recently active session,
// or "" when the user has none.
func (db *DB) LatestSession(ctx context.Context, userID string) (string, error) {
	var id string
	err := db.QueryRowContext(ctx,
		`SELECT session_id FROM chat_turns WHERE user_id = ? ORDER BY id DESC LIMIT 1`, userID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("querying latest session: %w", err)
	}
	return id, nil
}
