// Package chat holds the conversation state passed through the planning
// pipeline. Persistence is injected by the caller; the session itself keeps
// no global state.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role      Role
	Text      string
	CreatedAt time.Time
}

// Store persists turns for a session. A nil Store keeps the session in memory.
type Store interface {
	LoadTurns(ctx context.Context, sessionID string) ([]Turn, error)
	AppendTurn(ctx context.Context, sessionID, userID string, turn Turn) error
}

// Session is an append-only, ordered conversation for one user.
type Session struct {
	ID     string
	UserID string

	turns []Turn
	store Store
	now   func() time.Time
}

func NewSession(userID string, store Store) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		store:  store,
		now:    time.Now,
	}
}

// Resume loads an existing session's turns from store.
func Resume(ctx context.Context, id, userID string, store Store) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("resuming session %s: no store configured", id)
	}
	turns, err := store.LoadTurns(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return &Session{ID: id, UserID: userID, turns: turns, store: store, now: time.Now}, nil
}

// Append adds a turn and persists it when a store is configured. The turn
// is kept in memory even if persisting fails.
func (s *Session) Append(ctx context.Context, role Role, text string) error {
	turn := Turn{Role: role, Text: text, CreatedAt: s.now()}
	s.turns = append(s.turns, turn)

	if s.store == nil {
		return nil
	}
	if err := s.store.AppendTurn(ctx, s.ID, s.UserID, turn); err != nil {
		return fmt.Errorf("persisting %s turn: %w", role, err)
	}
	return nil
}

// Turns returns a copy of the full history.
func (s *Session) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Window returns the last n turns (all of them when n <= 0).
func (s *Session) Window(n int) []Turn {
	if n <= 0 || n >= len(s.turns) {
		return s.Turns()
	}
	out := make([]Turn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

func (s *Session) Len() int { return len(s.turns) }

// LastAssistant returns the most recent assistant turn.
func LastAssistant(turns []Turn) (Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleAssistant {
			return turns[i], true
		}
	}
	return Turn{}, false
}
