package session

import "errors"

// Role tags the author of a conversational turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a session's conversation. Immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

var ErrNotFound = errors.New("session not found")

// Store holds ordered conversation turns keyed by session id. Turns are
// strictly append-ordered: no reordering, no in-place edits, no deletion
// except whole-session reset. Implementations must be safe for concurrent
// use and must serialize appends against the same session id.
type Store interface {
	// Create initializes (or reinitializes) a session with the given turns.
	Create(sid string, turns []Turn) error
	// Append adds one turn to an existing session.
	Append(sid string, turn Turn) error
	// Read returns the session's turns in append order.
	Read(sid string) ([]Turn, error)
	// Reset clears a session's history, keeping the id.
	Reset(sid string) error
	// Delete discards the session entirely.
	Delete(sid string) error
}
