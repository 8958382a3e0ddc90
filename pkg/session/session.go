package session

import (
	"context"
	"errors"
	"time"
)

// IdleTime is the window after which an inactive conversation is considered
// expired. Expiry rotates the session id, it never deletes the record.
const IdleTime = 600 * time.Second

var (
	// ErrNotFound means the store is reachable but holds no record for the key.
	ErrNotFound = errors.New("session not found")

	// ErrExists means Create was called for a key that already has a record.
	ErrExists = errors.New("session already exists")

	// ErrUnavailable means the backing store could not be reached. Callers
	// may degrade to session-less operation on this error.
	ErrUnavailable = errors.New("session store unavailable")
)

// Session is one durable record per tenant+user pair.
type Session struct {
	SessionKey      string `json:"session_key"`
	SessionID       string `json:"session_id"`
	LastInteraction int64  `json:"last_interaction"` // unix seconds
}

// Key builds the composite identity key for a tenant+user pair.
func Key(tenantID, userEmail string) string {
	return tenantID + ":" + userEmail
}

// ScopeKey is the chat-history scope for this session: tenant:email:session_id.
func (s *Session) ScopeKey() string {
	return s.SessionKey + ":" + s.SessionID
}

// IdleSince reports whether the session has been idle for at least IdleTime.
func (s *Session) IdleSince(now time.Time) bool {
	return now.Unix()-s.LastInteraction >= int64(IdleTime.Seconds())
}

// Store is the durable key-value backend for session records.
type Store interface {
	// Provisioned reports whether the store is reachable. Side-effect free.
	Provisioned(ctx context.Context) bool

	// Get returns the record for key, ErrNotFound when absent or
	// ErrUnavailable when the store cannot be reached.
	Get(ctx context.Context, key string) (*Session, error)

	// Create writes a new record, failing with ErrExists if one is present.
	Create(ctx context.Context, sess *Session) error

	// Put overwrites the record for sess.SessionKey.
	Put(ctx context.Context, sess *Session) error
}
