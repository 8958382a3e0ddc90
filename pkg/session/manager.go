package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome describes what Resolve did with the session record.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeRefreshed Outcome = "refreshed"
	OutcomeRotated   Outcome = "rotated"
)

// Resolution is the result of resolving a session for one interaction.
type Resolution struct {
	Session *Session
	Outcome Outcome

	// PreviousID holds the session id that was rotated out.
	// Set only when Outcome is OutcomeRotated.
	PreviousID string
}

// Manager decides whether an existing session is still warm or must be
// rotated, and creates, reads, and touches session records.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Provisioned reports whether the backing store is reachable.
func (m *Manager) Provisioned(ctx context.Context) bool {
	return m.store.Provisioned(ctx)
}

// Get is a point lookup. ErrNotFound when no record exists.
func (m *Manager) Get(ctx context.Context, key string) (*Session, error) {
	return m.store.Get(ctx, key)
}

// Add creates a new record with a fresh session id. ErrExists if a record
// is already present for the key.
func (m *Manager) Add(ctx context.Context, key string, now time.Time) (*Session, error) {
	sess := &Session{
		SessionKey:      key,
		SessionID:       uuid.NewString(),
		LastInteraction: now.Unix(),
	}
	if err := m.store.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Touch refreshes last_interaction without changing the session id.
func (m *Manager) Touch(ctx context.Context, key string, now time.Time) (*Session, error) {
	sess, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	sess.LastInteraction = now.Unix()
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Rotate assigns a new session id and resets last_interaction.
func (m *Manager) Rotate(ctx context.Context, key string, now time.Time) (*Session, error) {
	sess, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	sess.SessionID = uuid.NewString()
	sess.LastInteraction = now.Unix()
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Resolve returns a session valid for this interaction, creating or rotating
// state as needed:
//
//   - no record           -> create one
//   - idle < IdleTime     -> touch timestamp, keep session id
//   - idle >= IdleTime    -> rotate session id, reset timestamp
//
// Expiry is lazy: it happens on the next access, never by a background sweep.
func (m *Manager) Resolve(ctx context.Context, key string, now time.Time) (*Resolution, error) {
	sess, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		created, err := m.Add(ctx, key, now)
		if errors.Is(err, ErrExists) {
			// Lost a create race with a concurrent request; reuse theirs.
			existing, err := m.store.Get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("resolve session %s: %w", key, err)
			}
			return &Resolution{Session: existing, Outcome: OutcomeRefreshed}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("resolve session %s: %w", key, err)
		}
		return &Resolution{Session: created, Outcome: OutcomeCreated}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session %s: %w", key, err)
	}

	if !sess.IdleSince(now) {
		touched, err := m.Touch(ctx, key, now)
		if err != nil {
			return nil, fmt.Errorf("resolve session %s: %w", key, err)
		}
		return &Resolution{Session: touched, Outcome: OutcomeRefreshed}, nil
	}

	previous := sess.SessionID
	rotated, err := m.Rotate(ctx, key, now)
	if err != nil {
		return nil, fmt.Errorf("resolve session %s: %w", key, err)
	}
	return &Resolution{
		Session:    rotated,
		Outcome:    OutcomeRotated,
		PreviousID: previous,
	}, nil
}
