// Package session keeps in-progress wizard state between requests.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jayzilla/service-booking/internal/domain/wizard"
)

// ErrNotFound is returned when a session does not exist or has expired.
var ErrNotFound = errors.New("wizard session not found")

// Session is one customer's wizard run.
type Session struct {
	ID        uuid.UUID    `json:"id"`
	OwnerID   uuid.UUID    `json:"owner_id"`
	State     wizard.State `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// New starts a session at the wizard's initial state.
func New(ownerID uuid.UUID, initial wizard.State) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		State:     initial,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store persists sessions. TryLock guards a session while a submission is in flight.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
	TryLock(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, id uuid.UUID) error
}
