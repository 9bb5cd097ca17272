package contract

import (
	"context"

	"careconnect/pkg/store"

	"github.com/google/uuid"
)

// SessionRepository stores chat sessions. Get returns store.ErrSessionNotFound
// for unknown or expired IDs.
type SessionRepository interface {
	Save(ctx context.Context, session *store.Session) error
	Get(ctx context.Context, id uuid.UUID) (*store.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
