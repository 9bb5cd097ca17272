package memory

import (
	"context"
	"time"

	"careconnect/internal/repository/contract"
	"careconnect/pkg/store"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository keeps sessions for ttl after their last save and
// purges expired items every 10 minutes.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

// Save stores a copy; later changes to session are not visible until the
// next Save.
func (r *SessionRepository) Save(ctx context.Context, session *store.Session) error {
	r.cache.Set(session.ID.String(), session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*store.Session).Clone(), nil
	}
	return nil, store.ErrSessionNotFound
}

func (r *SessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
