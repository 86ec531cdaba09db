package repo

import (
	"context"
	"sync"
	"time"

	"github.com/dm-insight-core/server/internal/agent/model"
)

type memoryEntry struct {
	session   *model.Session
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process. Expired entries are
// dropped lazily on Load.
type MemorySessionRepository struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memoryEntry
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl:  ttl,
		now:  time.Now,
		data: map[string]memoryEntry{},
	}
}

func (r *MemorySessionRepository) Load(_ context.Context, sessionID string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.data[sessionID]
	if !ok {
		return model.NewSession(sessionID), nil
	}
	if !e.expiresAt.IsZero() && r.now().After(e.expiresAt) {
		delete(r.data, sessionID)
		return model.NewSession(sessionID), nil
	}
	return e.session.Clone(), nil
}

func (r *MemorySessionRepository) Save(_ context.Context, s *model.Session) error {
	if s == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s.UpdatedAt = r.now().UTC()
	e := memoryEntry{session: s.Clone()}
	if r.ttl > 0 {
		e.expiresAt = r.now().Add(r.ttl)
	}
	r.data[s.ID] = e
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, sessionID)
	return nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
