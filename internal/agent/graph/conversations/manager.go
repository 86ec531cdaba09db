package conversations

import (
	"context"
	"strings"
	"sync"

	"github.com/dm-insight-core/server/internal/agent/model"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

// SessionManager owns session persistence and serializes turns per session.
type SessionManager struct {
	repo model.SessionRepository

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewSessionManager(repo model.SessionRepository) *SessionManager {
	return &SessionManager{
		repo:  repo,
		locks: map[string]*sessionLock{},
	}
}

// Lock blocks until no other turn holds sessionID and returns the release
// function. Idle lock entries are dropped on release.
func (m *SessionManager) Lock(sessionID string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		m.locks[sessionID] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, sessionID)
		}
		m.mu.Unlock()
	}
}

// Begin loads the session for a turn. A non-nil history replaces the stored
// one so callers that own persistence stay authoritative.
func (m *SessionManager) Begin(ctx context.Context, in model.TurnInput) (*model.Session, error) {
	s, err := m.repo.Load(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if in.History != nil {
		s.History = append([]model.Exchange{}, in.History...)
	}
	logx.Debug().
		Str("session_id", in.SessionID).
		Int("collected", len(s.CollectedVariables)).
		Int("history", len(s.History)).
		Msg("session loaded")
	return s, nil
}

// Commit appends the exchange and persists the session.
func (m *SessionManager) Commit(ctx context.Context, s *model.Session, utterance, reply string) error {
	s.History = append(s.History, model.Exchange{User: utterance, Reply: reply})
	if err := m.repo.Save(ctx, s); err != nil {
		logx.Error().Err(err).Str("session_id", s.ID).Msg("failed to save session")
		return err
	}
	return nil
}

// Reset clears collected variables, the last asked key and history.
func (m *SessionManager) Reset(ctx context.Context, sessionID string) error {
	unlock := m.Lock(sessionID)
	defer unlock()
	return m.repo.Delete(ctx, sessionID)
}

// JoinReply assembles the reply from its non-empty parts separated by a blank
// line.
func JoinReply(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
