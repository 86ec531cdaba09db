package model

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// Exchange is one (utterance, reply) pair. It travels as a two-element JSON
// array.
type Exchange struct {
	User  string
	Reply string
}

func (e Exchange) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{e.User, e.Reply})
}

func (e *Exchange) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("exchange must be a [utterance, reply] array: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("exchange must have 2 elements, got %d", len(pair))
	}
	e.User, e.Reply = pair[0], pair[1]
	return nil
}

// Session is the per-conversation state carried between turns.
type Session struct {
	ID                 string         `json:"id"`
	CollectedVariables map[string]any `json:"collected_variables"`
	LastAskedVariable  string         `json:"last_asked_variable,omitempty"`
	History            []Exchange     `json:"history"`
	LastSearchSummary  string         `json:"last_search_summary,omitempty"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// NewSession returns an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:                 id,
		CollectedVariables: map[string]any{},
		History:            []Exchange{},
	}
}

// Merge writes every non-nil value into the collected variables. Keys are
// never removed.
func (s *Session) Merge(values map[string]any) {
	if s.CollectedVariables == nil {
		s.CollectedVariables = map[string]any{}
	}
	for k, v := range values {
		if v != nil {
			s.CollectedVariables[k] = v
		}
	}
}

// Clone returns a deep enough copy for handing out snapshots.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.CollectedVariables = maps.Clone(s.CollectedVariables)
	if out.CollectedVariables == nil {
		out.CollectedVariables = map[string]any{}
	}
	out.History = append([]Exchange{}, s.History...)
	return &out
}

type SessionRepository interface {
	// Load returns the stored session, or a fresh one when none exists.
	Load(ctx context.Context, sessionID string) (*Session, error)

	// Save persists the session and refreshes its expiry.
	Save(ctx context.Context, session *Session) error

	// Delete removes the session.
	Delete(ctx context.Context, sessionID string) error
}
