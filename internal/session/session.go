// Package session persists the last view of a search page so a reload can
// restore it without querying again.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

// Key returns the medium key of a page session.
func Key(category domain.Category, identity string) string {
	if identity == "" {
		identity = "guest"
	}
	return fmt.Sprintf("session:%s:%s", category, identity)
}

// State holds one page's session. Freshness is the caller's decision:
// Restore returns data regardless of its age.
type State struct {
	medium kv.Store
	key    string
	now    func() time.Time

	mu      sync.Mutex
	current *domain.SessionState
	loaded  bool
}

// NewState creates a session bound to the medium key.
func NewState(medium kv.Store, key string, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{medium: medium, key: key, now: now}
}

// Save overwrites the session wholesale and stamps SavedAt. The in-memory copy
// is updated even when persisting fails.
func (s *State) Save(ctx context.Context, results []domain.ResultItem, query string, filters domain.Filters) error {
	state := &domain.SessionState{
		Query:   query,
		Filters: filters.Clone(),
		Results: append([]domain.ResultItem(nil), results...),
		SavedAt: s.now(),
	}

	s.mu.Lock()
	s.current = state
	s.loaded = true
	s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.medium.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Restore returns the last saved state, if any.
func (s *State) Restore(ctx context.Context) (*domain.SessionState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.current = s.read(ctx)
		s.loaded = true
	}
	if s.current == nil {
		return nil, false
	}
	cp := *s.current
	cp.Filters = s.current.Filters.Clone()
	cp.Results = append([]domain.ResultItem(nil), s.current.Results...)
	return &cp, true
}

// Clear removes the session from memory and from the medium.
func (s *State) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.current = nil
	s.loaded = true
	s.mu.Unlock()

	if err := s.medium.Remove(ctx, s.key); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

func (s *State) read(ctx context.Context) *domain.SessionState {
	l := log.Ctx(ctx)

	raw, err := s.medium.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			l.Warn().Err(err).Str("key", s.key).Msg("session read failed")
		}
		return nil
	}

	var state domain.SessionState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		l.Warn().Err(err).Str("key", s.key).Msg("malformed persisted session, ignoring")
		return nil
	}
	return &state
}
