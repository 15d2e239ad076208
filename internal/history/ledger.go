// Package history keeps the bounded, most-recent-first list of past searches
// that drives recommendation refresh.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

// DefaultLimit is the number of entries kept when none is configured.
const DefaultLimit = 5

// Key returns the medium key of a page history.
func Key(category domain.Category, identity string) string {
	if identity == "" {
		identity = "guest"
	}
	return fmt.Sprintf("history:%s:%s", category, identity)
}

// ClearHook runs after a ledger is cleared.
type ClearHook func(ctx context.Context)

// Ledger is a deduplicated history of at most limit entries.
type Ledger struct {
	medium kv.Store
	key    string
	limit  int

	mu      sync.Mutex
	entries []domain.HistoryEntry
	onClear []ClearHook
}

// NewLedger creates an empty ledger. Call LoadInitial to hydrate it.
func NewLedger(medium kv.Store, key string, limit int) *Ledger {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Ledger{medium: medium, key: key, limit: limit}
}

// OnClear registers a hook run by Clear. Recommendations derive from history,
// so the page uses this to drop them together.
func (l *Ledger) OnClear(hook ClearHook) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onClear = append(l.onClear, hook)
}

// LoadInitial hydrates the ledger from the medium. Malformed data yields an
// empty ledger.
func (l *Ledger) LoadInitial(ctx context.Context) []domain.HistoryEntry {
	logger := log.Ctx(ctx)

	var entries []domain.HistoryEntry
	raw, err := l.medium.Get(ctx, l.key)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		logger.Warn().Err(err).Str("key", l.key).Msg("history read failed, starting empty")
	default:
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			logger.Warn().Err(err).Str("key", l.key).Msg("malformed persisted history, starting empty")
			entries = nil
		}
	}
	if len(entries) > l.limit {
		entries = entries[:l.limit]
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = entries
	return l.snapshotLocked()
}

// Add removes any prior occurrence of the same search, prepends entry,
// truncates to the limit, persists and returns the updated list.
func (l *Ledger) Add(ctx context.Context, entry domain.HistoryEntry) []domain.HistoryEntry {
	entry.Filters = entry.Filters.Clone()

	l.mu.Lock()
	next := make([]domain.HistoryEntry, 0, l.limit)
	next = append(next, entry)
	for _, e := range l.entries {
		if len(next) == l.limit {
			break
		}
		if e.SameSearch(entry) {
			continue
		}
		next = append(next, e)
	}
	l.entries = next
	out := l.snapshotLocked()
	l.mu.Unlock()

	l.persist(ctx, out)
	return out
}

// Clear empties the ledger, persists the empty list and runs the clear hooks.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	l.entries = nil
	hooks := append([]ClearHook(nil), l.onClear...)
	l.mu.Unlock()

	err := l.write(ctx, []domain.HistoryEntry{})
	for _, hook := range hooks {
		hook(ctx)
	}
	return err
}

// Entries returns a copy of the ledger, most recent first.
func (l *Ledger) Entries() []domain.HistoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Head returns the most recent entry.
func (l *Ledger) Head() (domain.HistoryEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) == 0 {
		return domain.HistoryEntry{}, false
	}
	return l.entries[0], true
}

func (l *Ledger) persist(ctx context.Context, entries []domain.HistoryEntry) {
	if err := l.write(ctx, entries); err != nil {
		logger := log.Ctx(ctx)
		logger.Warn().Err(err).Str("key", l.key).Msg("history persist failed")
	}
}

func (l *Ledger) write(ctx context.Context, entries []domain.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := l.medium.Set(ctx, l.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

func (l *Ledger) snapshotLocked() []domain.HistoryEntry {
	out := make([]domain.HistoryEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
