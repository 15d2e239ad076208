package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

// Entry is one cached payload. StoredAt is set at write time and never mutated.
type Entry[T any] struct {
	Payload  []T       `json:"payload"`
	StoredAt time.Time `json:"storedAt"`
}

// Options configures a Store.
type Options struct {
	// Namespace is the medium key the whole map is persisted under.
	Namespace string
	// MaxEntries caps the number of keys; 0 keeps every entry.
	MaxEntries int
	// Now defaults to time.Now.
	Now func() time.Time
	// OnLookup, when set, observes every Get.
	OnLookup func(hit bool)
}

// Store is an in-memory keyed cache mirrored to a kv medium. A key maps to at
// most one entry; writes overwrite.
type Store[T any] struct {
	medium     kv.Store
	namespace  string
	maxEntries int
	now        func() time.Time
	onLookup   func(hit bool)

	mu      sync.RWMutex
	entries map[string]Entry[T]

	// persistMu orders snapshots so an older one is never written last.
	persistMu sync.Mutex
}

// NewStore creates an empty store. Call LoadAll to hydrate it.
func NewStore[T any](medium kv.Store, opts Options) *Store[T] {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store[T]{
		medium:     medium,
		namespace:  opts.Namespace,
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
		onLookup:   opts.OnLookup,
		entries:    make(map[string]Entry[T]),
	}
}

// Namespace returns the medium key of this store.
func (s *Store[T]) Namespace() string {
	return s.namespace
}

// Get returns the payload stored under key.
func (s *Store[T]) Get(key string) ([]T, bool) {
	e, ok := s.Entry(key)
	if !ok {
		return nil, false
	}
	return e.Payload, true
}

// Entry returns the full entry stored under key.
func (s *Store[T]) Entry(key string) (Entry[T], bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if s.onLookup != nil {
		s.onLookup(ok)
	}
	if !ok {
		return Entry[T]{}, false
	}
	return Entry[T]{Payload: clone(e.Payload), StoredAt: e.StoredAt}, true
}

// Set stores payload under key and persists the whole map. A persist failure
// is logged; the in-memory write stands.
func (s *Store[T]) Set(ctx context.Context, key string, payload []T) {
	s.mu.Lock()
	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}
	s.entries[key] = Entry[T]{Payload: clone(payload), StoredAt: s.now()}
	s.mu.Unlock()

	if err := s.PersistAll(ctx); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldNamespace, s.namespace).Str(log.FieldCacheKey, key).Msg("cache persist failed")
	}
}

// DeletePrefix drops every entry whose key starts with prefix and persists.
// It returns the number of removed entries.
func (s *Store[T]) DeletePrefix(ctx context.Context, prefix string) int {
	s.mu.Lock()
	removed := 0
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()

	if removed == 0 {
		return 0
	}
	if err := s.PersistAll(ctx); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldNamespace, s.namespace).Msg("cache persist failed")
	}
	return removed
}

// Len returns the number of entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// LoadAll replaces the in-memory map with the persisted one. Missing or
// malformed data leaves the store empty; it is logged, never returned.
func (s *Store[T]) LoadAll(ctx context.Context) {
	l := log.Ctx(ctx)
	loaded := make(map[string]Entry[T])

	raw, err := s.medium.Get(ctx, s.namespace)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		l.Warn().Err(err).Str(log.FieldNamespace, s.namespace).Msg("cache load failed, starting empty")
	default:
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			l.Warn().Err(err).Str(log.FieldNamespace, s.namespace).Msg("malformed persisted cache, starting empty")
			loaded = make(map[string]Entry[T])
		}
	}

	s.mu.Lock()
	s.entries = loaded
	if s.maxEntries > 0 {
		for len(s.entries) > s.maxEntries {
			s.evictOldestLocked()
		}
	}
	s.mu.Unlock()
}

// PersistAll writes the whole map to the medium.
func (s *Store[T]) PersistAll(ctx context.Context) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	data, err := json.Marshal(s.entries)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := s.medium.Set(ctx, s.namespace, string(data)); err != nil {
		return fmt.Errorf("failed to persist cache %s: %w", s.namespace, err)
	}
	return nil
}

func (s *Store[T]) evictOldestLocked() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for key, e := range s.entries {
		if !found || e.StoredAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, e.StoredAt, true
		}
	}
	if found {
		delete(s.entries, oldestKey)
	}
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
