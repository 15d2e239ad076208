package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/audit"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/cache"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/history"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/recommend"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/repository"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/session"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/jwt"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

// Page is one search page of one identity.
type Page struct {
	category   domain.Category
	identity   string
	searcher   repository.Searcher
	stores     *categoryStores
	session    *session.State
	history    *history.Ledger
	refresher  *recommend.Refresher
	sessionTTL time.Duration
	now        func() time.Time

	wg sync.WaitGroup
}

// Category returns the page category.
func (p *Page) Category() domain.Category { return p.category }

// Identity returns the page identity, "guest" for anonymous callers.
func (p *Page) Identity() string { return p.identity }

func (p *Page) searchQuery(query string, filters domain.Filters) domain.SearchQuery {
	q := domain.SearchQuery{Category: p.category, Query: query, Filters: filters}
	if p.identity != jwt.Guest {
		q.Identity = p.identity
	}
	return q
}

// fetch returns results for key, from the cache when present. Concurrent
// misses on the same key share one call to the searcher.
func (p *Page) fetch(ctx context.Context, key, query string, filters domain.Filters) ([]domain.ResultItem, bool, error) {
	if results, ok := p.stores.search.Get(key); ok {
		return results, true, nil
	}

	v, err, _ := p.stores.sf.Do(key, func() (interface{}, error) {
		results, err := p.searcher.Search(ctx, p.searchQuery(query, filters))
		if err != nil {
			return nil, err
		}
		p.stores.search.Set(ctx, key, results)
		return results, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	return v.([]domain.ResultItem), false, nil
}

// Search runs one submission: cache probe, search on miss, cache write,
// session save, history add, then an asynchronous recommendation refresh.
// A failed search leaves session and history untouched.
func (p *Page) Search(ctx context.Context, query string, filters domain.Filters) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	filters = filters.Clone()

	l := log.Ctx(ctx)
	key := cache.DeriveKey(p.identity, query, filters)

	results, cached, err := p.fetch(ctx, key, query, filters)
	if err != nil {
		l.Warn().Err(err).Str(log.FieldCategory, string(p.category)).Str(log.FieldQuery, query).Msg("search failed")
		return nil, err
	}

	if err := p.session.Save(ctx, results, query, filters); err != nil {
		l.Warn().Err(err).Str(log.FieldCategory, string(p.category)).Msg("session save failed")
	}

	entries := p.history.Add(ctx, domain.HistoryEntry{Query: query, Filters: filters, Timestamp: p.now()})
	p.refresh(ctx, entries[0], false)

	l.Debug().
		Str(log.FieldCategory, string(p.category)).
		Str(log.FieldCacheKey, key).
		Bool("cached", cached).
		Int("results", len(results)).
		Msg("search served")

	return &domain.SearchResult{Results: results, Cached: cached, History: entries}, nil
}

// refresh opens a refresher generation now and resolves it in the background,
// so generations follow submission order.
func (p *Page) refresh(ctx context.Context, head domain.HistoryEntry, force bool) uint64 {
	gen := p.refresher.Begin(head)
	p.spawn(ctx, func(bg context.Context) {
		p.refresher.Run(bg, gen, head, force)
	})
	return gen
}

func (p *Page) spawn(ctx context.Context, fn func(ctx context.Context)) {
	bg := log.Detach(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		fn(bg)
	}()
}

// Restore returns the persisted session and whether it is older than the
// session TTL. A stale session is returned as is and re-fetched in the
// background; history is not touched.
func (p *Page) Restore(ctx context.Context) (*domain.RestoredSession, bool) {
	s, ok := p.session.Restore(ctx)
	if !ok {
		return nil, false
	}

	stale := !cache.IsFresh(s.SavedAt, p.sessionTTL, p.now())
	if stale && s.Query != "" {
		query, filters := s.Query, s.Filters.Clone()
		p.spawn(ctx, func(bg context.Context) { p.refetch(bg, query, filters) })
	}
	return &domain.RestoredSession{Session: s, Stale: stale}, true
}

func (p *Page) refetch(ctx context.Context, query string, filters domain.Filters) {
	l := log.Ctx(ctx)

	results, err := p.searcher.Search(ctx, p.searchQuery(query, filters))
	if err != nil {
		l.Warn().Err(err).Str(log.FieldCategory, string(p.category)).Str(log.FieldQuery, query).Msg("stale session refetch failed")
		return
	}
	p.stores.search.Set(ctx, cache.DeriveKey(p.identity, query, filters), results)

	// A newer submission owns the session now.
	if cur, ok := p.session.Restore(ctx); ok && (cur.Query != query || !cur.Filters.Equal(filters)) {
		return
	}
	if err := p.session.Save(ctx, results, query, filters); err != nil {
		l.Warn().Err(err).Str(log.FieldCategory, string(p.category)).Msg("session save failed")
	}
}

// ResetSession wipes the persisted session.
func (p *Page) ResetSession(ctx context.Context) error {
	if err := p.session.Clear(ctx); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}
	audit.Log(ctx, audit.ActionResetSession, string(p.category), p.identity, "search session reset")
	return nil
}

// History returns the ledger, most recent first.
func (p *Page) History() []domain.HistoryEntry {
	return p.history.Entries()
}

// ClearHistory empties the ledger. Recommendations return to idle and their
// cache for this identity is dropped.
func (p *Page) ClearHistory(ctx context.Context) error {
	n := len(p.history.Entries())
	err := p.history.Clear(ctx)
	audit.LogWithDetail(ctx, audit.ActionClearHistory, string(p.category), p.identity, fmt.Sprintf("%d entries", n), "search history cleared")
	if err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// Recommendations returns the current recommendation state.
func (p *Page) Recommendations() domain.RecommendationState {
	return p.refresher.Snapshot()
}

// RefreshRecommendations regenerates recommendations for the history head,
// bypassing the recommendation cache. It returns the loading state of the new
// generation.
func (p *Page) RefreshRecommendations(ctx context.Context) (domain.RecommendationState, error) {
	head, ok := p.history.Head()
	if !ok {
		return domain.RecommendationState{}, ErrNoHistory
	}
	gen := p.refresh(ctx, head, true)
	audit.LogWithDetail(ctx, audit.ActionRefreshRecommendation, string(p.category), p.identity, fmt.Sprintf("generation %d", gen), "recommendations refresh requested")

	state := p.refresher.Snapshot()
	if state.Generation != gen {
		state = domain.RecommendationState{Status: domain.StatusLoading, Query: head.Query, Generation: gen, UpdatedAt: p.now()}
	}
	return state, nil
}

// Wait blocks until the page's background work has finished.
func (p *Page) Wait() {
	p.wg.Wait()
}
