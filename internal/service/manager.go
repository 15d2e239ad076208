// Package service orchestrates one search page per (category, identity): the
// search cache, session, history and recommendation refresher.
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/cache"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/history"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/recommend"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/repository"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/session"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/jwt"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

// Options configures a Manager.
type Options struct {
	Categories   []domain.Category
	SessionTTL   time.Duration
	RecommendTTL time.Duration
	HistoryLimit int
	MaxEntries   int
	Metrics      *metrics.Metrics
	Now          func() time.Time
}

type categoryStores struct {
	search    *cache.Store[domain.ResultItem]
	recommend *cache.Store[domain.Recommendation]
	sf        singleflight.Group
}

type pageKey struct {
	category domain.Category
	identity string
}

// Manager owns the per-category caches and lazily creates pages.
type Manager struct {
	medium    kv.Store
	searcher  repository.Searcher
	generator recommend.Generator
	opts      Options

	stores map[domain.Category]*categoryStores

	mu    sync.Mutex
	pages map[pageKey]*Page
}

// NewManager creates a manager and hydrates every category's caches from the
// medium.
func NewManager(ctx context.Context, medium kv.Store, searcher repository.Searcher, generator recommend.Generator, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = history.DefaultLimit
	}
	if len(opts.Categories) == 0 {
		opts.Categories = domain.DefaultCategories
	}

	m := &Manager{
		medium:    medium,
		searcher:  searcher,
		generator: generator,
		opts:      opts,
		stores:    make(map[domain.Category]*categoryStores, len(opts.Categories)),
		pages:     make(map[pageKey]*Page),
	}

	for _, c := range opts.Categories {
		m.stores[c] = m.newCategoryStores(ctx, c)
	}
	return m
}

func (m *Manager) newCategoryStores(ctx context.Context, c domain.Category) *categoryStores {
	category := string(c)
	searchNS := "search:" + category
	recommendNS := "recommend:" + category

	cs := &categoryStores{
		search: cache.NewStore[domain.ResultItem](m.medium, cache.Options{
			Namespace:  searchNS,
			MaxEntries: m.opts.MaxEntries,
			Now:        m.opts.Now,
			OnLookup:   func(hit bool) { m.opts.Metrics.CacheLookup(category, searchNS, hit) },
		}),
		recommend: cache.NewStore[domain.Recommendation](m.medium, cache.Options{
			Namespace:  recommendNS,
			MaxEntries: m.opts.MaxEntries,
			Now:        m.opts.Now,
			OnLookup:   func(hit bool) { m.opts.Metrics.CacheLookup(category, recommendNS, hit) },
		}),
	}
	cs.search.LoadAll(ctx)
	cs.recommend.LoadAll(ctx)
	return cs
}

// Categories returns the configured categories.
func (m *Manager) Categories() []domain.Category {
	return append([]domain.Category(nil), m.opts.Categories...)
}

// Page returns the page of identity in category, creating it on first use.
func (m *Manager) Page(ctx context.Context, category domain.Category, identity string) (*Page, error) {
	stores, ok := m.stores[category]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		identity = jwt.Guest
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	k := pageKey{category: category, identity: identity}
	if p, ok := m.pages[k]; ok {
		return p, nil
	}

	p := m.newPage(ctx, category, identity, stores)
	m.pages[k] = p
	return p, nil
}

func (m *Manager) newPage(ctx context.Context, category domain.Category, identity string, stores *categoryStores) *Page {
	p := &Page{
		category:   category,
		identity:   identity,
		searcher:   m.searcher,
		stores:     stores,
		session:    session.NewState(m.medium, session.Key(category, identity), m.opts.Now),
		history:    history.NewLedger(m.medium, history.Key(category, identity), m.opts.HistoryLimit),
		sessionTTL: m.opts.SessionTTL,
		now:        m.opts.Now,
	}
	p.refresher = recommend.NewRefresher(m.generator, stores.recommend, recommend.Config{
		Category: category,
		Identity: identity,
		TTL:      m.opts.RecommendTTL,
		Now:      m.opts.Now,
		Metrics:  m.opts.Metrics,
	})
	p.history.OnClear(p.refresher.Reset)
	p.history.LoadInitial(ctx)

	l := log.Ctx(ctx)
	l.Debug().Str(log.FieldCategory, string(category)).Str(log.FieldUserID, identity).Msg("page created")
	return p
}

// Wait blocks until every page's background work has finished.
func (m *Manager) Wait() {
	m.mu.Lock()
	pages := make([]*Page, 0, len(m.pages))
	for _, p := range m.pages {
		pages = append(pages, p)
	}
	m.mu.Unlock()

	for _, p := range pages {
		p.Wait()
	}
}

// Close waits for background work and persists every cache store.
func (m *Manager) Close(ctx context.Context) error {
	m.Wait()

	var g errgroup.Group
	for _, cs := range m.stores {
		g.Go(func() error { return cs.search.PersistAll(ctx) })
		g.Go(func() error { return cs.recommend.PersistAll(ctx) })
	}
	return g.Wait()
}
