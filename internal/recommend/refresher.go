package recommend

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/cache"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/discovery-service/pkg/log"
)

const reasonUnparseable = "unparseable response"

// Config configures a Refresher.
type Config struct {
	Category domain.Category
	Identity string
	// TTL is how long a cached recommendation list short-circuits generation.
	TTL     time.Duration
	Now     func() time.Time
	Metrics *metrics.Metrics
}

// Refresher owns the recommendation state of one page. Every refresh takes a
// new generation; a result is applied only if its generation is still the
// latest, so an older slow refresh never overwrites a newer one.
type Refresher struct {
	cfg       Config
	generator Generator
	cache     *cache.Store[domain.Recommendation]

	mu         sync.Mutex
	generation uint64
	state      domain.RecommendationState
}

// NewRefresher creates a refresher in the idle state.
func NewRefresher(generator Generator, store *cache.Store[domain.Recommendation], cfg Config) *Refresher {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if generator == nil {
		generator = OfflineGenerator{}
	}
	return &Refresher{
		cfg:       cfg,
		generator: generator,
		cache:     store,
		state:     domain.RecommendationState{Status: domain.StatusIdle, UpdatedAt: cfg.Now()},
	}
}

// Snapshot returns the current state.
func (r *Refresher) Snapshot() domain.RecommendationState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Begin opens a new generation for head and moves the state to loading.
func (r *Refresher) Begin(head domain.HistoryEntry) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.state = domain.RecommendationState{
		Status:     domain.StatusLoading,
		Query:      head.Query,
		Generation: r.generation,
		UpdatedAt:  r.cfg.Now(),
	}
	return r.generation
}

// Refresh runs a full refresh for head and returns the resulting state.
func (r *Refresher) Refresh(ctx context.Context, head domain.HistoryEntry, force bool) domain.RecommendationState {
	return r.Run(ctx, r.Begin(head), head, force)
}

// Run resolves generation gen opened by Begin. Unless force is set, a fresh
// cache entry for head is used without calling the generator. It returns the
// state that is current once the result has been applied or discarded.
func (r *Refresher) Run(ctx context.Context, gen uint64, head domain.HistoryEntry, force bool) domain.RecommendationState {
	key := cache.DeriveKey(r.cfg.Identity, head.Query, head.Filters)

	if !force {
		if e, ok := r.cache.Entry(key); ok && len(e.Payload) > 0 && cache.IsFresh(e.StoredAt, r.cfg.TTL, r.cfg.Now()) {
			return r.apply(ctx, gen, metrics.OutcomeCached, domain.RecommendationState{
				Status: domain.StatusReady,
				Items:  e.Payload,
				Cached: true,
			})
		}
	}

	text, err := r.generator.Generate(ctx, BuildPrompt(r.cfg.Category, head))
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldCategory, string(r.cfg.Category)).Uint64(log.FieldGeneration, gen).Msg("recommendation generation failed")
		return r.apply(ctx, gen, metrics.OutcomeFailed, domain.RecommendationState{
			Status: domain.StatusFailed,
			Reason: err.Error(),
		})
	}

	items, found := Parse(r.cfg.Category, head.Query, text)
	switch {
	case found && len(items) > 0:
		// A reset may have dropped this identity's cache meanwhile.
		if r.isCurrent(gen) {
			r.cache.Set(ctx, key, items)
		}
		return r.apply(ctx, gen, metrics.OutcomeReady, domain.RecommendationState{Status: domain.StatusReady, Items: items})
	case found:
		return r.apply(ctx, gen, metrics.OutcomeEmpty, domain.RecommendationState{Status: domain.StatusEmpty})
	}

	if fb := Fallback(r.cfg.Category, head.Query, head.Filters); len(fb) > 0 {
		return r.apply(ctx, gen, metrics.OutcomeFallback, domain.RecommendationState{Status: domain.StatusReady, Items: fb})
	}
	return r.apply(ctx, gen, metrics.OutcomeFailed, domain.RecommendationState{
		Status: domain.StatusFailed,
		Reason: reasonUnparseable,
	})
}

// Reset invalidates any in-flight refresh, returns to idle and drops every
// cached recommendation of this identity.
func (r *Refresher) Reset(ctx context.Context) {
	r.mu.Lock()
	r.generation++
	r.state = domain.RecommendationState{Status: domain.StatusIdle, Generation: r.generation, UpdatedAt: r.cfg.Now()}
	r.mu.Unlock()

	r.cache.DeletePrefix(ctx, cache.IdentityPrefix(r.cfg.Identity))
}

func (r *Refresher) isCurrent(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.generation
}

func (r *Refresher) apply(ctx context.Context, gen uint64, outcome string, next domain.RecommendationState) domain.RecommendationState {
	r.mu.Lock()
	defer r.mu.Unlock()

	category := string(r.cfg.Category)
	if gen != r.generation {
		l := log.Ctx(ctx)
		l.Debug().
			Str(log.FieldCategory, category).
			Uint64(log.FieldGeneration, gen).
			Uint64("current_generation", r.generation).
			Msg("discarding stale recommendation result")
		r.cfg.Metrics.Recommendation(category, metrics.OutcomeDiscarded)
		return r.state
	}

	next.Query = r.state.Query
	next.Generation = gen
	next.UpdatedAt = r.cfg.Now()
	r.state = next
	r.cfg.Metrics.Recommendation(category, outcome)
	return next
}
