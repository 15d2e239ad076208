package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
)

// stepClock returns a clock advancing one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func item(s string) domain.ResultItem {
	return domain.ResultItem(`{"title":"` + s + `"}`)
}

func titles(items []domain.ResultItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		var v struct{ Title string }
		_ = json.Unmarshal(it, &v)
		out = append(out, v.Title)
	}
	return out
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore[domain.ResultItem](kv.NewMemoryStore(0), Options{Namespace: "search:jobs"})

	s.Set(ctx, "k", []domain.ResultItem{item("x")})
	s.Set(ctx, "k", []domain.ResultItem{item("y")})

	got, ok := s.Get("k")
	if !ok {
		t.Fatal("expected hit")
	}
	if diff := cmp.Diff([]string{"y"}, titles(got)); diff != "" {
		t.Errorf("overwrite mismatch (-want +got):\n%s", diff)
	}
	if s.Len() != 1 {
		t.Errorf("expected one entry, got %d", s.Len())
	}
}

func TestStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemoryStore(0)

	first := NewStore[domain.ResultItem](medium, Options{Namespace: "search:jobs"})
	first.Set(ctx, "a", []domain.ResultItem{item("1"), item("2")})

	second := NewStore[domain.ResultItem](medium, Options{Namespace: "search:jobs"})
	second.LoadAll(ctx)

	got, ok := second.Get("a")
	if !ok {
		t.Fatal("expected entry after reload")
	}
	if diff := cmp.Diff([]string{"1", "2"}, titles(got)); diff != "" {
		t.Errorf("reload mismatch (-want +got):\n%s", diff)
	}

	other := NewStore[domain.ResultItem](medium, Options{Namespace: "search:products"})
	other.LoadAll(ctx)
	if other.Len() != 0 {
		t.Errorf("namespaces must not share entries, got %d", other.Len())
	}
}

func TestStoreEntryKeepsStoredAt(t *testing.T) {
	ctx := context.Background()
	clock := stepClock()
	s := NewStore[domain.ResultItem](kv.NewMemoryStore(0), Options{Namespace: "n", Now: clock})

	s.Set(ctx, "k", []domain.ResultItem{item("x")})
	e, ok := s.Entry("k")
	if !ok {
		t.Fatal("expected entry")
	}
	want := time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC)
	if !e.StoredAt.Equal(want) {
		t.Errorf("storedAt: want %s, got %s", want, e.StoredAt)
	}
}

func TestStoreLoadMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemoryStore(0)
	s := NewStore[domain.ResultItem](medium, Options{Namespace: "search:jobs"})
	s.Set(ctx, "stale", nil)

	if err := medium.Set(ctx, "search:jobs", "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s.LoadAll(ctx)

	if s.Len() != 0 {
		t.Errorf("expected empty store after malformed load, got %d", s.Len())
	}
}

type failingMedium struct {
	kv.Store
}

func (failingMedium) Set(context.Context, string, string) error {
	return kv.ErrQuotaExceeded
}

func TestStoreToleratesPersistFailure(t *testing.T) {
	ctx := context.Background()
	s := NewStore[domain.ResultItem](failingMedium{kv.NewMemoryStore(0)}, Options{Namespace: "n"})

	s.Set(ctx, "k", []domain.ResultItem{item("x")})

	if _, ok := s.Get("k"); !ok {
		t.Error("in-memory write must stand when persisting fails")
	}
	if err := s.PersistAll(ctx); !errors.Is(err, kv.ErrQuotaExceeded) {
		t.Errorf("expected quota error from PersistAll, got %v", err)
	}
}

func TestStoreBoundEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewStore[domain.ResultItem](kv.NewMemoryStore(0), Options{Namespace: "n", MaxEntries: 2, Now: stepClock()})

	s.Set(ctx, "a", nil)
	s.Set(ctx, "b", nil)
	s.Set(ctx, "a", []domain.ResultItem{item("a2")}) // overwrite does not evict
	if s.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", s.Len())
	}

	s.Set(ctx, "c", nil)
	if _, ok := s.Get("b"); ok {
		t.Error("expected b, the oldest entry, to be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := s.Get(k); !ok {
			t.Errorf("expected %s to survive", k)
		}
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemoryStore(0)
	s := NewStore[domain.Recommendation](medium, Options{Namespace: "recommend:jobs"})

	s.Set(ctx, DeriveKey("u1", "nurse", nil), []domain.Recommendation{{Title: "A"}})
	s.Set(ctx, DeriveKey("u1", "chef", nil), []domain.Recommendation{{Title: "B"}})
	s.Set(ctx, DeriveKey("u10", "nurse", nil), []domain.Recommendation{{Title: "C"}})

	if n := s.DeletePrefix(ctx, IdentityPrefix("u1")); n != 2 {
		t.Fatalf("expected 2 removed, got %d", n)
	}
	if _, ok := s.Get(DeriveKey("u10", "nurse", nil)); !ok {
		t.Error("u10 shares a textual prefix with u1 but must survive")
	}

	reloaded := NewStore[domain.Recommendation](medium, Options{Namespace: "recommend:jobs"})
	reloaded.LoadAll(ctx)
	if reloaded.Len() != 1 {
		t.Errorf("deletion should be persisted, got %d entries", reloaded.Len())
	}
}

func TestStoreLookupObserver(t *testing.T) {
	var hits, misses int
	s := NewStore[domain.ResultItem](kv.NewMemoryStore(0), Options{
		Namespace: "n",
		OnLookup: func(hit bool) {
			if hit {
				hits++
			} else {
				misses++
			}
		},
	})

	s.Get("missing")
	s.Set(context.Background(), "k", nil)
	s.Get("k")

	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d/%d", hits, misses)
	}
}
