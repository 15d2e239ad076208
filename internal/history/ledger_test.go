package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
	"github.com/weiawesome/wes-io-live/discovery-service/internal/kv"
)

func entry(q string) domain.HistoryEntry {
	return domain.HistoryEntry{Query: q, Filters: domain.Filters{}, Timestamp: time.Unix(0, 0).UTC()}
}

func queries(entries []domain.HistoryEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Query)
	}
	return out
}

func newLedger(t *testing.T) (*Ledger, kv.Store) {
	t.Helper()
	medium := kv.NewMemoryStore(0)
	l := NewLedger(medium, Key(domain.CategoryJobs, "u1"), 5)
	l.LoadInitial(context.Background())
	return l, medium
}

func TestAddDedupAndCap(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	var got []domain.HistoryEntry
	for _, q := range []string{"A", "B", "C", "D", "E", "F"} {
		got = l.Add(ctx, entry(q))
	}
	if diff := cmp.Diff([]string{"F", "E", "D", "C", "B"}, queries(got)); diff != "" {
		t.Errorf("after six adds (-want +got):\n%s", diff)
	}

	got = l.Add(ctx, entry("B"))
	if diff := cmp.Diff([]string{"B", "F", "E", "D", "C"}, queries(got)); diff != "" {
		t.Errorf("after re-adding B (-want +got):\n%s", diff)
	}
}

func TestAddDedupIsCaseInsensitiveOnQueryOnly(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)

	l.Add(ctx, domain.HistoryEntry{Query: "Nurse", Filters: domain.Filters{"city": "Austin"}})
	l.Add(ctx, domain.HistoryEntry{Query: "nurse", Filters: domain.Filters{"city": "Austin"}})
	if n := len(l.Entries()); n != 1 {
		t.Fatalf("case variants of one search should dedup, got %d entries", n)
	}

	l.Add(ctx, domain.HistoryEntry{Query: "nurse", Filters: domain.Filters{"city": "austin"}})
	if n := len(l.Entries()); n != 2 {
		t.Errorf("filter values compare exactly, expected 2 entries, got %d", n)
	}
	l.Add(ctx, domain.HistoryEntry{Query: "nurse", Filters: domain.Filters{"city": "Austin", "type": "full-time"}})
	if n := len(l.Entries()); n != 3 {
		t.Errorf("an extra filter is a different search, expected 3 entries, got %d", n)
	}
}

func TestRapidRepeatLastWriteWinsAtHead(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(t)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	l.Add(ctx, domain.HistoryEntry{Query: "chef", Timestamp: ts})
	l.Add(ctx, domain.HistoryEntry{Query: "Chef", Timestamp: ts})

	head, ok := l.Head()
	if !ok || head.Query != "Chef" {
		t.Errorf("expected the latest write at head, got %+v", head)
	}
}

func TestLoadInitialRestoresPersisted(t *testing.T) {
	ctx := context.Background()
	l, medium := newLedger(t)
	l.Add(ctx, entry("A"))
	l.Add(ctx, entry("B"))

	reloaded := NewLedger(medium, Key(domain.CategoryJobs, "u1"), 5)
	got := reloaded.LoadInitial(ctx)
	if diff := cmp.Diff([]string{"B", "A"}, queries(got)); diff != "" {
		t.Errorf("reload mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadInitialMalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	medium := kv.NewMemoryStore(0)
	_ = medium.Set(ctx, "history:jobs:guest", `{"oops":`)

	l := NewLedger(medium, "history:jobs:guest", 5)
	if got := l.LoadInitial(ctx); len(got) != 0 {
		t.Errorf("expected empty history, got %v", got)
	}
}

func TestClearPersistsAndRunsHooks(t *testing.T) {
	ctx := context.Background()
	l, medium := newLedger(t)
	l.Add(ctx, entry("A"))

	cleared := 0
	l.OnClear(func(context.Context) { cleared++ })

	if err := l.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared != 1 {
		t.Errorf("expected clear hook to run once, ran %d", cleared)
	}
	if _, ok := l.Head(); ok {
		t.Error("expected no head after clear")
	}

	raw, err := medium.Get(ctx, Key(domain.CategoryJobs, "u1"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if raw != "[]" {
		t.Errorf("expected persisted empty list, got %q", raw)
	}
}
