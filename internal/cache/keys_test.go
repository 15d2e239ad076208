package cache

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/weiawesome/wes-io-live/discovery-service/internal/domain"
)

func TestDeriveKeyCaseInsensitive(t *testing.T) {
	a := DeriveKey("u1", "Software Engineer", domain.Filters{"city": "Austin"})
	b := DeriveKey("u1", "software engineer", domain.Filters{"city": "austin"})
	if a != b {
		t.Errorf("expected equal keys, got %q and %q", a, b)
	}
}

func TestDeriveKeyGuestSentinel(t *testing.T) {
	if DeriveKey("", "nurse", nil) != DeriveKey("guest", "nurse", nil) {
		t.Error("empty identity should derive the guest key")
	}
	if DeriveKey("", "nurse", nil) == DeriveKey("u1", "nurse", nil) {
		t.Error("guest and u1 must not share a key")
	}
	if !strings.HasPrefix(DeriveKey("  ", "nurse", nil), IdentityPrefix("guest")) {
		t.Error("blank identity should use the guest prefix")
	}
}

func TestDeriveKeyFilterOrderIrrelevant(t *testing.T) {
	// Map iteration order is random; repeat to exercise it.
	want := DeriveKey("u1", "nurse", domain.Filters{"city": "austin", "type": "full-time", "remote": "no"})
	for i := 0; i < 50; i++ {
		got := DeriveKey("u1", "nurse", domain.Filters{"remote": "no", "type": "full-time", "city": "austin"})
		if got != want {
			t.Fatalf("filter order changed the key: %q vs %q", got, want)
		}
	}
}

func TestDeriveKeySeparatorsCannotCollide(t *testing.T) {
	a := DeriveKey("u1|x", "y", nil)
	b := DeriveKey("u1", "x|y", nil)
	if a == b {
		t.Errorf("separator injection collided: %q", a)
	}

	c := DeriveKey("u1", "q", domain.Filters{"a": "b&c=d"})
	d := DeriveKey("u1", "q", domain.Filters{"a": "b", "c": "d"})
	if c == d {
		t.Errorf("filter injection collided: %q", c)
	}
}

type keyTuple struct {
	identity string
	query    string
	filters  domain.Filters
}

func randomWord(r *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789|=&%-"
	n := 1 + r.Intn(10)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[r.Intn(len(alphabet))])
	}
	return b.String()
}

func randomTuple(r *rand.Rand) keyTuple {
	filters := domain.Filters{}
	for i, n := 0, r.Intn(4); i < n; i++ {
		filters[fmt.Sprintf("f%d", i)] = randomWord(r)
	}
	return keyTuple{identity: randomWord(r), query: randomWord(r), filters: filters}
}

func (k keyTuple) String() string {
	return fmt.Sprintf("%s/%s/%v", k.identity, k.query, k.filters)
}

func TestDeriveKeyDeterministicAndInjective(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	seen := make(map[string]keyTuple)

	for i := 0; i < 100; i++ {
		tup := randomTuple(r)
		key := DeriveKey(tup.identity, tup.query, tup.filters)

		upper := DeriveKey(strings.ToUpper(tup.identity), strings.ToUpper(tup.query), tup.filters.Clone())
		if upper != key {
			t.Fatalf("same tuple modulo case gave different keys: %q vs %q", key, upper)
		}

		if prev, ok := seen[key]; ok && prev.String() != tup.String() {
			t.Fatalf("distinct tuples %s and %s collided on %q", prev, tup, key)
		}
		seen[key] = tup

		// Varying exactly one component must change the key.
		if DeriveKey(tup.identity+"x", tup.query, tup.filters) == key {
			t.Fatalf("identity change ignored for %s", tup)
		}
		if DeriveKey(tup.identity, tup.query+"x", tup.filters) == key {
			t.Fatalf("query change ignored for %s", tup)
		}
		for name := range tup.filters {
			changed := tup.filters.Clone()
			changed[name] += "x"
			if DeriveKey(tup.identity, tup.query, changed) == key {
				t.Fatalf("filter %s change ignored for %s", name, tup)
			}
		}
	}
}
