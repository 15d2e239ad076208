package cache

import (
	"testing"
	"time"
)

func TestIsFreshBoundary(t *testing.T) {
	storedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ttl := 5 * time.Minute

	if !IsFresh(storedAt, ttl, storedAt.Add(299*time.Second)) {
		t.Error("expected fresh at T+299s")
	}
	if IsFresh(storedAt, ttl, storedAt.Add(301*time.Second)) {
		t.Error("expected stale at T+301s")
	}
	if IsFresh(storedAt, ttl, storedAt.Add(ttl)) {
		t.Error("expected stale exactly at the ttl")
	}
}

func TestIsFreshTTLsAreIndependent(t *testing.T) {
	storedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	now := storedAt.Add(time.Hour)

	if IsFresh(storedAt, 5*time.Minute, now) {
		t.Error("an hour old session view should be stale")
	}
	if !IsFresh(storedAt, 24*time.Hour, now) {
		t.Error("an hour old recommendation should be fresh")
	}
}
