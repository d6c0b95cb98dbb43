package session

import (
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testManager(t *testing.T) (*Manager, *fakeClock) {
	t.Helper()
	// Sweep interval is long enough that tests drive sweeps manually.
	m := NewManager(15*time.Minute, time.Hour)
	t.Cleanup(m.Close)
	clock := &fakeClock{now: time.Now()}
	m.now = clock.Now
	return m, clock
}

func TestGrantAndHas(t *testing.T) {
	m, _ := testManager(t)
	if m.Has("f1") {
		t.Error("should not have access before grant")
	}
	m.Grant("f1")
	if !m.Has("f1") {
		t.Error("should have access after grant")
	}
	if m.Has("f2") {
		t.Error("grant should be per folder")
	}
}

func TestGrantExpires(t *testing.T) {
	m, clock := testManager(t)
	m.Grant("f1")

	clock.Advance(15*time.Minute - time.Second)
	if !m.Has("f1") {
		t.Error("grant should still be valid just inside the window")
	}

	clock.Advance(2 * time.Second)
	if m.Has("f1") {
		t.Error("grant should expire after the window")
	}
}

func TestGrantAgainResetsWindow(t *testing.T) {
	m, clock := testManager(t)
	m.Grant("f1")
	clock.Advance(14 * time.Minute)
	m.Grant("f1")
	clock.Advance(14 * time.Minute)
	if !m.Has("f1") {
		t.Error("re-grant should reset the window")
	}
}

func TestRemaining(t *testing.T) {
	m, clock := testManager(t)
	if _, ok := m.Remaining("f1"); ok {
		t.Error("no grant should mean no remaining time")
	}

	m.Grant("f1")
	if mins, ok := m.Remaining("f1"); !ok || mins != 15 {
		t.Errorf("Remaining = %d,%v want 15,true", mins, ok)
	}

	// 30 seconds in, the ceiling still reads 15 minutes.
	clock.Advance(30 * time.Second)
	if mins, _ := m.Remaining("f1"); mins != 15 {
		t.Errorf("Remaining after 30s = %d, want 15", mins)
	}

	clock.Advance(10 * time.Minute)
	if mins, _ := m.Remaining("f1"); mins != 5 {
		t.Errorf("Remaining after 10m30s = %d, want 5", mins)
	}

	clock.Advance(5 * time.Minute)
	if _, ok := m.Remaining("f1"); ok {
		t.Error("expired grant should report no remaining time")
	}
}

func TestRevoke(t *testing.T) {
	m, _ := testManager(t)
	m.Grant("f1")
	m.Revoke("f1")
	if m.Has("f1") {
		t.Error("revoked grant should be gone")
	}
	// Revoking a missing grant is a no-op.
	m.Revoke("nope")
}

func TestRevokeAll(t *testing.T) {
	m, _ := testManager(t)
	m.Grant("f1")
	m.Grant("f2")
	m.RevokeAll()
	if m.Has("f1") || m.Has("f2") {
		t.Error("RevokeAll should clear every grant")
	}
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	m, clock := testManager(t)
	m.Grant("old")
	clock.Advance(10 * time.Minute)
	m.Grant("fresh")
	clock.Advance(6 * time.Minute) // old is 16m, fresh is 6m

	m.sweep()

	m.mu.Lock()
	_, oldKept := m.grants["old"]
	_, freshKept := m.grants["fresh"]
	m.mu.Unlock()

	if oldKept {
		t.Error("expired grant should be swept")
	}
	if !freshKept {
		t.Error("valid grant should survive the sweep")
	}
	if !m.Has("fresh") {
		t.Error("valid grant should still read as granted")
	}
}

func TestSweepMatchesHasAtBoundary(t *testing.T) {
	m, clock := testManager(t)
	m.Grant("edge")
	clock.Advance(15 * time.Minute) // exactly the window

	if m.Has("edge") {
		t.Error("grant at exactly the window should read expired")
	}
	m.sweep()
	m.mu.Lock()
	_, kept := m.grants["edge"]
	m.mu.Unlock()
	if kept {
		t.Error("sweep should remove a grant Has already reports expired")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	m := NewManager(time.Minute, time.Millisecond)
	m.Grant("f1")
	m.Close()
	m.Close()
	// Reads still work after Close.
	if !m.Has("f1") {
		t.Error("grants should remain readable after Close")
	}
}
