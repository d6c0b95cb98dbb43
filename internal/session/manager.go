// Package session tracks temporary unlock grants for password-protected
// folders. Grants live only in memory, expire after a fixed window, and are
// scoped to the current identity.
package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Manager maps folder ids to grant timestamps. A grant is valid while
// now - grantedAt < window. Expired entries are ignored by reads (lazy
// expiry) and physically removed by a periodic sweep so the map cannot
// grow without bound over a long session.
type Manager struct {
	window     time.Duration
	sweepEvery time.Duration
	now        func() time.Time

	mu     sync.Mutex
	grants map[string]time.Time

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewManager creates a manager and starts its background sweep.
func NewManager(window, sweepEvery time.Duration) *Manager {
	m := &Manager{
		window:     window,
		sweepEvery: sweepEvery,
		now:        time.Now,
		grants:     make(map[string]time.Time),
		stopCh:     make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Manager) run() {
	defer close(m.stopped)
	ticker := time.NewTicker(m.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

// sweep removes expired grants using one consistent "now" snapshot and the
// same expiry predicate as Has, so a grant that still reads as valid is
// never evicted.
func (m *Manager) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, grantedAt := range m.grants {
		if now.Sub(grantedAt) >= m.window {
			delete(m.grants, id)
		}
	}
}

// Grant records access for folderID as of now. Granting again resets the
// window.
func (m *Manager) Grant(folderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants[folderID] = m.now()
}

// Has reports whether folderID currently has a valid grant. Pure read:
// expired entries are left for the sweep.
func (m *Manager) Has(folderID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	grantedAt, ok := m.grants[folderID]
	if !ok {
		return false
	}
	return m.now().Sub(grantedAt) < m.window
}

// Remaining returns the whole minutes left on the grant (ceiling). The
// second result is false when no valid grant exists.
func (m *Manager) Remaining(folderID string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grantedAt, ok := m.grants[folderID]
	if !ok {
		return 0, false
	}
	left := m.window - m.now().Sub(grantedAt)
	if left <= 0 {
		return 0, false
	}
	mins := int((left + time.Minute - 1) / time.Minute)
	return mins, true
}

// Revoke removes any grant for folderID, valid or not.
func (m *Manager) Revoke(folderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.grants, folderID)
}

// RevokeAll clears every grant. Called on identity change and sign-out.
func (m *Manager) RevokeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants = make(map[string]time.Time)
}

// Close stops the background sweep. Grants remain readable but no further
// housekeeping runs.
func (m *Manager) Close() {
	if m.closed.CompareAndSwap(false, true) {
		close(m.stopCh)
	}
	<-m.stopped
}
