// internal/store/memory.go
//
// In-memory implementation of the session Store interface.
// Active Mastermind sessions live here for the duration of play; finished
// results are persisted elsewhere (puzzles, daily).
//
// Characteristics:
//   - Stores *mastermind.Session values keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Update runs a mutation under the write lock, so guesses against one
//     session are applied one at a time and never interleave.
//   - Get returns a deep copy; callers cannot observe or cause partial updates.
//   - State is lost when the process restarts; idle sessions are swept.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mindmatch/internal/mastermind"
)

// ErrNotFound is returned for unknown or expired session IDs.
var ErrNotFound = errors.New("session not found")

// Meta is bookkeeping stored next to a session.
type Meta struct {
	PuzzleID  string // library puzzle the session was started from, if any
	Owner     string // user ID or anonymous ID
	Anonymous bool   // Owner is a guest ID rather than a user ID
	Daily     string // date key when this is a daily challenge session
	Replay    bool   // reset at least once; not ranked or counted
	Started   time.Time
}

// Store defines the persistence interface for game sessions.
type Store interface {
	// Save persists or replaces a session.
	Save(ctx context.Context, s *mastermind.Session, meta Meta) error

	// Get returns a copy of the session and its metadata.
	Get(ctx context.Context, id string) (*mastermind.Session, Meta, error)

	// Update applies fn to the stored session and its metadata under an
	// exclusive lock. If fn returns an error both are left as they were.
	Update(ctx context.Context, id string, fn func(s *mastermind.Session, m *Meta) error) (*mastermind.Session, Meta, error)

	// Delete removes a session; unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

type entry struct {
	sess    *mastermind.Session
	meta    Meta
	touched time.Time
}

// Memory is an in-memory map-based Store implementation.
type Memory struct {
	mu       sync.RWMutex      // guards sessions
	sessions map[string]*entry // keyed by Session.ID
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*entry), now: time.Now}
}

// Save adds or replaces the session in the map.
func (m *Memory) Save(ctx context.Context, s *mastermind.Session, meta Meta) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if meta.Started.IsZero() {
		meta.Started = m.now()
	}
	m.sessions[s.ID] = &entry{sess: s.Clone(), meta: meta, touched: m.now()}
	return nil
}

// Get looks up a session by ID.
func (m *Memory) Get(ctx context.Context, id string) (*mastermind.Session, Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.sessions[id]; ok {
		return e.sess.Clone(), e.meta, nil
	}
	return nil, Meta{}, ErrNotFound
}

// Update mutates a working copy and commits it only when fn succeeds.
func (m *Memory) Update(ctx context.Context, id string, fn func(s *mastermind.Session, m *Meta) error) (*mastermind.Session, Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, Meta{}, ErrNotFound
	}
	work, meta := e.sess.Clone(), e.meta
	if err := fn(work, &meta); err != nil {
		return e.sess.Clone(), e.meta, err
	}
	e.sess, e.meta = work, meta
	e.touched = m.now()
	return work.Clone(), meta, nil
}

// Delete removes a session.
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than maxAge and returns how many went.
func (m *Memory) Sweep(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.sessions {
		if e.touched.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is cancelled.
func (m *Memory) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(maxAge); n > 0 {
				log.Info().Int("removed", n).Dur("maxAge", maxAge).Msg("swept idle sessions")
			}
		}
	}
}
