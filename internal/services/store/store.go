// Package store holds the published aggregate snapshot and broadcasts every
// change to subscribers.
package store

import (
	"sync"
	"time"

	"github.com/j-veylop/wearmon/internal/models"
)

// Subscription receives snapshots. The channel holds at most one pending
// snapshot; a slow reader skips intermediate versions but always ends up with
// the latest one.
type Subscription struct {
	ch chan models.AggregateSnapshot
}

// C returns the snapshot channel. It is closed on Unsubscribe or Close.
func (s *Subscription) C() <-chan models.AggregateSnapshot {
	return s.ch
}

// Store is the single merge point for proposed updates.
type Store struct {
	mu          sync.Mutex
	current     models.AggregateSnapshot
	subscribers []*Subscription
	now         func() time.Time
	closed      bool
}

// New creates a store holding an empty snapshot.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates a store that stamps snapshots using now.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		current: models.AggregateSnapshot{UpdatedAt: now()},
		now:     now,
	}
}

// Current returns the latest snapshot.
func (s *Store) Current() models.AggregateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Update replaces the snapshot with transform(current) and publishes it.
// transform must be a pure function of its argument; it runs under the store
// lock and must not block.
func (s *Store) Update(transform func(prev models.AggregateSnapshot) models.AggregateSnapshot) models.AggregateSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.current
	}

	next := transform(s.current)
	next.Version = s.current.Version + 1
	next.UpdatedAt = s.now()
	s.current = next

	for _, sub := range s.subscribers {
		offer(sub.ch, next)
	}
	return next
}

// Apply merges a patch into the current snapshot. An empty patch publishes
// nothing.
func (s *Store) Apply(patch models.SnapshotPatch) models.AggregateSnapshot {
	if patch.IsEmpty() {
		return s.Current()
	}
	return s.Update(patch.Apply)
}

// Subscribe registers a subscriber. The latest snapshot is already waiting on
// the returned channel.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan models.AggregateSnapshot, 1)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(sub.ch)
		return sub
	}

	sub.ch <- s.current
	s.subscribers = append(s.subscribers, sub)
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.subscribers {
		if existing == sub {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(sub.ch)
			return
		}
	}
}

// Close closes every subscriber channel. Later updates are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subscribers {
		close(sub.ch)
	}
	s.subscribers = nil
}

// offer replaces any pending snapshot with snap. Callers hold the store lock,
// so no other sender can refill the slot in between.
func offer(ch chan models.AggregateSnapshot, snap models.AggregateSnapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
