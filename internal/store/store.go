package store

import (
	"sync"
	"time"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

// Transform mutates a working copy of the state and describes the change.
// It must either return the event for the mutation or an error; on error
// the working copy is discarded and nothing is published.
type Transform func(*models.AppState) (models.StateChangeEvent, error)

// Store is the single source of truth for session state. All mutations
// funnel through Mutate, which serializes them; readers get consistent
// snapshots and never observe a partially-applied mutation.
type Store struct {
	mu    sync.RWMutex
	state models.AppState

	bus    *events.Bus
	logger *events.Logger
}

// New creates a store seeded with initial state.
func New(initial models.AppState, bus *events.Bus, logger *events.Logger) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, &models.OpError{Op: "store.new", Kind: models.KindInvariant, Err: err}
	}

	return &Store{
		state:  initial.Clone(),
		bus:    bus,
		logger: logger.WithField("component", "state_store"),
	}, nil
}

// Mutate applies fn to a working copy of the state. If fn succeeds and the
// result still satisfies the structural invariants, the copy becomes the
// current state and exactly one event is published; otherwise the prior
// state is retained untouched and the error is returned.
//
// Events are published while the write lock is held, so the order consumers
// see matches the order mutations were applied.
func (s *Store) Mutate(fn Transform) (models.AppState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()

	event, err := fn(&next)
	if err != nil {
		return s.state.Clone(), err
	}

	if err := next.Validate(); err != nil {
		s.logger.WithError(err).Warn("Mutation rejected")
		return s.state.Clone(), &models.OpError{Op: "store.mutate", Kind: models.KindInvariant, Err: err}
	}

	s.state = next

	event.Timestamp = time.Now().UTC()
	event.ActiveTabIndex = next.ActiveTabIndex
	s.bus.Publish(event)

	return next.Clone(), nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() models.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Read applies selector to the current state under the read lock, letting
// concurrent readers project cheap views without a deep copy. The selector
// must not mutate or retain mutable parts of the state.
func Read[T any](s *Store, selector func(models.AppState) T) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selector(s.state)
}
