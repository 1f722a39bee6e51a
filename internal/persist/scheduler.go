package persist

import (
	"context"
	"time"

	"github.com/tabfm/tabfm/internal/events"
	"github.com/tabfm/tabfm/internal/models"
)

// SnapshotFunc returns the state to persist.
type SnapshotFunc func() models.AppState

// Scheduler drives the persistence cycle. It subscribes to the event bus,
// marks the state dirty on every change, and saves on a fixed interval
// plus once at shutdown. Bursts of mutations between ticks coalesce into
// a single save.
type Scheduler struct {
	manager  *Manager
	snapshot SnapshotFunc
	bus      *events.Bus
	interval time.Duration
	logger   *events.Logger
}

// NewScheduler creates a persistence scheduler.
func NewScheduler(manager *Manager, snapshot SnapshotFunc, bus *events.Bus, interval time.Duration, logger *events.Logger) *Scheduler {
	return &Scheduler{
		manager:  manager,
		snapshot: snapshot,
		bus:      bus,
		interval: interval,
		logger:   logger.WithField("component", "persist_scheduler"),
	}
}

// Run loops until ctx is cancelled, then performs a final save if there
// are unsaved changes. A failed periodic save is logged and retried on
// the next tick; it never stops the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	sub := s.bus.Subscribe(events.DefaultSubscriberBuffer)
	defer sub.Close()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	dirty := false

	for {
		select {
		case <-ctx.Done():
			if dirty {
				if err := s.manager.Save(s.snapshot()); err != nil {
					s.logger.WithError(err).Error("Final save failed")
					return err
				}
			}
			return nil

		case _, ok := <-sub.C():
			if !ok {
				return nil
			}
			dirty = true

		case <-ticker.C:
			if !dirty {
				continue
			}
			if err := s.manager.Save(s.snapshot()); err != nil {
				// Recoverable: keep the dirty flag so the next tick retries.
				s.logger.WithError(err).Warn("Periodic save failed")
				continue
			}
			dirty = false
		}
	}
}
