package app

import (
	"context"
	"log/slog"
	"time"
)

// Purger removes expired entries from a key-value backend.
type Purger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// HousekeepingService periodically purges expired session entries so the
// backing table does not grow without bound.
type HousekeepingService struct {
	Purger   Purger
	Logger   *slog.Logger
	Interval time.Duration

	// OnPurge, when set, receives the number of entries removed per run.
	OnPurge func(n int64)

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a service with the given interval. A zero
// or negative interval means one hour.
func NewHousekeepingService(p Purger, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Purger:   p,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to end it.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress purge has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())
	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one purge.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	n, err := s.Purger.DeleteExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired session entries", "error", err)
		return
	}
	if s.OnPurge != nil {
		s.OnPurge(n)
	}
	s.Logger.Info("housekeeping cleanup completed", "deleted", n)
}
