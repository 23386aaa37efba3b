package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/JorgeIteq1000/turma-digital/internal/course/store"
)

// NotificationRetention is how long stored notices are kept before the
// housekeeping sweep removes them.
const NotificationRetention = 90 * 24 * time.Hour

// HousekeepingService periodically deletes expired sessions and old
// notifications so the tables don't grow without bound.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates the service. If interval is 0 or negative,
// defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep once on startup.
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

// cleanup deletes expired records. Each deletion is independent, a failure
// in one doesn't stop the others.
func (s *HousekeepingService) cleanup() {
	ctx := context.Background()

	if err := s.Store.Sessions().DeleteExpiredSessions(ctx); err != nil {
		s.Logger.Error("failed to delete expired sessions", "error", err)
	} else {
		s.Logger.Debug("deleted expired sessions")
	}

	cutoff := time.Now().UTC().Add(-NotificationRetention)
	if err := s.Store.Notifications().DeleteNotificationsBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to delete old notifications", "error", err)
	} else {
		s.Logger.Debug("deleted old notifications", "cutoff", cutoff)
	}
}
