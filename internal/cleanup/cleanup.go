package cleanup

import (
	"context"
	"time"

	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/repository"
	nuts "github.com/vaudience/go-nuts"
)

// CleanupService handles age-based retention of observation rows.
type CleanupService struct {
	sensorLogs repository.SensorLogRepository
	events     *nuts.EventEmitter
}

// New creates a new CleanupService
func New(sensorLogs repository.SensorLogRepository) *CleanupService {
	return &CleanupService{
		sensorLogs: sensorLogs,
		events:     nuts.NewEventEmitter(),
	}
}

// PurgeOldLogs deletes all observations older than the given number of
// days and returns how many were removed. The operation is idempotent:
// running it twice with the same age deletes nothing the second time.
func (s *CleanupService) PurgeOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, errors.NewValidationError("days must be a positive number", nil)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	deleted, err := s.sensorLogs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	s.events.Emit("logs.purged", deleted)
	return deleted, nil
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(deleted int64)) {
	s.events.On(event, "cleanup_handler", func(deleted int64) {
		handler(deleted)
	})
}
