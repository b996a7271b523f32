package hubservice

import (
	"context"

	"github.com/smartir/hub/internal/cleanup"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/repository"
	"github.com/smartir/hub/internal/stream"
)

// EventPublisher is the fan-out surface the hub needs: the in-process
// subscription registry satisfies it.
type EventPublisher interface {
	Broadcast(event interface{}) error
}

// RelayPublisher is the optional external event tap (Redis).
type RelayPublisher interface {
	Publish(ctx context.Context, event interface{})
}

// HubService contains all repositories and service-wide dependencies
type HubService struct {
	Sensors    repository.SensorRepository
	SensorLogs repository.SensorLogRepository
	Users      repository.UserRepository
	Registry   EventPublisher
	Relay      RelayPublisher
	Cleanup    *cleanup.CleanupService
}

// New creates a new HubService instance. relay may be nil.
func New(
	sensors repository.SensorRepository,
	sensorLogs repository.SensorLogRepository,
	users repository.UserRepository,
	registry EventPublisher,
	relay RelayPublisher,
) *HubService {
	svc := &HubService{
		Sensors:    sensors,
		SensorLogs: sensorLogs,
		Users:      users,
		Registry:   registry,
		Relay:      relay,
	}
	svc.Cleanup = cleanup.New(sensorLogs)
	return svc
}

// Validate checks if all required dependencies are initialized
func (s *HubService) Validate() error {
	if s.Sensors == nil {
		return errMissingDependency("sensors")
	}
	if s.SensorLogs == nil {
		return errMissingDependency("sensorLogs")
	}
	if s.Users == nil {
		return errMissingDependency("users")
	}
	if s.Registry == nil {
		return errMissingDependency("registry")
	}
	return nil
}

func errMissingDependency(name string) error {
	return errors.NewInternalError("missing dependency: "+name, nil)
}

var _ EventPublisher = (*stream.Registry)(nil)
var _ RelayPublisher = (*stream.RedisRelay)(nil)
