package monitoring

import (
	"time"

	nuts "github.com/vaudience/go-nuts"
)

// Service provides a lightweight event-recording hook. Events currently go
// to the log; exporters can be attached here without touching callers.
type Service struct{}

// NewService creates a new monitoring service
func NewService() *Service {
	return &Service{}
}

// RecordEvent records a monitored event with labels
func (s *Service) RecordEvent(eventName string, labels map[string]string) {
	nuts.L.Infof("[Monitoring] Event %s recorded at %v with labels: %v", eventName, time.Now(), labels)
}
