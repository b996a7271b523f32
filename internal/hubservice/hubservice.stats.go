// FilePath: internal/hubservice/hubservice.stats.go
package hubservice

import (
	"context"
	"fmt"
	"time"

	"github.com/smartir/hub/internal/models"
)

// DetectionStats is the dashboard summary block.
type DetectionStats struct {
	Today         int64      `json:"today"`
	Total         int64      `json:"total"`
	LastDetection *time.Time `json:"lastDetection"`
	LastSensor    *string    `json:"lastSensor"`
}

// HourlyActivity is a 24-bucket detection histogram for the current day.
type HourlyActivity struct {
	Hours      []string `json:"hours"`
	Detections []int    `json:"detections"`
}

// DashboardCounts aggregates entity counts for the admin dashboard.
type DashboardCounts struct {
	Users   EntityCount `json:"users"`
	Sensors EntityCount `json:"sensors"`
	Logs    int64       `json:"logs"`
}

type EntityCount struct {
	Total  int64 `json:"total"`
	Active int64 `json:"active"`
}

// Stats returns today's and all-time detection counts plus the most recent
// detection. "Today" starts at local midnight.
func (s *HubService) Stats(ctx context.Context) (*DetectionStats, error) {
	startOfDay := startOfToday()
	today, err := s.SensorLogs.CountDetected(ctx, &startOfDay)
	if err != nil {
		return nil, err
	}
	total, err := s.SensorLogs.CountDetected(ctx, nil)
	if err != nil {
		return nil, err
	}
	latest, err := s.SensorLogs.LatestDetection(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DetectionStats{Today: today, Total: total}
	if latest != nil {
		ts := latest.Timestamp
		stats.LastDetection = &ts
		stats.LastSensor = latest.SensorCode
	}
	return stats, nil
}

// Activity buckets today's detections by local hour.
func (s *HubService) Activity(ctx context.Context) (*HourlyActivity, error) {
	logs, err := s.SensorLogs.ListDetectedSince(ctx, startOfToday())
	if err != nil {
		return nil, err
	}

	detections := make([]int, 24)
	for _, log := range logs {
		detections[log.Timestamp.Local().Hour()]++
	}

	hours := make([]string, 24)
	for i := range hours {
		hours[i] = fmt.Sprintf("%02d:00", i)
	}
	return &HourlyActivity{Hours: hours, Detections: detections}, nil
}

// RecentLogs returns the newest log entries joined with sensor info.
func (s *HubService) RecentLogs(ctx context.Context, limit int) ([]models.SensorLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.SensorLogs.ListRecent(ctx, limit)
}

// Dashboard returns entity counts for the admin overview.
func (s *HubService) Dashboard(ctx context.Context) (*DashboardCounts, error) {
	usersTotal, err := s.Users.Count(ctx, false)
	if err != nil {
		return nil, err
	}
	usersActive, err := s.Users.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	sensorsTotal, err := s.Sensors.Count(ctx, false)
	if err != nil {
		return nil, err
	}
	sensorsActive, err := s.Sensors.Count(ctx, true)
	if err != nil {
		return nil, err
	}
	logs, err := s.SensorLogs.Count(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardCounts{
		Users:   EntityCount{Total: usersTotal, Active: usersActive},
		Sensors: EntityCount{Total: sensorsTotal, Active: sensorsActive},
		Logs:    logs,
	}, nil
}

func startOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
