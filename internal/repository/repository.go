// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/models"
)

// SensorRepository defines the interface for sensor identity operations.
// Create surfaces a conflict error when the sensor code already exists;
// callers racing on first contact fall back to a re-read.
type SensorRepository interface {
	database.Repository
	Create(ctx context.Context, sensor *models.Sensor) error
	Get(ctx context.Context, id int64) (*models.Sensor, error)
	GetByCode(ctx context.Context, code string) (*models.Sensor, error)
	Update(ctx context.Context, id int64, update models.SensorUpdate) (*models.Sensor, error)
	UpdateLastSeen(ctx context.Context, id int64, lastSeen time.Time) error
	List(ctx context.Context) ([]*models.Sensor, error)
	Count(ctx context.Context, onlyActive bool) (int64, error)
}

// SensorLogRepository defines the interface for observation rows.
type SensorLogRepository interface {
	database.Repository
	Insert(ctx context.Context, log *models.SensorLog) error
	ListRecent(ctx context.Context, limit int) ([]models.SensorLogEntry, error)
	ListDetectedSince(ctx context.Context, since time.Time) ([]models.SensorLog, error)
	LatestDetection(ctx context.Context) (*models.SensorLogEntry, error)
	CountDetected(ctx context.Context, since *time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepository defines the interface for account records.
type UserRepository interface {
	database.Repository
	Create(ctx context.Context, user *models.User) error
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdateLastLogin(ctx context.Context, id int64, lastLogin time.Time) error
	SetActive(ctx context.Context, id int64, active bool) error
	Count(ctx context.Context, onlyActive bool) (int64, error)
}
