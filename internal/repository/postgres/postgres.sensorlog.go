// FilePath: internal/repository/postgres/postgres.sensorlog.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type SensorLogRepo struct {
	baseRepo
}

// NewSensorLogRepository requires the sensors table to exist already, so
// construct the sensor repository first.
func NewSensorLogRepository(db database.DB) (*SensorLogRepo, error) {
	repo := &SensorLogRepo{baseRepo: baseRepo{db: db}}
	err := repo.initSchema([]string{
		`CREATE TABLE IF NOT EXISTS sensor_logs (
			id BIGSERIAL PRIMARY KEY,
			sensor_id BIGINT NOT NULL REFERENCES sensors(id),
			detected BOOLEAN NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_logs_timestamp
			ON sensor_logs(timestamp DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_logs_sensor
			ON sensor_logs(sensor_id)`,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SensorLogRepo) Insert(ctx context.Context, log *models.SensorLog) error {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now().UTC()
	}
	query := `
		INSERT INTO sensor_logs (sensor_id, detected, timestamp)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		log.SensorID, log.Detected, log.Timestamp,
	).Scan(&log.ID)
	if err != nil {
		return errors.NewDatabaseError("failed to insert sensor log", err)
	}
	return nil
}

func (r *SensorLogRepo) ListRecent(ctx context.Context, limit int) ([]models.SensorLogEntry, error) {
	entries := []models.SensorLogEntry{}
	query := `
		SELECT l.id, l.detected, l.timestamp, s.sensor_code, s.location
		FROM sensor_logs l
		LEFT JOIN sensors s ON s.id = l.sensor_id
		ORDER BY l.timestamp DESC
		LIMIT $1`

	err := r.db.GetDB().SelectContext(ctx, &entries, query, limit)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensor logs", err)
	}
	return entries, nil
}

func (r *SensorLogRepo) ListDetectedSince(ctx context.Context, since time.Time) ([]models.SensorLog, error) {
	logs := []models.SensorLog{}
	query := `
		SELECT * FROM sensor_logs
		WHERE detected = TRUE AND timestamp >= $1
		ORDER BY timestamp ASC`

	err := r.db.GetDB().SelectContext(ctx, &logs, query, since)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list detections", err)
	}
	return logs, nil
}

func (r *SensorLogRepo) LatestDetection(ctx context.Context) (*models.SensorLogEntry, error) {
	entry := &models.SensorLogEntry{}
	query := `
		SELECT l.id, l.detected, l.timestamp, s.sensor_code, s.location
		FROM sensor_logs l
		LEFT JOIN sensors s ON s.id = l.sensor_id
		WHERE l.detected = TRUE
		ORDER BY l.timestamp DESC
		LIMIT 1`

	err := r.db.GetDB().GetContext(ctx, entry, query)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("failed to get latest detection", err)
	}
	return entry, nil
}

func (r *SensorLogRepo) CountDetected(ctx context.Context, since *time.Time) (int64, error) {
	count := int64(0)
	var err error
	if since != nil {
		query := `SELECT COUNT(*) FROM sensor_logs WHERE detected = TRUE AND timestamp >= $1`
		err = r.db.GetDB().GetContext(ctx, &count, query, *since)
	} else {
		query := `SELECT COUNT(*) FROM sensor_logs WHERE detected = TRUE`
		err = r.db.GetDB().GetContext(ctx, &count, query)
	}
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count detections", err)
	}
	return count, nil
}

func (r *SensorLogRepo) Count(ctx context.Context) (int64, error) {
	count := int64(0)
	query := `SELECT COUNT(*) FROM sensor_logs`

	err := r.db.GetDB().GetContext(ctx, &count, query)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count sensor logs", err)
	}
	return count, nil
}

func (r *SensorLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM sensor_logs WHERE timestamp < $1`

	result, err := r.db.GetDB().ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to delete old sensor logs", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewDatabaseError("failed to get rows affected", err)
	}

	nuts.L.Infof("[SensorLogRepo] Deleted %d sensor logs older than %v", rows, cutoff)
	return rows, nil
}
