// FilePath: internal/repository/postgres/postgres.sensor.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/smartir/hub/internal/database"
	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
)

type SensorRepo struct {
	baseRepo
}

func NewSensorRepository(db database.DB) (*SensorRepo, error) {
	repo := &SensorRepo{baseRepo: baseRepo{db: db}}
	err := repo.initSchema([]string{
		`CREATE TABLE IF NOT EXISTS sensors (
			id BIGSERIAL PRIMARY KEY,
			sensor_code VARCHAR(50) NOT NULL UNIQUE,
			location VARCHAR(100) NOT NULL DEFAULT '',
			status VARCHAR(10) NOT NULL DEFAULT 'active',
			last_seen TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *SensorRepo) Create(ctx context.Context, sensor *models.Sensor) error {
	query := `
		INSERT INTO sensors (sensor_code, location, status, last_seen, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		sensor.Code, sensor.Location, sensor.Status, sensor.LastSeen, sensor.CreatedAt,
	).Scan(&sensor.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError("sensor code already registered", err)
		}
		return errors.NewDatabaseError("failed to create sensor", err)
	}
	return nil
}

func (r *SensorRepo) Get(ctx context.Context, id int64) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT * FROM sensors WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, sensor, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor", err)
	}
	return sensor, nil
}

func (r *SensorRepo) GetByCode(ctx context.Context, code string) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `SELECT * FROM sensors WHERE sensor_code = $1`

	err := r.db.GetDB().GetContext(ctx, sensor, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get sensor", err)
	}
	return sensor, nil
}

func (r *SensorRepo) Update(ctx context.Context, id int64, update models.SensorUpdate) (*models.Sensor, error) {
	sensor := &models.Sensor{}
	query := `
		UPDATE sensors SET
			location = COALESCE($1, location),
			status = COALESCE($2, status)
		WHERE id = $3
		RETURNING *`

	err := r.db.GetDB().QueryRowxContext(ctx, query, update.Location, update.Status, id).StructScan(sensor)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("sensor not found", err)
		}
		return nil, errors.NewDatabaseError("failed to update sensor", err)
	}
	return sensor, nil
}

func (r *SensorRepo) UpdateLastSeen(ctx context.Context, id int64, lastSeen time.Time) error {
	query := `UPDATE sensors SET last_seen = $1 WHERE id = $2`

	result, err := r.db.GetDB().ExecContext(ctx, query, lastSeen, id)
	if err != nil {
		return errors.NewDatabaseError("failed to update last seen", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.NewDatabaseError("failed to get rows affected", err)
	}

	if rows == 0 {
		return errors.NewNotFoundError("sensor not found", nil)
	}

	return nil
}

func (r *SensorRepo) List(ctx context.Context) ([]*models.Sensor, error) {
	sensors := []*models.Sensor{}
	query := `SELECT * FROM sensors ORDER BY created_at DESC`

	err := r.db.GetDB().SelectContext(ctx, &sensors, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list sensors", err)
	}

	return sensors, nil
}

func (r *SensorRepo) Count(ctx context.Context, onlyActive bool) (int64, error) {
	count := int64(0)
	query := `SELECT COUNT(*) FROM sensors`
	if onlyActive {
		query += ` WHERE status = 'active'`
	}

	err := r.db.GetDB().GetContext(ctx, &count, query)
	if err != nil {
		return 0, errors.NewDatabaseError("failed to count sensors", err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a postgres unique constraint
// violation (class 23505). The losing side of a concurrent first-contact
// registration sees this and re-reads instead of failing.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
