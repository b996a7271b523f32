// FilePath: internal/hubservice/hubservice.ingest.go
package hubservice

import (
	"context"
	"strings"
	"time"

	"github.com/smartir/hub/internal/errors"
	"github.com/smartir/hub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// RecordDetection runs the ingestion flow for one device report: validate,
// resolve or auto-register the sensor, append the observation, then notify
// live subscribers. The broadcast is issued only after the append commits,
// so a live viewer never sees an event that is not durably recorded. A
// failed broadcast is logged and does not fail the ingestion.
func (s *HubService) RecordDetection(ctx context.Context, sensorCode string, detected bool) (*models.SensorLog, *models.Sensor, error) {
	sensorCode = strings.TrimSpace(sensorCode)
	if sensorCode == "" {
		return nil, nil, errors.NewValidationError("sensor_id required", nil)
	}

	sensor, err := s.ResolveOrRegisterSensor(ctx, sensorCode)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.Sensors.UpdateLastSeen(ctx, sensor.ID, now); err != nil {
		nuts.L.Warnf("[Hub] Failed to update last seen for sensor %s: %v", sensor.Code, err)
	} else {
		sensor.LastSeen = &now
	}

	log := &models.SensorLog{
		SensorID:  sensor.ID,
		Detected:  detected,
		Timestamp: now,
	}
	if err := s.SensorLogs.Insert(ctx, log); err != nil {
		// Observation not recorded; the device should retry. No
		// broadcast may happen past this point.
		return nil, nil, err
	}

	event := models.NewUpdateEvent(sensor, log)
	if err := s.Registry.Broadcast(event); err != nil {
		nuts.L.Errorf("[Hub] Broadcast failed for log %d: %v", log.ID, err)
	}
	if s.Relay != nil {
		s.Relay.Publish(ctx, event)
	}

	return log, sensor, nil
}

// ResolveOrRegisterSensor looks a sensor up by its external code, creating
// it on first contact. Two requests racing on the same unseen code are
// settled by the store's uniqueness constraint: the loser re-reads instead
// of erroring, so at most one row exists per code.
func (s *HubService) ResolveOrRegisterSensor(ctx context.Context, code string) (*models.Sensor, error) {
	sensor, err := s.Sensors.GetByCode(ctx, code)
	if err == nil {
		return sensor, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	sensor = models.NewAutoRegisteredSensor(code)
	createErr := s.Sensors.Create(ctx, sensor)
	if createErr == nil {
		nuts.L.Infof("[Hub] New sensor registered: %s", code)
		return sensor, nil
	}
	if errors.IsConflict(createErr) {
		// Lost the creation race; the row exists now.
		return s.Sensors.GetByCode(ctx, code)
	}
	return nil, createErr
}

// UpdateSensor applies an admin edit to location and/or status.
func (s *HubService) UpdateSensor(ctx context.Context, id int64, update models.SensorUpdate) (*models.Sensor, error) {
	if update.Status != nil {
		switch *update.Status {
		case models.SensorActive, models.SensorInactive:
		default:
			return nil, errors.NewValidationError("status must be active or inactive", nil)
		}
	}
	return s.Sensors.Update(ctx, id, update)
}
