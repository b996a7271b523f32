// FilePath: internal/models/models.sensorlog.go
package models

import (
	"bytes"
	"time"
)

// SensorLog is a single detection/clear observation. Rows are immutable
// once written; only the retention cleanup deletes them.
type SensorLog struct {
	ID        int64     `json:"id" db:"id"`
	SensorID  int64     `json:"sensor_id" db:"sensor_id"`
	Detected  bool      `json:"detected" db:"detected"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// SensorLogEntry is a log row joined with its sensor for list and export
// views. The sensor columns are pointers because the owning sensor may have
// been removed by an admin bulk operation.
type SensorLogEntry struct {
	ID         int64     `json:"id" db:"id"`
	Detected   bool      `json:"detected" db:"detected"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
	SensorCode *string   `json:"sensor_code" db:"sensor_code"`
	Location   *string   `json:"location" db:"location"`
}

// DetectionFlag coerces the loose representations devices send for the
// detected field. JSON 1 and true are detection; everything else, including
// an absent field, reads as clear. Decoding never fails on odd input.
type DetectionFlag bool

func (d *DetectionFlag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "1", "true":
		*d = true
	default:
		*d = false
	}
	return nil
}

// UpdateEvent is the payload broadcast to live stream subscribers after an
// observation has been durably recorded.
type UpdateEvent struct {
	Type      string    `json:"type"`
	Sensor    string    `json:"sensor"`
	Location  string    `json:"location"`
	Detected  bool      `json:"detected"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUpdateEvent builds the broadcast payload from a stored log row and its
// resolved sensor.
func NewUpdateEvent(sensor *Sensor, log *SensorLog) UpdateEvent {
	return UpdateEvent{
		Type:      "update",
		Sensor:    sensor.Code,
		Location:  sensor.Location,
		Detected:  log.Detected,
		Timestamp: log.Timestamp,
	}
}
