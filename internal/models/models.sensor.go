// FilePath: internal/models/models.sensor.go
package models

import "time"

type SensorStatus string

const (
	SensorActive   SensorStatus = "active"
	SensorInactive SensorStatus = "inactive"
)

// AutoRegisteredLocation is the placeholder location assigned to sensors
// created on first contact, before an admin labels them.
const AutoRegisteredLocation = "Auto-Registered Device"

// Sensor is a registered detection device. Devices identify themselves by
// Code; the numeric ID is internal and assigned at creation.
type Sensor struct {
	ID        int64        `json:"id" db:"id"`
	Code      string       `json:"sensor_code" db:"sensor_code"`
	Location  string       `json:"location" db:"location"`
	Status    SensorStatus `json:"status" db:"status"`
	LastSeen  *time.Time   `json:"last_seen" db:"last_seen"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// NewAutoRegisteredSensor returns the sensor record created when an unknown
// device code first reports data.
func NewAutoRegisteredSensor(code string) *Sensor {
	return &Sensor{
		Code:      code,
		Location:  AutoRegisteredLocation,
		Status:    SensorActive,
		CreatedAt: time.Now().UTC(),
	}
}

// SensorUpdate carries the admin-editable sensor fields. Nil means "leave
// unchanged".
type SensorUpdate struct {
	Location *string       `json:"location"`
	Status   *SensorStatus `json:"status"`
}
