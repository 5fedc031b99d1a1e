package domain

import "time"

// VehicleSample is one position report from the feed. It is never mutated
// after decoding.
type VehicleSample struct {
	VehicleID   string    `json:"vehicle_id"`
	Position    GeoPoint  `json:"position"`
	SpeedKmh    float64   `json:"speed_kmh"`
	Timestamp   time.Time `json:"timestamp"`
	IgnitionOn  *bool     `json:"ignition_on,omitempty"`
	Blocked     *bool     `json:"blocked,omitempty"`
	AlarmCode   *string   `json:"alarm_code,omitempty"`
	FeedOffline bool      `json:"feed_offline,omitempty"`
}

func (s VehicleSample) IgnitionOff() bool {
	return s.IgnitionOn != nil && !*s.IgnitionOn
}

func (s VehicleSample) IsBlocked() bool {
	return s.Blocked != nil && *s.Blocked
}

func (s VehicleSample) HasAlarm() bool {
	return s.AlarmCode != nil && *s.AlarmCode != ""
}

type Status string

const (
	StatusAlert   Status = "alert"
	StatusOffline Status = "offline"
	StatusIdle    Status = "idle"
	StatusMoving  Status = "moving"
)

type VehicleStatus struct {
	VehicleID string        `json:"vehicle_id"`
	Status    Status        `json:"status"`
	Sample    VehicleSample `json:"sample"`
}
