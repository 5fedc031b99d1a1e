package domain

import "time"

type Vehicle struct {
	VehicleID string `json:"vehicle_id"`
}

type HistoryQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
}
