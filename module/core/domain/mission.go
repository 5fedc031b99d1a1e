package domain

import (
	"errors"
	"time"
)

var ErrInvalidMission = errors.New("invalid mission")

// SpeedSegment applies MaxSpeed (km/h) to route points StartIndex..EndIndex
// inclusive. Segments of a route are ordered by StartIndex.
type SpeedSegment struct {
	StartIndex int     `json:"start_index"`
	EndIndex   int     `json:"end_index"`
	MaxSpeed   float64 `json:"max_speed"`
	RoadName   *string `json:"road_name,omitempty"`
}

// Route is what the routing collaborator hands back for a mission.
type Route struct {
	Polyline      Polyline
	SpeedSegments []SpeedSegment
	Summary       string
}

type MissionStatus string

const (
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
)

type Mission struct {
	ID                  string
	VehicleID           string
	Route               Polyline
	SpeedSegments       []SpeedSegment
	CorridorWidthMeters float64
	MaxSpeedKmh         float64
	Destination         GeoPoint
	Status              MissionStatus
	CreatedAt           time.Time
	CompletedAt         *time.Time
}

func (m *Mission) Validate() error {
	if m.VehicleID == "" || len(m.Route) < 2 || m.CorridorWidthMeters <= 0 {
		return ErrInvalidMission
	}
	if m.Route.Valid() != nil || m.Destination.Valid() != nil {
		return ErrInvalidMission
	}
	for _, s := range m.SpeedSegments {
		if s.StartIndex < 0 || s.EndIndex < s.StartIndex || s.MaxSpeed <= 0 {
			return ErrInvalidMission
		}
	}
	return nil
}

type ViolationSource string

const (
	ViolationNone    ViolationSource = ""
	ViolationRoad    ViolationSource = "road"
	ViolationMission ViolationSource = "mission"
)

type ComplianceResult struct {
	IsDeviated              bool            `json:"is_deviated"`
	DeviationMeters         float64         `json:"deviation_meters"`
	CurrentSpeedLimit       float64         `json:"current_speed_limit"`
	CurrentRoadName         *string         `json:"current_road_name,omitempty"`
	IsSpeedViolation        bool            `json:"is_speed_violation"`
	ViolationSource         ViolationSource `json:"violation_source,omitempty"`
	RemainingDistanceMeters float64         `json:"remaining_distance_meters"`
	ETASeconds              float64         `json:"eta_seconds"`
	Arrived                 bool            `json:"arrived"`
}

// Banner is the single HUD state shown for a result, highest priority first.
type Banner string

const (
	BannerDeviated        Banner = "deviated"
	BannerRoadSpeeding    Banner = "road_speed_violation"
	BannerMissionSpeeding Banner = "mission_speed_violation"
	BannerCompliant       Banner = "compliant"
)

func (r ComplianceResult) Banner() Banner {
	switch {
	case r.IsDeviated:
		return BannerDeviated
	case r.ViolationSource == ViolationRoad:
		return BannerRoadSpeeding
	case r.ViolationSource == ViolationMission:
		return BannerMissionSpeeding
	default:
		return BannerCompliant
	}
}

type ComplianceEventType string

const (
	ComplianceViolation ComplianceEventType = "compliance_violation"
	ComplianceRestored  ComplianceEventType = "compliance_restored"
	MissionArrived      ComplianceEventType = "mission_arrived"
)

type ComplianceAlert struct {
	MissionID  string              `json:"mission_id"`
	VehicleID  string              `json:"vehicle_id"`
	Event      ComplianceEventType `json:"event"`
	Banner     Banner              `json:"banner"`
	Position   GeoPoint            `json:"position"`
	SpeedKmh   float64             `json:"speed_kmh"`
	SpeedLimit float64             `json:"speed_limit"`
	RoadName   *string             `json:"road_name,omitempty"`
	Timestamp  int64               `json:"timestamp"`
}
