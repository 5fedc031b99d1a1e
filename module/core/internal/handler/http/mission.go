package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/geoshape"
	"github.com/nandanugg/fleet-navigator/module/core/service"
)

type missionService interface {
	Create(ctx context.Context, in *service.CreateMissionInput) (*domain.Mission, error)
	Get(ctx context.Context, id string) (*domain.Mission, error)
	Compliance(ctx context.Context, id string) (*domain.ComplianceResult, error)
}

type createMissionRequest struct {
	VehicleID           string                `json:"vehicle_id" binding:"required"`
	Origin              *domain.GeoPoint      `json:"origin"`
	Destination         *domain.GeoPoint      `json:"destination"`
	Route               []domain.GeoPoint     `json:"route"`
	SpeedSegments       []domain.SpeedSegment `json:"speed_segments"`
	CorridorWidthMeters float64               `json:"corridor_width_meters"`
	MaxSpeedKmh         *float64              `json:"max_speed_kmh"`
}

type missionResponse struct {
	ID                  string                `json:"id"`
	VehicleID           string                `json:"vehicle_id"`
	Route               []domain.GeoPoint     `json:"route"`
	SpeedSegments       []domain.SpeedSegment `json:"speed_segments"`
	CorridorWidthMeters float64               `json:"corridor_width_meters"`
	MaxSpeedKmh         float64               `json:"max_speed_kmh,omitempty"`
	Destination         domain.GeoPoint       `json:"destination"`
	Status              domain.MissionStatus  `json:"status"`
	CreatedAt           int64                 `json:"created_at"`
	CompletedAt         *int64                `json:"completed_at,omitempty"`
}

type complianceResponse struct {
	MissionID string `json:"mission_id"`
	domain.ComplianceResult
	Banner domain.Banner `json:"banner"`
}

type MissionHandler struct {
	svc missionService
}

func NewMissionHandler(svc missionService) *MissionHandler {
	return &MissionHandler{svc: svc}
}

func (h *MissionHandler) Register(r *gin.RouterGroup) {
	r.POST("/missions", h.Create)
	r.GET("/missions/:id", h.Get)
	r.GET("/missions/:id/route", h.GetRoute)
	r.GET("/missions/:id/compliance", h.GetCompliance)
}

func (h *MissionHandler) Create(c *gin.Context) {
	var req createMissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id is required"})
		return
	}

	m, err := h.svc.Create(c.Request.Context(), &service.CreateMissionInput{
		VehicleID:           req.VehicleID,
		Origin:              req.Origin,
		Destination:         req.Destination,
		Route:               req.Route,
		SpeedSegments:       req.SpeedSegments,
		CorridorWidthMeters: req.CorridorWidthMeters,
		MaxSpeedKmh:         req.MaxSpeedKmh,
	})
	if err != nil {
		abortWithError(c, err, "failed to create mission")
		return
	}
	c.JSON(http.StatusCreated, toMissionResponse(m))
}

func (h *MissionHandler) Get(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err, "failed to fetch mission")
		return
	}
	c.JSON(http.StatusOK, toMissionResponse(m))
}

// GetRoute serves the mission as a GeoJSON FeatureCollection for map display.
func (h *MissionHandler) GetRoute(c *gin.Context) {
	m, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err, "failed to fetch mission")
		return
	}
	c.JSON(http.StatusOK, geoshape.RouteFeatureCollection(m))
}

func (h *MissionHandler) GetCompliance(c *gin.Context) {
	id := c.Param("id")
	result, err := h.svc.Compliance(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err, "failed to evaluate mission")
		return
	}
	c.JSON(http.StatusOK, complianceResponse{
		MissionID:        id,
		ComplianceResult: *result,
		Banner:           result.Banner(),
	})
}

func toMissionResponse(m *domain.Mission) missionResponse {
	resp := missionResponse{
		ID:                  m.ID,
		VehicleID:           m.VehicleID,
		Route:               m.Route,
		SpeedSegments:       m.SpeedSegments,
		CorridorWidthMeters: m.CorridorWidthMeters,
		MaxSpeedKmh:         m.MaxSpeedKmh,
		Destination:         m.Destination,
		Status:              m.Status,
		CreatedAt:           m.CreatedAt.Unix(),
	}
	if m.CompletedAt != nil {
		resp.CompletedAt = unixPtr(*m.CompletedAt)
	}
	return resp
}

func unixPtr(t time.Time) *int64 {
	u := t.Unix()
	return &u
}
