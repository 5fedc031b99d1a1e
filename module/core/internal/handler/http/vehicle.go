package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

type locationService interface {
	GetLatest(ctx context.Context, vehicleID string) (*domain.VehicleSample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehicleSample, error)
	GetAllVehicles(ctx context.Context) ([]domain.Vehicle, error)
	GetStatus(ctx context.Context, vehicleID string) (*domain.VehicleStatus, error)
}

type locationResponse struct {
	VehicleID string  `json:"vehicle_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
	Ignition  *bool   `json:"ignition,omitempty"`
	Blocked   *bool   `json:"blocked,omitempty"`
	AlarmCode *string `json:"alarm_code,omitempty"`
	Offline   bool    `json:"offline,omitempty"`
}

type statusResponse struct {
	VehicleID string           `json:"vehicle_id"`
	Status    domain.Status    `json:"status"`
	Location  locationResponse `json:"location"`
}

type VehicleHandler struct {
	locationSvc locationService
}

func NewVehicleHandler(locationSvc locationService) *VehicleHandler {
	return &VehicleHandler{locationSvc: locationSvc}
}

func (h *VehicleHandler) Register(r *gin.RouterGroup) {
	r.GET("/vehicles", h.GetAllVehicles)
	r.GET("/vehicles/:vehicle_id/location", h.GetLatestLocation)
	r.GET("/vehicles/:vehicle_id/history", h.GetHistory)
	r.GET("/vehicles/:vehicle_id/status", h.GetStatus)
}

func (h *VehicleHandler) GetAllVehicles(c *gin.Context) {
	vehicles, err := h.locationSvc.GetAllVehicles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch vehicles"})
		return
	}

	c.JSON(http.StatusOK, vehicles)
}

func (h *VehicleHandler) GetLatestLocation(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	s, err := h.locationSvc.GetLatest(c.Request.Context(), vehicleID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(s))
}

func (h *VehicleHandler) GetHistory(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		VehicleID: vehicleID,
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	}

	samples, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(samples))
	for i := range samples {
		results[i] = toLocationResponse(&samples[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *VehicleHandler) GetStatus(c *gin.Context) {
	st, err := h.locationSvc.GetStatus(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		abortWithError(c, err, "failed to classify vehicle")
		return
	}

	c.JSON(http.StatusOK, statusResponse{
		VehicleID: st.VehicleID,
		Status:    st.Status,
		Location:  toLocationResponse(&st.Sample),
	})
}

func toLocationResponse(s *domain.VehicleSample) locationResponse {
	return locationResponse{
		VehicleID: s.VehicleID,
		Latitude:  s.Position.Lat,
		Longitude: s.Position.Lng,
		Speed:     s.SpeedKmh,
		Timestamp: s.Timestamp.Unix(),
		Ignition:  s.IgnitionOn,
		Blocked:   s.Blocked,
		AlarmCode: s.AlarmCode,
		Offline:   s.FeedOffline,
	}
}
