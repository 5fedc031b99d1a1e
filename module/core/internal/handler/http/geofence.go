package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/geoshape"
)

type geofenceService interface {
	Create(ctx context.Context, g *domain.Geofence) error
	Get(ctx context.Context, id string) (*domain.Geofence, error)
	List(ctx context.Context) ([]domain.Geofence, error)
	Replace(ctx context.Context, g *domain.Geofence) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

// geofenceRequest carries the shape as a GeoJSON feature; circles are a
// Point with a radius_meters property.
type geofenceRequest struct {
	Name         string          `json:"name" binding:"required"`
	Shape        json.RawMessage `json:"shape" binding:"required"`
	IsActive     *bool           `json:"is_active"`
	AlertOnEnter bool            `json:"alert_on_enter"`
	AlertOnExit  bool            `json:"alert_on_exit"`
}

type activeRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type GeofenceHandler struct {
	svc geofenceService
}

func NewGeofenceHandler(svc geofenceService) *GeofenceHandler {
	return &GeofenceHandler{svc: svc}
}

func (h *GeofenceHandler) Register(r *gin.RouterGroup) {
	r.GET("/geofences", h.List)
	r.POST("/geofences", h.Create)
	r.GET("/geofences/:id", h.Get)
	r.PUT("/geofences/:id", h.Replace)
	r.PATCH("/geofences/:id/active", h.SetActive)
	r.DELETE("/geofences/:id", h.Delete)
}

func (h *GeofenceHandler) List(c *gin.Context) {
	all, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch geofences"})
		return
	}

	fc := geojson.NewFeatureCollection()
	for i := range all {
		f, err := geoshape.GeofenceFeature(&all[i])
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode geofence"})
			return
		}
		fc.Append(f)
	}
	c.JSON(http.StatusOK, fc)
}

func (h *GeofenceHandler) Get(c *gin.Context) {
	g, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err, "failed to fetch geofence")
		return
	}
	h.respond(c, http.StatusOK, g)
}

func (h *GeofenceHandler) Create(c *gin.Context) {
	g, ok := bindGeofence(c)
	if !ok {
		return
	}
	if err := h.svc.Create(c.Request.Context(), g); err != nil {
		abortWithError(c, err, "failed to create geofence")
		return
	}
	h.respond(c, http.StatusCreated, g)
}

// Replace renames or redraws a geofence in full.
func (h *GeofenceHandler) Replace(c *gin.Context) {
	g, ok := bindGeofence(c)
	if !ok {
		return
	}
	g.ID = c.Param("id")
	if err := h.svc.Replace(c.Request.Context(), g); err != nil {
		abortWithError(c, err, "failed to update geofence")
		return
	}
	h.respond(c, http.StatusOK, g)
}

func (h *GeofenceHandler) SetActive(c *gin.Context) {
	var req activeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active is required"})
		return
	}
	if err := h.svc.SetActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		abortWithError(c, err, "failed to update geofence")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "active": *req.Active})
}

func (h *GeofenceHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err, "failed to delete geofence")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GeofenceHandler) respond(c *gin.Context, status int, g *domain.Geofence) {
	f, err := geoshape.GeofenceFeature(g)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode geofence"})
		return
	}
	c.JSON(status, f)
}

func bindGeofence(c *gin.Context) (*domain.Geofence, bool) {
	var req geofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}
	shape, err := geoshape.UnmarshalShape(req.Shape)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	g := &domain.Geofence{
		Name:         req.Name,
		Shape:        shape,
		IsActive:     true,
		AlertOnEnter: req.AlertOnEnter,
		AlertOnExit:  req.AlertOnExit,
	}
	if req.IsActive != nil {
		g.IsActive = *req.IsActive
	}
	return g, true
}
