package http

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/drawing"
	"github.com/nandanugg/fleet-navigator/module/core/internal/geoshape"
)

type geofenceCreator interface {
	Create(ctx context.Context, g *domain.Geofence) error
}

// drawSession is one operator's engine plus the metadata the finished
// geofence will carry. The engine is not thread-safe, hence mu.
type drawSession struct {
	mu       sync.Mutex
	engine   *drawing.Engine
	template domain.Geofence
	meters   bool
}

type startRequest struct {
	Mode          drawing.Mode `json:"mode" binding:"required"`
	Name          string       `json:"name" binding:"required"`
	AlertOnEnter  bool         `json:"alert_on_enter"`
	AlertOnExit   bool         `json:"alert_on_exit"`
	Zoom          float64      `json:"zoom"`
	ClosureMeters float64      `json:"closure_meters"`
}

type eventRequest struct {
	Kind drawing.EventKind `json:"kind" binding:"required"`
	Lat  float64           `json:"lat"`
	Lng  float64           `json:"lng"`
	Zoom float64           `json:"zoom"`
}

type previewResponse struct {
	Mode         drawing.Mode      `json:"mode"`
	Points       []domain.GeoPoint `json:"points,omitempty"`
	Center       *domain.GeoPoint  `json:"center,omitempty"`
	RadiusMeters float64           `json:"radius_meters,omitempty"`
}

type stepResponse struct {
	Accepted  bool             `json:"accepted"`
	Discarded bool             `json:"discarded,omitempty"`
	Preview   previewResponse  `json:"preview"`
	Geofence  *geojson.Feature `json:"geofence,omitempty"`
}

// DrawingHandler exposes one drawing engine per operator. A completed shape
// is saved as a geofence straight away.
type DrawingHandler struct {
	geofences geofenceCreator

	mu       sync.Mutex
	sessions map[string]*drawSession
}

func NewDrawingHandler(geofences geofenceCreator) *DrawingHandler {
	return &DrawingHandler{geofences: geofences, sessions: make(map[string]*drawSession)}
}

func (h *DrawingHandler) Register(r *gin.RouterGroup) {
	r.POST("/draw/:operator_id/start", h.Start)
	r.POST("/draw/:operator_id/events", h.Event)
	r.GET("/draw/:operator_id", h.Preview)
	r.DELETE("/draw/:operator_id", h.Cancel)
}

func (h *DrawingHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode and name are required"})
		return
	}
	if req.Mode != drawing.ModePolygon && req.Mode != drawing.ModeCircle {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be polygon or circle"})
		return
	}

	s := h.session(c.Param("operator_id"))
	s.mu.Lock()
	defer s.mu.Unlock()

	s.template = domain.Geofence{
		Name:         req.Name,
		IsActive:     true,
		AlertOnEnter: req.AlertOnEnter,
		AlertOnExit:  req.AlertOnExit,
	}
	s.meters = req.ClosureMeters > 0
	switch {
	case s.meters:
		s.engine.SetClosure(drawing.DistanceClosure(req.ClosureMeters))
	case req.Zoom > 0:
		s.engine.SetClosure(drawing.ScreenClosure{Pixels: drawing.DefaultClosurePixels, Zoom: req.Zoom})
	}
	replaced := s.engine.Start(req.Mode)

	c.JSON(http.StatusOK, gin.H{"replaced": replaced, "preview": toPreviewResponse(s.engine.Preview())})
}

func (h *DrawingHandler) Event(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return
	}
	p := domain.GeoPoint{Lat: req.Lat, Lng: req.Lng}
	if err := p.Valid(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, ok := h.existing(c.Param("operator_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no drawing session"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Zoom > 0 && !s.meters {
		s.engine.SetClosure(drawing.ScreenClosure{Pixels: drawing.DefaultClosurePixels, Zoom: req.Zoom})
	}
	step := s.engine.Handle(drawing.PointerEvent{Kind: req.Kind, Point: p})

	resp := stepResponse{
		Accepted:  step.Accepted,
		Discarded: step.Discarded,
		Preview:   toPreviewResponse(step.Preview),
	}
	if step.Completed != nil {
		g := s.template
		g.Shape = step.Completed
		if err := h.geofences.Create(c.Request.Context(), &g); err != nil {
			abortWithError(c, err, "failed to save geofence")
			return
		}
		f, err := geoshape.GeofenceFeature(&g)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode geofence"})
			return
		}
		resp.Geofence = f
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DrawingHandler) Preview(c *gin.Context) {
	s, ok := h.existing(c.Param("operator_id"))
	if !ok {
		c.JSON(http.StatusOK, toPreviewResponse(drawing.Preview{Mode: drawing.ModeNone}))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, toPreviewResponse(s.engine.Preview()))
}

func (h *DrawingHandler) Cancel(c *gin.Context) {
	cancelled := false
	if s, ok := h.existing(c.Param("operator_id")); ok {
		s.mu.Lock()
		cancelled = s.engine.Cancel()
		s.mu.Unlock()
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": cancelled})
}

func (h *DrawingHandler) session(operatorID string) *drawSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[operatorID]
	if !ok {
		s = &drawSession{engine: drawing.NewEngine()}
		h.sessions[operatorID] = s
	}
	return s
}

func (h *DrawingHandler) existing(operatorID string) (*drawSession, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[operatorID]
	return s, ok
}

func toPreviewResponse(p drawing.Preview) previewResponse {
	resp := previewResponse{Mode: p.Mode}
	switch p.Mode {
	case drawing.ModePolygon:
		resp.Points = p.Points
	case drawing.ModeCircle:
		center := p.Center
		resp.Center = &center
		resp.RadiusMeters = p.RadiusMeters
	}
	return resp
}
