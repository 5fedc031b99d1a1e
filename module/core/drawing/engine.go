// Package drawing turns raw map pointer events into polygon and circle
// geofence shapes. The engine owns geometry and completion detection only;
// rendering is left to the caller, which reads the preview on every step.
//
// An Engine holds a single session and is not safe for concurrent use.
package drawing

import (
	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/geodesy"
)

const (
	// MinCircleRadiusMeters is the radius a released circle must exceed to
	// become a geofence.
	MinCircleRadiusMeters = 20
	// MinPreviewRadiusMeters seeds the circle on press so the preview is
	// never zero-sized.
	MinPreviewRadiusMeters = 1
	DefaultClosurePixels   = 20
	DefaultZoom            = 15
)

type Mode string

const (
	ModeNone    Mode = "none"
	ModePolygon Mode = "polygon"
	ModeCircle  Mode = "circle"
)

type EventKind string

const (
	Press   EventKind = "press"
	Move    EventKind = "move"
	Release EventKind = "release"
	Click   EventKind = "click"
)

type PointerEvent struct {
	Kind  EventKind
	Point domain.GeoPoint
}

// Preview is the in-progress shape for rendering. Exactly one of Points
// (polygon) or Center/RadiusMeters (circle) is meaningful, selected by Mode.
type Preview struct {
	Mode         Mode
	Points       []domain.GeoPoint
	Center       domain.GeoPoint
	RadiusMeters float64
}

// Step is the outcome of one pointer event.
type Step struct {
	Accepted  bool
	Preview   Preview
	Completed domain.Shape
	Discarded bool
}

type session interface {
	mode() Mode
}

type polygonSession struct {
	points []domain.GeoPoint
}

func (*polygonSession) mode() Mode { return ModePolygon }

type circleSession struct {
	center   domain.GeoPoint
	radius   float64
	dragging bool
}

func (*circleSession) mode() Mode { return ModeCircle }

type Engine struct {
	session session
	closure Closure
}

type Option func(*Engine)

func WithClosure(c Closure) Option {
	return func(e *Engine) { e.closure = c }
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		closure: ScreenClosure{Pixels: DefaultClosurePixels, Zoom: DefaultZoom},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetClosure replaces the polygon closure rule, typically when the map zoom
// changes mid-drawing.
func (e *Engine) SetClosure(c Closure) {
	e.closure = c
}

func (e *Engine) Mode() Mode {
	if e.session == nil {
		return ModeNone
	}
	return e.session.mode()
}

// Start begins a new drawing. It reports whether an unfinished session was
// cancelled to make room for it.
func (e *Engine) Start(mode Mode) (replaced bool) {
	replaced = e.session != nil
	switch mode {
	case ModePolygon:
		e.session = &polygonSession{}
	case ModeCircle:
		e.session = &circleSession{}
	default:
		e.session = nil
	}
	return replaced
}

// Cancel drops the current session without emitting anything. It reports
// whether there was a session to drop.
func (e *Engine) Cancel() bool {
	active := e.session != nil
	e.session = nil
	return active
}

func (e *Engine) Preview() Preview {
	switch s := e.session.(type) {
	case *polygonSession:
		pts := make([]domain.GeoPoint, len(s.points))
		copy(pts, s.points)
		return Preview{Mode: ModePolygon, Points: pts}
	case *circleSession:
		return Preview{Mode: ModeCircle, Center: s.center, RadiusMeters: s.radius}
	default:
		return Preview{Mode: ModeNone}
	}
}

func (e *Engine) Handle(ev PointerEvent) Step {
	switch s := e.session.(type) {
	case *polygonSession:
		if ev.Kind == Click {
			return e.clickPolygon(s, ev.Point)
		}
	case *circleSession:
		switch ev.Kind {
		case Press:
			s.center = ev.Point
			s.radius = MinPreviewRadiusMeters
			s.dragging = true
			return e.accepted()
		case Move:
			if s.dragging {
				s.radius = geodesy.Distance(s.center, ev.Point)
				return e.accepted()
			}
		case Release:
			if s.dragging {
				return e.releaseCircle(s, ev.Point)
			}
		}
	}
	return Step{Preview: e.Preview()}
}

func (e *Engine) clickPolygon(s *polygonSession, p domain.GeoPoint) Step {
	if len(s.points) >= 3 && e.closure.Closes(p, s.points[0]) {
		shape := domain.Polygon{Vertices: s.points}
		e.session = nil
		return Step{Accepted: true, Preview: Preview{Mode: ModeNone}, Completed: shape}
	}
	s.points = append(s.points, p)
	return e.accepted()
}

func (e *Engine) releaseCircle(s *circleSession, p domain.GeoPoint) Step {
	radius := geodesy.Distance(s.center, p)
	e.session = nil
	if radius > MinCircleRadiusMeters {
		return Step{
			Accepted:  true,
			Preview:   Preview{Mode: ModeNone},
			Completed: domain.Circle{Center: s.center, RadiusMeters: radius},
		}
	}
	return Step{Accepted: true, Preview: Preview{Mode: ModeNone}, Discarded: true}
}

func (e *Engine) accepted() Step {
	return Step{Accepted: true, Preview: e.Preview()}
}
