package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"googlemaps.github.io/maps"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

// maxSpeedLimitPath is the Roads API limit on points per request.
const maxSpeedLimitPath = 100

var ErrNoRoute = errors.New("no route found")

type client interface {
	Directions(ctx context.Context, r *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error)
	SpeedLimits(ctx context.Context, r *maps.SpeedLimitsRequest) (*maps.SpeedLimitsResponse, error)
}

// Planner asks Directions for the driving route and the Roads API for the
// posted limits along it.
type Planner struct {
	client client
}

func NewPlanner(apiKey string) (*Planner, error) {
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Planner{client: c}, nil
}

// Plan returns a route without speed segments when the speed limit lookup
// fails; callers then fall back to the default limit.
func (p *Planner) Plan(ctx context.Context, origin, destination domain.GeoPoint) (*domain.Route, error) {
	routes, _, err := p.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      latLngString(origin),
		Destination: latLngString(destination),
		Mode:        maps.TravelModeDriving,
	})
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 {
		return nil, ErrNoRoute
	}

	r := routes[0]
	path, err := r.OverviewPolyline.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode overview polyline: %w", err)
	}
	if len(path) < 2 {
		return nil, ErrNoRoute
	}

	route := &domain.Route{Polyline: make(domain.Polyline, len(path)), Summary: r.Summary}
	for i, ll := range path {
		route.Polyline[i] = domain.GeoPoint{Lat: ll.Lat, Lng: ll.Lng}
	}

	marks, err := p.speedLimits(ctx, path)
	if err != nil {
		slog.Warn("speed limits unavailable, using default", "error", err)
		return route, nil
	}

	var road *string
	if r.Summary != "" {
		road = &r.Summary
	}
	route.SpeedSegments = buildSegments(len(path), marks, road)
	return route, nil
}

type limitMark struct {
	Index    int
	MaxSpeed float64
}

func (p *Planner) speedLimits(ctx context.Context, path []maps.LatLng) ([]limitMark, error) {
	sampled := samplePath(len(path), maxSpeedLimitPath)
	req := &maps.SpeedLimitsRequest{Units: maps.SpeedLimitKPH}
	for _, i := range sampled {
		req.Path = append(req.Path, path[i])
	}

	resp, err := p.client.SpeedLimits(ctx, req)
	if err != nil {
		return nil, err
	}

	limits := make(map[string]float64, len(resp.SpeedLimits))
	for _, sl := range resp.SpeedLimits {
		limits[sl.PlaceID] = sl.SpeedLimit
	}

	var marks []limitMark
	for _, sp := range resp.SnappedPoints {
		if sp.OriginalIndex == nil || *sp.OriginalIndex >= len(sampled) {
			continue
		}
		limit, ok := limits[sp.PlaceID]
		if !ok || limit <= 0 {
			continue
		}
		marks = append(marks, limitMark{Index: sampled[*sp.OriginalIndex], MaxSpeed: limit})
	}
	return marks, nil
}

// samplePath picks at most limit evenly spaced indices of an n-point path,
// always keeping the first and the last.
func samplePath(n, limit int) []int {
	if n <= limit {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	idx := make([]int, limit)
	for i := range idx {
		idx[i] = i * (n - 1) / (limit - 1)
	}
	return idx
}

// buildSegments turns limit observations at path indices into contiguous
// segments covering 0..n-1. A limit holds from its observation until the
// next different one; the first limit also covers the points before it.
func buildSegments(n int, marks []limitMark, road *string) []domain.SpeedSegment {
	if n == 0 || len(marks) == 0 {
		return nil
	}
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].Index < marks[j].Index })

	var segments []domain.SpeedSegment
	cur := domain.SpeedSegment{StartIndex: 0, MaxSpeed: marks[0].MaxSpeed, RoadName: road}
	for _, m := range marks[1:] {
		if m.MaxSpeed == cur.MaxSpeed || m.Index <= cur.StartIndex {
			continue
		}
		cur.EndIndex = m.Index - 1
		segments = append(segments, cur)
		cur = domain.SpeedSegment{StartIndex: m.Index, MaxSpeed: m.MaxSpeed, RoadName: road}
	}
	cur.EndIndex = n - 1
	return append(segments, cur)
}

func latLngString(p domain.GeoPoint) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
