package googlemaps

import (
	"context"
	"errors"
	"testing"

	"googlemaps.github.io/maps"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

type fakeClient struct {
	routes  []maps.Route
	dirErr  error
	limits  *maps.SpeedLimitsResponse
	slErr   error
	slPaths int
}

func (f *fakeClient) Directions(_ context.Context, _ *maps.DirectionsRequest) ([]maps.Route, []maps.GeocodedWaypoint, error) {
	return f.routes, nil, f.dirErr
}

func (f *fakeClient) SpeedLimits(_ context.Context, r *maps.SpeedLimitsRequest) (*maps.SpeedLimitsResponse, error) {
	f.slPaths = len(r.Path)
	return f.limits, f.slErr
}

func intPtr(i int) *int { return &i }

func straightPath(n int) []maps.LatLng {
	path := make([]maps.LatLng, n)
	for i := range path {
		path[i] = maps.LatLng{Lat: -6.2, Lng: 106.8 + float64(i)*0.001}
	}
	return path
}

func TestBuildSegments(t *testing.T) {
	road := "Jl. Sudirman"
	tests := []struct {
		name  string
		n     int
		marks []limitMark
		want  []domain.SpeedSegment
	}{
		{"no marks", 5, nil, nil},
		{
			"single limit covers the whole path",
			5,
			[]limitMark{{Index: 2, MaxSpeed: 50}},
			[]domain.SpeedSegment{{StartIndex: 0, EndIndex: 4, MaxSpeed: 50}},
		},
		{
			"equal neighbours merge",
			10,
			[]limitMark{{Index: 0, MaxSpeed: 40}, {Index: 3, MaxSpeed: 40}, {Index: 6, MaxSpeed: 80}, {Index: 9, MaxSpeed: 80}},
			[]domain.SpeedSegment{
				{StartIndex: 0, EndIndex: 5, MaxSpeed: 40},
				{StartIndex: 6, EndIndex: 9, MaxSpeed: 80},
			},
		},
		{
			"unsorted marks",
			6,
			[]limitMark{{Index: 4, MaxSpeed: 30}, {Index: 1, MaxSpeed: 60}},
			[]domain.SpeedSegment{
				{StartIndex: 0, EndIndex: 3, MaxSpeed: 60},
				{StartIndex: 4, EndIndex: 5, MaxSpeed: 30},
			},
		},
		{
			"first observation at an index wins",
			4,
			[]limitMark{{Index: 0, MaxSpeed: 60}, {Index: 0, MaxSpeed: 30}},
			[]domain.SpeedSegment{{StartIndex: 0, EndIndex: 3, MaxSpeed: 60}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSegments(tt.n, tt.marks, &road)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d segments, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range got {
				w := tt.want[i]
				if got[i].StartIndex != w.StartIndex || got[i].EndIndex != w.EndIndex || got[i].MaxSpeed != w.MaxSpeed {
					t.Errorf("segment %d: expected %+v, got %+v", i, w, got[i])
				}
				if got[i].RoadName == nil || *got[i].RoadName != road {
					t.Errorf("segment %d: expected road name", i)
				}
			}
		})
	}
}

func TestSamplePath(t *testing.T) {
	if got := samplePath(3, 100); len(got) != 3 || got[2] != 2 {
		t.Errorf("short path should be kept whole, got %v", got)
	}
	got := samplePath(1000, 100)
	if len(got) != 100 {
		t.Fatalf("expected 100 indices, got %d", len(got))
	}
	if got[0] != 0 || got[99] != 999 {
		t.Errorf("expected endpoints kept, got %d..%d", got[0], got[99])
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("indices not increasing at %d: %v", i, got[i-1:i+1])
		}
	}
}

func TestPlan_WithSpeedLimits(t *testing.T) {
	path := straightPath(4)
	fc := &fakeClient{
		routes: []maps.Route{{Summary: "Jl. Thamrin", OverviewPolyline: maps.Polyline{Points: maps.Encode(path)}}},
		limits: &maps.SpeedLimitsResponse{
			SnappedPoints: []maps.SnappedPoint{
				{OriginalIndex: intPtr(0), PlaceID: "a"},
				{OriginalIndex: intPtr(2), PlaceID: "b"},
				{PlaceID: "interpolated"},
			},
			SpeedLimits: []maps.SpeedLimit{{PlaceID: "a", SpeedLimit: 40}, {PlaceID: "b", SpeedLimit: 70}},
		},
	}

	p := &Planner{client: fc}
	route, err := p.Plan(context.Background(), domain.GeoPoint{Lat: -6.2, Lng: 106.8}, domain.GeoPoint{Lat: -6.2, Lng: 106.803})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Polyline) != 4 {
		t.Fatalf("expected 4 points, got %d", len(route.Polyline))
	}
	if fc.slPaths != 4 {
		t.Errorf("expected 4 points sent for speed limits, got %d", fc.slPaths)
	}
	if len(route.SpeedSegments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", route.SpeedSegments)
	}
	if route.SpeedSegments[1].StartIndex != 2 || route.SpeedSegments[1].MaxSpeed != 70 {
		t.Errorf("unexpected second segment %+v", route.SpeedSegments[1])
	}
	if *route.SpeedSegments[0].RoadName != "Jl. Thamrin" {
		t.Errorf("expected road name from route summary")
	}
}

func TestPlan_SpeedLimitFailureFallsBack(t *testing.T) {
	fc := &fakeClient{
		routes: []maps.Route{{OverviewPolyline: maps.Polyline{Points: maps.Encode(straightPath(3))}}},
		slErr:  errors.New("roads api not enabled"),
	}

	p := &Planner{client: fc}
	route, err := p.Plan(context.Background(), domain.GeoPoint{}, domain.GeoPoint{Lat: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.SpeedSegments) != 0 {
		t.Errorf("expected no segments, got %+v", route.SpeedSegments)
	}
}

func TestPlan_NoRoute(t *testing.T) {
	p := &Planner{client: &fakeClient{}}
	_, err := p.Plan(context.Background(), domain.GeoPoint{}, domain.GeoPoint{Lat: 1})
	if !errors.Is(err, ErrNoRoute) {
		t.Fatalf("expected ErrNoRoute, got %v", err)
	}
}

func TestPlan_DirectionsError(t *testing.T) {
	p := &Planner{client: &fakeClient{dirErr: errors.New("REQUEST_DENIED")}}
	if _, err := p.Plan(context.Background(), domain.GeoPoint{}, domain.GeoPoint{Lat: 1}); err == nil {
		t.Fatal("expected error")
	}
}
