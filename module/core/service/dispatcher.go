package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

const DefaultQueueSize = 256

// SampleHandler runs the per-sample pipeline. Calls for one vehicle are never
// concurrent.
type SampleHandler func(ctx context.Context, s *domain.VehicleSample) error

// Dispatcher fans samples out to a fixed set of workers. A vehicle always
// hashes to the same worker, so its samples are handled in arrival order
// while different vehicles proceed in parallel.
type Dispatcher struct {
	queues  []chan *domain.VehicleSample
	handler SampleHandler
}

func NewDispatcher(workers, queueSize int, handler SampleHandler) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	queues := make([]chan *domain.VehicleSample, workers)
	for i := range queues {
		queues[i] = make(chan *domain.VehicleSample, queueSize)
	}
	return &Dispatcher{queues: queues, handler: handler}
}

// Run blocks until ctx is cancelled. Handler errors are logged and the
// sample dropped; they never stop a worker.
func (d *Dispatcher) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	for i, q := range d.queues {
		i, q := i, q
		eg.Go(func() error {
			d.work(ctx, i, q)
			return nil
		})
	}
	return eg.Wait()
}

func (d *Dispatcher) work(ctx context.Context, id int, q <-chan *domain.VehicleSample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-q:
			if err := d.handler(ctx, s); err != nil {
				level := slog.LevelError
				if errors.Is(err, ErrOutOfOrderSample) {
					level = slog.LevelWarn
				}
				slog.Log(ctx, level, "sample dropped",
					"worker", id,
					"vehicle_id", s.VehicleID,
					"error", err,
				)
			}
		}
	}
}

// Submit queues a sample on its vehicle's worker, waiting while that queue is
// full.
func (d *Dispatcher) Submit(ctx context.Context, s *domain.VehicleSample) error {
	select {
	case d.queues[d.shard(s.VehicleID)] <- s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) shard(vehicleID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(vehicleID))
	return int(h.Sum32() % uint32(len(d.queues)))
}

// Pipeline is the per-sample work: persist, then geofence presence, then
// mission compliance.
type Pipeline struct {
	locations  *LocationService
	geofences  *GeofenceService
	compliance *ComplianceMonitor
}

func NewPipeline(locations *LocationService, geofences *GeofenceService, compliance *ComplianceMonitor) *Pipeline {
	return &Pipeline{locations: locations, geofences: geofences, compliance: compliance}
}

// Handle stops at the first failure. An out-of-order sample is never
// evaluated.
func (p *Pipeline) Handle(ctx context.Context, s *domain.VehicleSample) error {
	if err := p.locations.SaveLocation(ctx, s); err != nil {
		return err
	}
	if err := p.geofences.CheckAndAlert(ctx, s); err != nil {
		return fmt.Errorf("geofence check: %w", err)
	}
	if _, err := p.compliance.Check(ctx, s); err != nil {
		return fmt.Errorf("compliance check: %w", err)
	}
	return nil
}
