package core

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	handler "github.com/nandanugg/fleet-navigator/module/core/internal/handler/http"
	"github.com/nandanugg/fleet-navigator/module/core/internal/handler/subscriber"
	rediscache "github.com/nandanugg/fleet-navigator/module/core/internal/repository/cache/redis"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher/kafka"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/fleet-navigator/module/core/internal/routing/googlemaps"
	"github.com/nandanugg/fleet-navigator/module/core/service"
)

const (
	SinkRabbitMQ = "rabbitmq"
	SinkKafka    = "kafka"
)

// Deps are the live clients the module runs on. AMQP may be nil when
// alerts go to Kafka.
type Deps struct {
	DB    *sql.DB
	AMQP  *amqp.Connection
	MQTT  mqtt.Client
	Redis redis.UniversalClient
}

type Options struct {
	Workers         int
	QueueSize       int
	StaleAfter      time.Duration
	MissionDefaults service.MissionDefaults

	AlertSink    string
	KafkaBrokers []string
	KafkaTopic   string

	// GoogleMapsAPIKey enables route planning; without it missions need an
	// explicit route.
	GoogleMapsAPIKey string
}

type Module struct {
	LocationSvc   *service.LocationService
	GeofenceSvc   *service.GeofenceService
	MissionSvc    *service.MissionService
	ComplianceMon *service.ComplianceMonitor

	dispatcher *service.Dispatcher
	handlers   []interface{ Register(*gin.RouterGroup) }
	subscriber *subscriber.LocationSubscriber
	closers    []func() error
}

func Build(deps Deps, opts Options) (*Module, error) {
	m := &Module{}

	alerts, err := m.buildPublisher(deps, opts)
	if err != nil {
		return nil, err
	}

	locationRepo := postgres.NewLocationRepo(deps.DB)
	geofenceRepo := postgres.NewGeofenceRepo(deps.DB)
	missionRepo := postgres.NewMissionRepo(deps.DB)
	samples := rediscache.NewSampleCache(deps.Redis, 24*time.Hour)

	var planner service.RoutePlanner
	if opts.GoogleMapsAPIKey != "" {
		p, err := googlemaps.NewPlanner(opts.GoogleMapsAPIKey)
		if err != nil {
			return nil, fmt.Errorf("route planner: %w", err)
		}
		planner = p
	} else {
		slog.Info("no maps api key, route planning disabled")
	}

	m.LocationSvc = service.NewLocationService(locationRepo, samples, opts.StaleAfter)
	m.GeofenceSvc = service.NewGeofenceService(geofenceRepo, alerts)
	m.ComplianceMon = service.NewComplianceMonitor(missionRepo, alerts)
	m.MissionSvc = service.NewMissionService(missionRepo, locationRepo, planner, opts.MissionDefaults)

	pipeline := service.NewPipeline(m.LocationSvc, m.GeofenceSvc, m.ComplianceMon)
	m.dispatcher = service.NewDispatcher(opts.Workers, opts.QueueSize, pipeline.Handle)

	m.handlers = append(m.handlers,
		handler.NewVehicleHandler(m.LocationSvc),
		handler.NewGeofenceHandler(m.GeofenceSvc),
		handler.NewDrawingHandler(m.GeofenceSvc),
		handler.NewMissionHandler(m.MissionSvc),
	)
	m.subscriber = subscriber.NewLocationSubscriber(deps.MQTT, m.dispatcher)

	return m, nil
}

func (m *Module) buildPublisher(deps Deps, opts Options) (publisher.AlertPublisher, error) {
	switch opts.AlertSink {
	case SinkKafka:
		p := kafka.NewAlertPublisher(opts.KafkaBrokers, opts.KafkaTopic)
		m.closers = append(m.closers, p.Close)
		return p, nil
	case SinkRabbitMQ, "":
		if deps.AMQP == nil {
			return nil, fmt.Errorf("alert sink %q needs an amqp connection", SinkRabbitMQ)
		}
		p, err := rabbitmq.NewAlertPublisher(deps.AMQP)
		if err != nil {
			return nil, fmt.Errorf("alert publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown alert sink %q", opts.AlertSink)
	}
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	for _, h := range m.handlers {
		h.Register(r)
	}
}

// Run loads geofences, subscribes to telemetry and processes samples until
// ctx is cancelled.
func (m *Module) Run(ctx context.Context) error {
	if err := m.GeofenceSvc.Reload(ctx); err != nil {
		return fmt.Errorf("load geofences: %w", err)
	}
	if err := m.subscriber.Start(ctx); err != nil {
		return fmt.Errorf("start subscriber: %w", err)
	}
	return m.dispatcher.Run(ctx)
}

func (m *Module) Close() error {
	var first error
	for _, c := range m.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
