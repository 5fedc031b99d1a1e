package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/fleet-navigator/config"
	"github.com/nandanugg/fleet-navigator/module/core"
	"github.com/nandanugg/fleet-navigator/module/core/service"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	cfg := config.Load()
	config.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		fatal("postgres", err)
	}
	defer func() { _ = db.Close() }()

	if err := config.EnsureSchema(ctx, db); err != nil {
		fatal("schema", err)
	}

	rdb, err := config.NewRedis(cfg)
	if err != nil {
		fatal("redis", err)
	}
	defer func() { _ = rdb.Close() }()

	var amqpConn *amqp.Connection
	if cfg.AlertSink == core.SinkRabbitMQ {
		amqpConn, err = config.NewRabbitMQ(cfg)
		if err != nil {
			fatal("rabbitmq", err)
		}
		defer func() { _ = amqpConn.Close() }()
	}

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		fatal("mqtt", err)
	}
	defer mqttClient.Disconnect(250)

	coreModule, err := core.Build(core.Deps{
		DB:    db,
		AMQP:  amqpConn,
		MQTT:  mqttClient,
		Redis: rdb,
	}, core.Options{
		Workers:    cfg.MonitorWorkers,
		StaleAfter: cfg.StaleAfter,
		MissionDefaults: service.MissionDefaults{
			CorridorWidthMeters: cfg.DefaultCorridorMeters,
			MaxSpeedKmh:         cfg.DefaultMaxSpeedKmh,
		},
		AlertSink:        cfg.AlertSink,
		KafkaBrokers:     cfg.KafkaBrokers,
		KafkaTopic:       cfg.KafkaTopic,
		GoogleMapsAPIKey: cfg.GoogleMapsAPIKey,
	})
	if err != nil {
		fatal("core module", err)
	}
	defer func() { _ = coreModule.Close() }()

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	health := config.NewHealthChecker(db, amqpConn, mqttClient, rdb)
	health.Register(r)

	coreModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}

	runErr := make(chan error, 1)
	go func() { runErr <- coreModule.Run(ctx) }()

	go func() {
		slog.Info("listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-runErr:
		if err != nil {
			slog.Error("monitor stopped", "error", err)
		}
		stop()
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown", "error", err)
	}
}
