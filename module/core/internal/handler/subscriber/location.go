package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

const TopicPattern = "/fleet/vehicle/+/location"

type sampleSubmitter interface {
	Submit(ctx context.Context, s *domain.VehicleSample) error
}

type locationMessage struct {
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

type LocationSubscriber struct {
	client     mqtt.Client
	dispatcher sampleSubmitter
	ctx        context.Context
}

func NewLocationSubscriber(client mqtt.Client, dispatcher sampleSubmitter) *LocationSubscriber {
	return &LocationSubscriber{
		client:     client,
		dispatcher: dispatcher,
		ctx:        context.Background(),
	}
}

// Start subscribes to the position feed. Submissions block on a full worker
// queue until ctx is done.
func (s *LocationSubscriber) Start(ctx context.Context) error {
	s.ctx = ctx
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *LocationSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw locationMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		slog.Warn("invalid location message", "topic", msg.Topic(), "error", err)
		return
	}

	if raw.VehicleID == "" {
		raw.VehicleID = vehicleFromTopic(msg.Topic())
	}
	if err := validateLocationMessage(&raw, msg.Topic()); err != nil {
		slog.Warn("validation error", "topic", msg.Topic(), "error", err)
		return
	}

	// Timestamps are whole seconds; same-second samples are accepted downstream.
	sample := &domain.VehicleSample{
		VehicleID:   raw.VehicleID,
		Position:    domain.GeoPoint{Lat: raw.Latitude, Lng: raw.Longitude},
		SpeedKmh:    raw.Speed,
		Timestamp:   time.Unix(raw.Timestamp, 0),
		IgnitionOn:  raw.Ignition,
		Blocked:     raw.Blocked,
		AlarmCode:   raw.AlarmCode,
		FeedOffline: raw.Offline,
	}

	if err := s.dispatcher.Submit(s.ctx, sample); err != nil {
		slog.Error("submit sample", "vehicle_id", sample.VehicleID, "error", err)
	}
}

// vehicleFromTopic extracts the wildcard segment of /fleet/vehicle/<id>/location.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) != 4 || parts[0] != "fleet" || parts[1] != "vehicle" || parts[3] != "location" {
		return ""
	}
	return parts[2]
}

func validateLocationMessage(msg *locationMessage, topic string) error {
	if msg.VehicleID == "" {
		return fmt.Errorf("vehicle_id: required")
	}
	if id := vehicleFromTopic(topic); id != "" && id != msg.VehicleID {
		return fmt.Errorf("vehicle_id: %q does not match topic vehicle %q", msg.VehicleID, id)
	}
	if err := (domain.GeoPoint{Lat: msg.Latitude, Lng: msg.Longitude}).Valid(); err != nil {
		return err
	}
	if msg.Speed < 0 {
		return fmt.Errorf("speed: must not be negative")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	return nil
}
