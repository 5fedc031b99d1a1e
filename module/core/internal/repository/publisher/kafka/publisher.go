package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertPublisher writes alerts keyed by vehicle ID so one vehicle's alerts
// stay on one partition.
type AlertPublisher struct {
	writer messageWriter
}

func NewAlertPublisher(brokers []string, topic string) *AlertPublisher {
	return &AlertPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}}
}

func (p *AlertPublisher) PublishGeofenceAlert(ctx context.Context, alert *domain.GeofenceAlert) error {
	return p.write(ctx, publisher.KindGeofenceAlert, alert.VehicleID, alert.Timestamp, alert)
}

func (p *AlertPublisher) PublishComplianceAlert(ctx context.Context, alert *domain.ComplianceAlert) error {
	return p.write(ctx, publisher.KindComplianceAlert, alert.VehicleID, alert.Timestamp, alert)
}

func (p *AlertPublisher) write(ctx context.Context, kind, key string, ts int64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   data,
		Time:    time.Unix(ts, 0),
		Headers: []kafka.Header{{Key: "type", Value: []byte(kind)}},
	})
}

// Close flushes pending messages.
func (p *AlertPublisher) Close() error {
	return p.writer.Close()
}
