package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
	"github.com/nandanugg/fleet-navigator/module/core/internal/repository/publisher"
)

type fakeChannel struct {
	exchange string
	msgs     []amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.msgs = append(f.msgs, msg)
	return f.err
}

func TestPublishGeofenceAlert(t *testing.T) {
	ch := &fakeChannel{}
	p := &AlertPublisher{ch: ch}

	err := p.PublishGeofenceAlert(context.Background(), &domain.GeofenceAlert{
		GeofenceID: "gf-1",
		VehicleID:  "B1234XYZ",
		Event:      domain.GeofenceEntry,
		Position:   domain.GeoPoint{Lat: -6.2, Lng: 106.8},
		Timestamp:  1715003456,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.exchange != ExchangeName {
		t.Errorf("expected exchange %s, got %s", ExchangeName, ch.exchange)
	}
	msg := ch.msgs[0]
	if msg.Type != publisher.KindGeofenceAlert {
		t.Errorf("expected type %s, got %s", publisher.KindGeofenceAlert, msg.Type)
	}

	var got domain.GeofenceAlert
	if err := json.Unmarshal(msg.Body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.VehicleID != "B1234XYZ" || got.Event != domain.GeofenceEntry {
		t.Errorf("unexpected body %+v", got)
	}
}

func TestPublishComplianceAlert(t *testing.T) {
	ch := &fakeChannel{}
	p := &AlertPublisher{ch: ch}

	err := p.PublishComplianceAlert(context.Background(), &domain.ComplianceAlert{
		MissionID: "m-1",
		Event:     domain.ComplianceViolation,
		Banner:    domain.BannerDeviated,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.msgs[0].Type != publisher.KindComplianceAlert {
		t.Errorf("expected type %s, got %s", publisher.KindComplianceAlert, ch.msgs[0].Type)
	}
	if ch.msgs[0].DeliveryMode != amqp.Persistent {
		t.Error("expected persistent delivery")
	}
}

func TestPublish_ChannelError(t *testing.T) {
	p := &AlertPublisher{ch: &fakeChannel{err: errors.New("channel closed")}}
	if err := p.PublishGeofenceAlert(context.Background(), &domain.GeofenceAlert{}); err == nil {
		t.Fatal("expected error")
	}
}
