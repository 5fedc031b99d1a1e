package publisher

import (
	"context"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

// Message kinds, carried as the AMQP type or the Kafka "type" header so
// consumers can decode the body.
const (
	KindGeofenceAlert   = "geofence_alert"
	KindComplianceAlert = "compliance_alert"
)

type AlertPublisher interface {
	PublishGeofenceAlert(ctx context.Context, alert *domain.GeofenceAlert) error
	PublishComplianceAlert(ctx context.Context, alert *domain.ComplianceAlert) error
}
