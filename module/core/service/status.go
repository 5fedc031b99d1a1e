package service

import (
	"time"

	"github.com/nandanugg/fleet-navigator/module/core/domain"
)

const (
	DefaultStaleAfter = 10 * time.Minute
	idleSpeedKmh      = 2
)

// Classify maps a sample to a marker status. The rule order matters: a
// blocked vehicle is Alert even when stale, and an idle vehicle with the
// ignition reported off is Offline, not Idle.
func Classify(s domain.VehicleSample, now time.Time) domain.Status {
	return ClassifyWithStaleness(s, now, DefaultStaleAfter)
}

func ClassifyWithStaleness(s domain.VehicleSample, now time.Time, staleAfter time.Duration) domain.Status {
	switch {
	case s.IsBlocked() || s.HasAlarm() || (s.IgnitionOff() && s.SpeedKmh > 0):
		return domain.StatusAlert
	case s.FeedOffline || now.Sub(s.Timestamp) > staleAfter || s.IgnitionOff():
		return domain.StatusOffline
	case s.SpeedKmh < idleSpeedKmh:
		return domain.StatusIdle
	default:
		return domain.StatusMoving
	}
}
