package model

import (
	"time"

	"github.com/google/uuid"
)

// Reading is one time-stamped telemetry record for a device. Readings
// are unique per (device, timestamp); writing again at the same
// timestamp replaces the earlier record.
type Reading struct {
	DeviceID   uuid.UUID `json:"device_id"`
	Timestamp  time.Time `json:"timestamp"`
	PowerWatts float64   `json:"power_watts"`
	// ChargeWh is set for storage devices only.
	ChargeWh *float64 `json:"charge_wh,omitempty"`
	// StateSnapshot is a copy of the device state at recording time.
	StateSnapshot State `json:"state_snapshot"`
}

// AggregateBucket holds per-period statistics over a device's readings.
type AggregateBucket struct {
	Period     time.Time `json:"period"`
	AvgPower   float64   `json:"avg_power"`
	MaxPower   float64   `json:"max_power"`
	MinPower   float64   `json:"min_power"`
	// AvgCharge is nil when no reading in the bucket carried a charge.
	AvgCharge *float64 `json:"avg_charge,omitempty"`
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}
