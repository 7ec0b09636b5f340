// Package store defines the persistence contracts for devices and
// telemetry readings, plus an in-memory implementation. A Postgres
// implementation lives in the postgres subpackage.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"energy_manager/internal/model"
)

// ErrDeviceNotFound is returned when a device ID does not exist.
var ErrDeviceNotFound = errors.New("device not found")

// DeviceFilter narrows a device listing.
type DeviceFilter struct {
	Type       *model.DeviceType
	ActiveOnly bool
}

// DeviceStore is the device access contract.
type DeviceStore interface {
	CreateDevice(ctx context.Context, d *model.Device) error
	Device(ctx context.Context, id uuid.UUID) (*model.Device, error)
	Devices(ctx context.Context, f DeviceFilter) ([]*model.Device, error)
	UpdateDeviceState(ctx context.Context, id uuid.UUID, s model.State, at time.Time) error
	SetDeviceActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) error
}

// ReadingStore is the telemetry access contract. UpsertReadings
// replaces on a (device, timestamp) conflict rather than duplicating.
type ReadingStore interface {
	UpsertReadings(ctx context.Context, readings []model.Reading) error
	ReadingsInRange(ctx context.Context, deviceID uuid.UUID, start, end time.Time) ([]model.Reading, error)
	// Aggregate groups readings whose timestamp falls in [start, end]
	// into truncated periods and computes per-period statistics.
	// Periods without readings are omitted.
	Aggregate(ctx context.Context, deviceID uuid.UUID, start, end time.Time, interval model.Interval) ([]model.AggregateBucket, error)
}

// Store is the full persistence contract. ApplyTick persists one
// tick's state updates and readings as a single batch so readers never
// observe a half-applied tick.
type Store interface {
	DeviceStore
	ReadingStore
	ApplyTick(ctx context.Context, states map[uuid.UUID]model.State, readings []model.Reading, at time.Time) error
}
