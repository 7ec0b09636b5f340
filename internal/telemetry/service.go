// Package telemetry answers historical queries over recorded readings.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"energy_manager/internal/model"
	"energy_manager/internal/store"
)

// ErrInvalidRange is returned when a query's end precedes its start.
var ErrInvalidRange = errors.New("invalid time range")

// Service wraps the reading store with device validation.
type Service struct {
	devices  store.DeviceStore
	readings store.ReadingStore
}

func NewService(devices store.DeviceStore, readings store.ReadingStore) *Service {
	return &Service{devices: devices, readings: readings}
}

// Aggregated returns per-period statistics for a device's readings in
// [start, end], bucketed by the interval and ordered ascending.
// Periods without readings are omitted.
func (s *Service) Aggregated(ctx context.Context, deviceID uuid.UUID, start, end time.Time, interval model.Interval) ([]model.AggregateBucket, error) {
	if _, err := s.devices.Device(ctx, deviceID); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s precedes start %s", ErrInvalidRange, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return s.readings.Aggregate(ctx, deviceID, start, end, interval)
}

// Readings returns the raw readings for a device in [start, end].
func (s *Service) Readings(ctx context.Context, deviceID uuid.UUID, start, end time.Time) ([]model.Reading, error) {
	if _, err := s.devices.Device(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.readings.ReadingsInRange(ctx, deviceID, start, end)
}
