package device

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"energy_manager/internal/model"
	"energy_manager/internal/store"
)

// Service registers devices and changes storage modes. All operations
// are all-or-nothing: a validation failure leaves no trace in the store.
type Service struct {
	devices store.DeviceStore
	now     func() time.Time
}

func NewService(devices store.DeviceStore) *Service {
	return &Service{devices: devices, now: time.Now}
}

// SetClock overrides the wall clock, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Register validates and creates a new device with its canonical
// initial state.
func (s *Service) Register(ctx context.Context, name, description, deviceType string, properties map[string]float64) (*model.Device, error) {
	t, err := ParseDeviceType(deviceType)
	if err != nil {
		return nil, err
	}
	props, err := ParseProperties(t, properties)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	d := &model.Device{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Type:        t,
		IsActive:    true,
		Properties:  props,
		State:       InitialState(props),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.devices.CreateDevice(ctx, d); err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}
	return d, nil
}

// Get returns a device by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Device, error) {
	return s.devices.Device(ctx, id)
}

// List returns devices, optionally filtered by type and active flag.
func (s *Service) List(ctx context.Context, deviceType *model.DeviceType, activeOnly bool) ([]*model.Device, error) {
	return s.devices.Devices(ctx, store.DeviceFilter{Type: deviceType, ActiveOnly: activeOnly})
}

// SetActive toggles whether a device participates in simulation ticks
// and summaries. Devices are never deleted, only deactivated.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.Device, error) {
	d, err := s.devices.Device(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.IsActive != active {
		now := s.now().UTC()
		if err := s.devices.SetDeviceActive(ctx, id, active, now); err != nil {
			return nil, fmt.Errorf("set active: %w", err)
		}
		d.IsActive = active
		d.UpdatedAt = now
	}
	return d, nil
}

// SetStorageMode changes the operating mode of a battery or electric
// vehicle. When rate is nil the type's maximum rate for the mode is
// used; an explicit rate is clamped to [0, max]. Idle always forces the
// rate to zero.
func (s *Service) SetStorageMode(ctx context.Context, id uuid.UUID, mode string, rate *float64) (*model.Device, error) {
	d, err := s.devices.Device(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.IsStorage() {
		return nil, ErrNotAStorageDevice
	}
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	prev, ok := d.State.(model.StorageState)
	if !ok {
		return nil, fmt.Errorf("device %s: state is not storage state", d.ID)
	}

	maxRate := storageMaxRate(d.Properties, m)
	effective := maxRate
	if rate != nil {
		effective = *rate
		if effective < 0 {
			effective = 0
		}
		if maxRate > 0 {
			effective = min(effective, maxRate)
		} else {
			effective = 0
		}
	}
	if m == model.ModeIdle {
		effective = 0
	}

	next := model.StorageState{ChargeWh: prev.ChargeWh, Mode: m, RateWatts: effective}
	if err := s.devices.UpdateDeviceState(ctx, d.ID, next, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("update mode: %w", err)
	}
	d.State = next
	return d, nil
}

// storageMaxRate returns the rate limit for the mode: the max charge
// rate when charging, the max discharge rate when discharging, zero
// when idle.
func storageMaxRate(p model.Properties, m model.StorageMode) float64 {
	var charge, discharge float64
	switch p := p.(type) {
	case model.BatteryProperties:
		charge, discharge = p.MaxChargeRateWatts, p.MaxDischargeRateWatts
	case model.EVProperties:
		charge, discharge = p.MaxChargeRateWatts, p.MaxDischargeRateWatts
	}
	switch m {
	case model.ModeCharging:
		return charge
	case model.ModeDischarging:
		return discharge
	}
	return 0
}
