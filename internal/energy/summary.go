// Package energy computes fleet-wide energy summaries from current
// device states.
package energy

import (
	"context"

	"github.com/google/uuid"

	"energy_manager/internal/model"
	"energy_manager/internal/store"
)

// StorageStatus is the charge state of one storage device.
type StorageStatus struct {
	DeviceID        uuid.UUID        `json:"device_id"`
	DeviceName      string           `json:"device_name"`
	DeviceType      model.DeviceType `json:"device_type"`
	CapacityWh      float64          `json:"capacity_wh"`
	ChargeWh        float64          `json:"charge_wh"`
	ChargePercent   float64          `json:"charge_percent"`
	Mode            model.StorageMode `json:"mode"`
}

// Summary is an instantaneous snapshot of fleet power flow. Computed
// on demand, never persisted.
type Summary struct {
	TotalProductionWatts  float64         `json:"total_production_watts"`
	TotalConsumptionWatts float64         `json:"total_consumption_watts"`
	NetPowerWatts         float64         `json:"net_power_watts"`
	StorageStates         []StorageStatus `json:"storage_states"`
}

// Service aggregates over active devices.
type Service struct {
	devices store.DeviceStore
}

func NewService(devices store.DeviceStore) *Service {
	return &Service{devices: devices}
}

// Summary walks the active fleet once: positive power accumulates into
// production, negative into consumption (as a magnitude), and every
// storage device contributes its charge status.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	devices, err := s.devices.Devices(ctx, store.DeviceFilter{ActiveOnly: true})
	if err != nil {
		return Summary{}, err
	}

	var out Summary
	for _, d := range devices {
		power := d.CurrentPowerWatts()
		if power > 0 {
			out.TotalProductionWatts += power
		} else if power < 0 {
			out.TotalConsumptionWatts += -power
		}

		if !d.IsStorage() {
			continue
		}
		capacity, _ := d.CapacityWh()
		st, ok := d.State.(model.StorageState)
		if !ok {
			continue
		}
		pct, _ := d.ChargePercent()
		out.StorageStates = append(out.StorageStates, StorageStatus{
			DeviceID:      d.ID,
			DeviceName:    d.Name,
			DeviceType:    d.Type,
			CapacityWh:    capacity,
			ChargeWh:      st.ChargeWh,
			ChargePercent: pct,
			Mode:          st.Mode,
		})
	}

	out.NetPowerWatts = out.TotalProductionWatts - out.TotalConsumptionWatts
	return out, nil
}
