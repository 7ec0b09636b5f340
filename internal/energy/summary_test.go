package energy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_manager/internal/model"
	"energy_manager/internal/store"
)

var ctx = context.Background()

func addDevice(t *testing.T, m *store.Memory, d *model.Device) *model.Device {
	t.Helper()
	d.ID = uuid.New()
	require.NoError(t, m.CreateDevice(ctx, d))
	return d
}

func TestSummary_ProductionConsumptionNet(t *testing.T) {
	m := store.NewMemory()
	addDevice(t, m, &model.Device{
		Name:       "roof",
		Type:       model.DeviceSolarPanel,
		IsActive:   true,
		Properties: model.SolarProperties{RatedCapacityWatts: 5000},
		State:      model.SolarState{OutputWatts: 2500},
	})
	addDevice(t, m, &model.Device{
		Name:       "dishwasher",
		Type:       model.DeviceAppliance,
		IsActive:   true,
		Properties: model.ApplianceProperties{AveragePowerDrawWatts: 1500},
		State:      model.ApplianceState{IsOn: true, PowerDrawWatts: 1500},
	})

	s, err := NewService(m).Summary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2500, s.TotalProductionWatts, 0.001)
	assert.InDelta(t, 1500, s.TotalConsumptionWatts, 0.001)
	assert.InDelta(t, 1000, s.NetPowerWatts, 0.001)
	assert.Empty(t, s.StorageStates)
}

func TestSummary_StorageStates(t *testing.T) {
	m := store.NewMemory()
	battery := addDevice(t, m, &model.Device{
		Name:       "home battery",
		Type:       model.DeviceBattery,
		IsActive:   true,
		Properties: model.BatteryProperties{CapacityWh: 13500, MaxChargeRateWatts: 5000, MaxDischargeRateWatts: 5000},
		State:      model.StorageState{ChargeWh: 6750, Mode: model.ModeDischarging, RateWatts: 2000},
	})

	s, err := NewService(m).Summary(ctx)
	require.NoError(t, err)

	// Discharging storage counts as production.
	assert.InDelta(t, 2000, s.TotalProductionWatts, 0.001)
	require.Len(t, s.StorageStates, 1)
	st := s.StorageStates[0]
	assert.Equal(t, battery.ID, st.DeviceID)
	assert.InDelta(t, 13500, st.CapacityWh, 0.001)
	assert.InDelta(t, 6750, st.ChargeWh, 0.001)
	assert.InDelta(t, 50.0, st.ChargePercent, 0.001)
	assert.Equal(t, model.ModeDischarging, st.Mode)
}

func TestSummary_IgnoresInactiveDevices(t *testing.T) {
	m := store.NewMemory()
	addDevice(t, m, &model.Device{
		Name:       "off grid panel",
		Type:       model.DeviceSolarPanel,
		IsActive:   false,
		Properties: model.SolarProperties{RatedCapacityWatts: 5000},
		State:      model.SolarState{OutputWatts: 5000},
	})

	s, err := NewService(m).Summary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0, s.TotalProductionWatts, 0.001)
	assert.InDelta(t, 0, s.NetPowerWatts, 0.001)
}

func TestSummary_ZeroCapacityPercent(t *testing.T) {
	m := store.NewMemory()
	addDevice(t, m, &model.Device{
		Name:       "dead battery",
		Type:       model.DeviceBattery,
		IsActive:   true,
		Properties: model.BatteryProperties{CapacityWh: 0},
		State:      model.StorageState{ChargeWh: 0, Mode: model.ModeIdle},
	})

	s, err := NewService(m).Summary(ctx)
	require.NoError(t, err)
	require.Len(t, s.StorageStates, 1)
	assert.InDelta(t, 0, s.StorageStates[0].ChargePercent, 0.001)
}
