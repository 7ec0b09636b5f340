package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energy_manager/internal/model"
)

var (
	ctx       = context.Background()
	deviceID  = uuid.MustParse("5e0dd5f8-6a4e-4aa7-ae39-8a2a01a0e1f6")
	startTime = time.Date(2024, 11, 21, 10, 0, 0, 0, time.UTC)
)

func makeReadings(id uuid.UUID, values []float64, start time.Time, interval time.Duration) []model.Reading {
	readings := make([]model.Reading, len(values))
	for i, v := range values {
		readings[i] = model.Reading{
			DeviceID:      id,
			Timestamp:     start.Add(time.Duration(i) * interval),
			PowerWatts:    v,
			StateSnapshot: model.SolarState{OutputWatts: v},
		}
	}
	return readings
}

func newBattery(id uuid.UUID, active bool) *model.Device {
	return &model.Device{
		ID:       id,
		Name:     "battery",
		Type:     model.DeviceBattery,
		IsActive: active,
		Properties: model.BatteryProperties{
			CapacityWh:            10000,
			MaxChargeRateWatts:    5000,
			MaxDischargeRateWatts: 5000,
		},
		State:     model.StorageState{ChargeWh: 5000, Mode: model.ModeIdle},
		CreatedAt: startTime,
		UpdatedAt: startTime,
	}
}

func TestMemory_CreateAndGetDevice(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CreateDevice(ctx, newBattery(deviceID, true)))

	d, err := m.Device(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, "battery", d.Name)

	_, err = m.Device(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMemory_DevicesFilter(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CreateDevice(ctx, newBattery(uuid.New(), true)))
	require.NoError(t, m.CreateDevice(ctx, newBattery(uuid.New(), false)))
	solar := &model.Device{
		ID:         uuid.New(),
		Name:       "solar",
		Type:       model.DeviceSolarPanel,
		IsActive:   true,
		Properties: model.SolarProperties{RatedCapacityWatts: 5000},
		State:      model.SolarState{},
		CreatedAt:  startTime.Add(time.Minute),
	}
	require.NoError(t, m.CreateDevice(ctx, solar))

	all, err := m.Devices(ctx, DeviceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := m.Devices(ctx, DeviceFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	bt := model.DeviceBattery
	batteries, err := m.Devices(ctx, DeviceFilter{Type: &bt, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, batteries, 1)
	assert.Equal(t, model.DeviceBattery, batteries[0].Type)
}

func TestMemory_UpdateDeviceState(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CreateDevice(ctx, newBattery(deviceID, true)))

	at := startTime.Add(time.Minute)
	next := model.StorageState{ChargeWh: 6000, Mode: model.ModeCharging, RateWatts: 3000}
	require.NoError(t, m.UpdateDeviceState(ctx, deviceID, next, at))

	d, err := m.Device(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, next, d.State)
	assert.Equal(t, at, d.UpdatedAt)

	err = m.UpdateDeviceState(ctx, uuid.New(), next, at)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMemory_SetDeviceActive(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CreateDevice(ctx, newBattery(deviceID, true)))

	at := startTime.Add(time.Minute)
	require.NoError(t, m.SetDeviceActive(ctx, deviceID, false, at))

	d, err := m.Device(ctx, deviceID)
	require.NoError(t, err)
	assert.False(t, d.IsActive)
	assert.Equal(t, at, d.UpdatedAt)

	err = m.SetDeviceActive(ctx, uuid.New(), true, at)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMemory_DeviceCopyIsolation(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CreateDevice(ctx, newBattery(deviceID, true)))

	d, err := m.Device(ctx, deviceID)
	require.NoError(t, err)
	d.State = model.StorageState{ChargeWh: 0, Mode: model.ModeIdle}

	// Mutating the returned copy must not touch the stored device.
	again, err := m.Device(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, model.StorageState{ChargeWh: 5000, Mode: model.ModeIdle}, again.State)
}

func TestMemory_UpsertReplacesSameTimestamp(t *testing.T) {
	m := NewMemory()
	r := makeReadings(deviceID, []float64{100}, startTime, time.Minute)[0]
	require.NoError(t, m.UpsertReadings(ctx, []model.Reading{r}))

	r.PowerWatts = 250
	require.NoError(t, m.UpsertReadings(ctx, []model.Reading{r}))

	got, err := m.ReadingsInRange(ctx, deviceID, startTime.Add(-time.Hour), startTime.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 250, got[0].PowerWatts, 0.001)
}

func TestMemory_ReadingsInRangeInclusive(t *testing.T) {
	m := NewMemory()
	readings := makeReadings(deviceID, []float64{100, 200, 300, 400, 500}, startTime, time.Hour)
	require.NoError(t, m.UpsertReadings(ctx, readings))

	// Both bounds inclusive
	got, err := m.ReadingsInRange(ctx, deviceID, startTime.Add(time.Hour), startTime.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 200, got[0].PowerWatts, 0.001)
	assert.InDelta(t, 400, got[2].PowerWatts, 0.001)

	got, err = m.ReadingsInRange(ctx, deviceID, startTime.Add(10*time.Hour), startTime.Add(11*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_UpsertKeepsOrder(t *testing.T) {
	m := NewMemory()
	// Insert out of order
	readings := makeReadings(deviceID, []float64{100, 200, 300}, startTime, time.Hour)
	require.NoError(t, m.UpsertReadings(ctx, []model.Reading{readings[2], readings[0], readings[1]}))

	got, err := m.ReadingsInRange(ctx, deviceID, startTime, startTime.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.InDelta(t, 100, got[0].PowerWatts, 0.001)
	assert.InDelta(t, 200, got[1].PowerWatts, 0.001)
	assert.InDelta(t, 300, got[2].PowerWatts, 0.001)
}

func TestMemory_AggregateHourBuckets(t *testing.T) {
	m := NewMemory()
	readings := []model.Reading{
		{DeviceID: deviceID, Timestamp: startTime.Add(5 * time.Minute), PowerWatts: 100},
		{DeviceID: deviceID, Timestamp: startTime.Add(40 * time.Minute), PowerWatts: 300},
		{DeviceID: deviceID, Timestamp: startTime.Add(70 * time.Minute), PowerWatts: 500},
	}
	require.NoError(t, m.UpsertReadings(ctx, readings))

	buckets, err := m.Aggregate(ctx, deviceID, startTime, startTime.Add(2*time.Hour), model.IntervalHour)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	// 10:00 bucket holds the 10:05 and 10:40 readings only
	assert.Equal(t, startTime, buckets[0].Period)
	assert.InDelta(t, 200, buckets[0].AvgPower, 0.001)
	assert.InDelta(t, 300, buckets[0].MaxPower, 0.001)
	assert.InDelta(t, 100, buckets[0].MinPower, 0.001)

	// 11:00 bucket holds only the 11:10 reading
	assert.Equal(t, startTime.Add(time.Hour), buckets[1].Period)
	assert.InDelta(t, 500, buckets[1].AvgPower, 0.001)
}

func TestMemory_AggregateOmitsEmptyBuckets(t *testing.T) {
	m := NewMemory()
	readings := []model.Reading{
		{DeviceID: deviceID, Timestamp: startTime, PowerWatts: 100},
		{DeviceID: deviceID, Timestamp: startTime.Add(5 * time.Hour), PowerWatts: 200},
	}
	require.NoError(t, m.UpsertReadings(ctx, readings))

	buckets, err := m.Aggregate(ctx, deviceID, startTime, startTime.Add(6*time.Hour), model.IntervalHour)
	require.NoError(t, err)
	// Hours 11:00-14:00 had no readings and must not appear.
	require.Len(t, buckets, 2)
	assert.Equal(t, startTime, buckets[0].Period)
	assert.Equal(t, startTime.Add(5*time.Hour), buckets[1].Period)
}

func TestMemory_AggregateChargeIgnoresMissing(t *testing.T) {
	m := NewMemory()
	charge := 6000.0
	readings := []model.Reading{
		{DeviceID: deviceID, Timestamp: startTime.Add(5 * time.Minute), PowerWatts: 100, ChargeWh: &charge},
		{DeviceID: deviceID, Timestamp: startTime.Add(10 * time.Minute), PowerWatts: 200},
	}
	require.NoError(t, m.UpsertReadings(ctx, readings))

	buckets, err := m.Aggregate(ctx, deviceID, startTime, startTime.Add(time.Hour), model.IntervalHour)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.NotNil(t, buckets[0].AvgCharge)
	// Average over the one reading that carried a charge
	assert.InDelta(t, 6000, *buckets[0].AvgCharge, 0.001)
}

func TestMemory_AggregateNoChargeYieldsNil(t *testing.T) {
	m := NewMemory()
	readings := makeReadings(deviceID, []float64{100, 200}, startTime, time.Minute)
	require.NoError(t, m.UpsertReadings(ctx, readings))

	buckets, err := m.Aggregate(ctx, deviceID, startTime, startTime.Add(time.Hour), model.IntervalHour)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Nil(t, buckets[0].AvgCharge)
}

func TestMemory_ApplyTick(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.CreateDevice(ctx, newBattery(deviceID, true)))

	at := startTime.Add(time.Minute)
	charge := 6000.0
	states := map[uuid.UUID]model.State{
		deviceID: model.StorageState{ChargeWh: 6000, Mode: model.ModeCharging, RateWatts: 3000},
	}
	readings := []model.Reading{{
		DeviceID:      deviceID,
		Timestamp:     at,
		PowerWatts:    -3000,
		ChargeWh:      &charge,
		StateSnapshot: states[deviceID],
	}}

	require.NoError(t, m.ApplyTick(ctx, states, readings, at))

	d, err := m.Device(ctx, deviceID)
	require.NoError(t, err)
	assert.Equal(t, states[deviceID], d.State)

	got, err := m.ReadingsInRange(ctx, deviceID, at, at)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, -3000, got[0].PowerWatts, 0.001)
}
