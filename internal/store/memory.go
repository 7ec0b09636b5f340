package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"energy_manager/internal/model"
)

// Memory holds devices and readings in memory, with readings kept
// sorted by timestamp per device. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	devices  map[uuid.UUID]*model.Device
	readings map[uuid.UUID][]model.Reading
}

func NewMemory() *Memory {
	return &Memory{
		devices:  make(map[uuid.UUID]*model.Device),
		readings: make(map[uuid.UUID][]model.Reading),
	}
}

func (m *Memory) CreateDevice(_ context.Context, d *model.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.devices[d.ID] = &cp
	return nil
}

func (m *Memory) Device(_ context.Context, id uuid.UUID) (*model.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *Memory) Devices(_ context.Context, f DeviceFilter) ([]*model.Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Device, 0, len(m.devices))
	for _, d := range m.devices {
		if f.ActiveOnly && !d.IsActive {
			continue
		}
		if f.Type != nil && d.Type != *f.Type {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	// Map iteration order is random; keep listings stable.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateDeviceState(_ context.Context, id uuid.UUID, s model.State, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateStateLocked(id, s, at)
}

func (m *Memory) updateStateLocked(id uuid.UUID, s model.State, at time.Time) error {
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.State = s
	d.UpdatedAt = at
	return nil
}

func (m *Memory) SetDeviceActive(_ context.Context, id uuid.UUID, active bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.IsActive = active
	d.UpdatedAt = at
	return nil
}

func (m *Memory) UpsertReadings(_ context.Context, readings []model.Reading) error {
	if len(readings) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range readings {
		m.upsertLocked(r)
	}
	return nil
}

// upsertLocked inserts r in timestamp order, replacing an existing
// reading at the same timestamp.
func (m *Memory) upsertLocked(r model.Reading) {
	all := m.readings[r.DeviceID]
	idx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(r.Timestamp)
	})
	if idx < len(all) && all[idx].Timestamp.Equal(r.Timestamp) {
		all[idx] = r
		return
	}
	all = append(all, model.Reading{})
	copy(all[idx+1:], all[idx:])
	all[idx] = r
	m.readings[r.DeviceID] = all
}

// ReadingsInRange returns readings with start <= timestamp <= end.
func (m *Memory) ReadingsInRange(_ context.Context, deviceID uuid.UUID, start, end time.Time) ([]model.Reading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.readings[deviceID]
	if len(all) == 0 {
		return nil, nil
	}

	startIdx := sort.Search(len(all), func(i int) bool {
		return !all[i].Timestamp.Before(start)
	})
	endIdx := sort.Search(len(all), func(i int) bool {
		return all[i].Timestamp.After(end)
	})
	if startIdx >= endIdx {
		return nil, nil
	}

	out := make([]model.Reading, endIdx-startIdx)
	copy(out, all[startIdx:endIdx])
	return out, nil
}

func (m *Memory) Aggregate(ctx context.Context, deviceID uuid.UUID, start, end time.Time, interval model.Interval) ([]model.AggregateBucket, error) {
	readings, err := m.ReadingsInRange(ctx, deviceID, start, end)
	if err != nil {
		return nil, err
	}
	return aggregateReadings(readings, interval), nil
}

// aggregateReadings buckets readings by truncated period and computes
// per-bucket statistics. The charge average skips readings without a
// charge value.
func aggregateReadings(readings []model.Reading, interval model.Interval) []model.AggregateBucket {
	type acc struct {
		powerSum           float64
		powerMin, powerMax float64
		count              int
		chargeSum          float64
		chargeCount        int
	}

	buckets := make(map[time.Time]*acc)
	var periods []time.Time

	for _, r := range readings {
		period := interval.Truncate(r.Timestamp)
		a, ok := buckets[period]
		if !ok {
			a = &acc{powerMin: r.PowerWatts, powerMax: r.PowerWatts}
			buckets[period] = a
			periods = append(periods, period)
		}
		a.powerSum += r.PowerWatts
		a.count++
		if r.PowerWatts < a.powerMin {
			a.powerMin = r.PowerWatts
		}
		if r.PowerWatts > a.powerMax {
			a.powerMax = r.PowerWatts
		}
		if r.ChargeWh != nil {
			a.chargeSum += *r.ChargeWh
			a.chargeCount++
		}
	}

	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	out := make([]model.AggregateBucket, 0, len(periods))
	for _, period := range periods {
		a := buckets[period]
		b := model.AggregateBucket{
			Period:   period,
			AvgPower: a.powerSum / float64(a.count),
			MaxPower: a.powerMax,
			MinPower: a.powerMin,
		}
		if a.chargeCount > 0 {
			avg := a.chargeSum / float64(a.chargeCount)
			b.AvgCharge = &avg
		}
		out = append(out, b)
	}
	return out
}

// ApplyTick applies one tick's state updates and readings under a
// single lock, so a concurrent read sees either none or all of them.
func (m *Memory) ApplyTick(_ context.Context, states map[uuid.UUID]model.State, readings []model.Reading, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range states {
		if err := m.updateStateLocked(id, s, at); err != nil {
			return err
		}
	}
	for _, r := range readings {
		m.upsertLocked(r)
	}
	return nil
}
