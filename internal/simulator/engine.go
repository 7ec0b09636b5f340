// Package simulator advances device operating state tick by tick. The
// per-type transition models are pure functions over the previous
// state; the Engine batches them over the active fleet and persists
// the results.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"energy_manager/internal/model"
	"energy_manager/internal/store"
)

// DefaultTickDuration is the simulated interval one tick covers.
const DefaultTickDuration = 60 * time.Second

// ErrTickInFlight is returned when a tick is requested while the
// previous one is still running. The caller should drop the trigger;
// ticks are never interleaved.
var ErrTickInFlight = errors.New("simulation tick already in flight")

// Publisher receives each tick's readings after they are persisted.
type Publisher interface {
	Publish(ctx context.Context, readings []model.Reading) error
}

// DeviceFailure records one device that could not be simulated during
// a batch tick.
type DeviceFailure struct {
	DeviceID uuid.UUID `json:"device_id"`
	Name     string    `json:"name"`
	Err      string    `json:"error"`
}

// TickResult summarizes one batch tick.
type TickResult struct {
	Timestamp time.Time       `json:"timestamp"`
	Processed int             `json:"processed"`
	Failures  []DeviceFailure `json:"failures,omitempty"`
}

// Engine runs batch simulation ticks over the active device fleet.
type Engine struct {
	mu    sync.Mutex // held for the whole tick; TryLock rejects overlap
	store store.Store
	log   *slog.Logger

	rng  RNG
	now  func() time.Time
	tick time.Duration
	pub  Publisher
}

func New(s store.Store, log *slog.Logger) *Engine {
	return &Engine{
		store: s,
		log:   log,
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:   time.Now,
		tick:  DefaultTickDuration,
	}
}

// SetRNG replaces the randomness source. Seed it for reproducible runs.
func (e *Engine) SetRNG(rng RNG) { e.rng = rng }

// SetClock overrides the wall clock, for tests.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// SetTickDuration sets the simulated interval covered by one tick.
func (e *Engine) SetTickDuration(d time.Duration) {
	if d > 0 {
		e.tick = d
	}
}

// SetPublisher adds a post-persist reading publisher. Pass nil to
// disable.
func (e *Engine) SetPublisher(p Publisher) { e.pub = p }

// NextState computes one device's state after a tick at the given
// timestamp. Pure apart from the RNG draw; the caller applies the
// result.
func NextState(d *model.Device, at time.Time, tick time.Duration, rng RNG) (model.State, error) {
	switch d.Type {
	case model.DeviceSolarPanel:
		p, ok := d.Properties.(model.SolarProperties)
		if !ok {
			return nil, fmt.Errorf("device %s: properties are not solar properties", d.ID)
		}
		return NextSolarState(p, at, rng), nil

	case model.DeviceAppliance:
		p, pok := d.Properties.(model.ApplianceProperties)
		s, sok := d.State.(model.ApplianceState)
		if !pok || !sok {
			return nil, fmt.Errorf("device %s: appliance with mismatched properties or state", d.ID)
		}
		return NextApplianceState(p, s, rng), nil

	case model.DeviceBattery, model.DeviceElectricVehicle:
		capacity, ok := d.CapacityWh()
		if !ok {
			return nil, fmt.Errorf("device %s: storage device without capacity", d.ID)
		}
		s, ok := d.State.(model.StorageState)
		if !ok {
			return nil, fmt.Errorf("device %s: state is not storage state", d.ID)
		}
		return NextStorageState(capacity, s, tick), nil
	}
	return nil, fmt.Errorf("device %s: unknown device type %q", d.ID, d.Type)
}

// ReadingFor records the device's telemetry at ts: signed power, the
// charge level for storage devices, and a snapshot of the state.
func ReadingFor(d *model.Device, ts time.Time) model.Reading {
	r := model.Reading{
		DeviceID:      d.ID,
		Timestamp:     ts,
		PowerWatts:    d.CurrentPowerWatts(),
		StateSnapshot: d.State,
	}
	if s, ok := d.State.(model.StorageState); ok {
		charge := s.ChargeWh
		r.ChargeWh = &charge
	}
	return r
}

// SimulateTick advances every active device by one tick at the given
// timestamp (zero means now) and persists states and readings as one
// batch. A failure on one device is recorded and does not abort the
// rest. Returns ErrTickInFlight when called while a tick is running.
func (e *Engine) SimulateTick(ctx context.Context, at time.Time) (TickResult, error) {
	if !e.mu.TryLock() {
		return TickResult{}, ErrTickInFlight
	}
	defer e.mu.Unlock()

	if at.IsZero() {
		at = e.now().UTC()
	}

	devices, err := e.store.Devices(ctx, store.DeviceFilter{ActiveOnly: true})
	if err != nil {
		return TickResult{}, fmt.Errorf("list active devices: %w", err)
	}

	result := TickResult{Timestamp: at}
	states := make(map[uuid.UUID]model.State, len(devices))
	readings := make([]model.Reading, 0, len(devices))

	// Compute every transition in memory before touching the store.
	for _, d := range devices {
		next, err := NextState(d, at, e.tick, e.rng)
		if err != nil {
			e.log.Warn("device simulation failed", "device", d.ID, "name", d.Name, "err", err)
			result.Failures = append(result.Failures, DeviceFailure{
				DeviceID: d.ID,
				Name:     d.Name,
				Err:      err.Error(),
			})
			continue
		}
		d.State = next
		states[d.ID] = next
		readings = append(readings, ReadingFor(d, at))
	}

	if len(states) > 0 {
		if err := e.store.ApplyTick(ctx, states, readings, at); err != nil {
			return result, fmt.Errorf("persist tick: %w", err)
		}
	}
	result.Processed = len(states)

	if e.pub != nil && len(readings) > 0 {
		// Publishing is best effort; the tick already committed.
		if err := e.pub.Publish(ctx, readings); err != nil {
			e.log.Error("publish readings failed", "count", len(readings), "err", err)
		}
	}

	e.log.Info("tick complete", "at", at, "processed", result.Processed, "failed", len(result.Failures))
	return result, nil
}

// Run invokes a tick every interval until ctx is cancelled. Intended
// for the server's scheduler goroutine.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	e.log.Info("simulation loop started", "interval", interval.String())
	for {
		select {
		case <-ctx.Done():
			e.log.Info("simulation loop stopped")
			return
		case now := <-t.C:
			if _, err := e.SimulateTick(ctx, now.UTC()); err != nil {
				if errors.Is(err, ErrTickInFlight) {
					e.log.Warn("tick skipped, previous still running")
					continue
				}
				e.log.Error("tick failed", "err", err)
			}
		}
	}
}
