package simulator

import (
	"math"
	"time"

	"energy_manager/internal/model"
)

// reserveFraction is the discharge floor: storage is never drained
// below this fraction of capacity.
const reserveFraction = 0.1

// NextStorageState integrates the charge over one tick according to
// the current mode and rate. Charging is capped at capacity,
// discharging at the reserve floor. Hitting either bound switches the
// device to idle in the same transition, so no tick leaves a device
// overshooting with an active mode.
func NextStorageState(capacityWh float64, prev model.StorageState, tick time.Duration) model.StorageState {
	next := prev
	deltaWh := prev.RateWatts * tick.Seconds() / 3600

	switch prev.Mode {
	case model.ModeCharging:
		next.ChargeWh = math.Min(prev.ChargeWh+deltaWh, capacityWh)
		if next.ChargeWh >= capacityWh {
			next.Mode = model.ModeIdle
			next.RateWatts = 0
		}
	case model.ModeDischarging:
		floor := capacityWh * reserveFraction
		next.ChargeWh = math.Max(prev.ChargeWh-deltaWh, floor)
		if next.ChargeWh <= floor {
			next.Mode = model.ModeIdle
			next.RateWatts = 0
		}
	}
	return next
}
