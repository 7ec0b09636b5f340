package simulator

import (
	"math"
	"time"

	"energy_manager/internal/model"
)

const (
	solarSunriseHour = 6.0
	solarSunsetHour  = 20.0
	solarPeakHour    = 12.0
	solarCurveWidth  = 4.0
	solarVariance    = 0.15
)

// solarBaseOutput is the deterministic bell curve over the fractional
// hour of day: rated capacity at noon, zero outside daylight.
func solarBaseOutput(ratedWatts float64, at time.Time) float64 {
	hour := float64(at.Hour()) + float64(at.Minute())/60.0
	if hour < solarSunriseHour || hour > solarSunsetHour {
		return 0
	}
	exponent := -math.Pow(hour-solarPeakHour, 2) / (2 * solarCurveWidth * solarCurveWidth)
	return ratedWatts * math.Exp(exponent)
}

// NextSolarState computes the panel output for the tick timestamp:
// the daylight curve with a ±15% random variation, clamped to
// [0, rated capacity].
func NextSolarState(p model.SolarProperties, at time.Time, rng RNG) model.SolarState {
	base := solarBaseOutput(p.RatedCapacityWatts, at)
	if base == 0 {
		return model.SolarState{OutputWatts: 0}
	}
	output := base * (1 + uniform(rng, -solarVariance, solarVariance))
	output = math.Max(0, math.Min(output, p.RatedCapacityWatts))
	return model.SolarState{OutputWatts: output}
}
