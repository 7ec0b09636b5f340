package simulator

import (
	"energy_manager/internal/model"
)

const (
	applianceOnProbability  = 0.3
	applianceOffProbability = 0.2
	appliancePowerVariance  = 0.1
)

// NextApplianceState advances the on/off Markov toggle: a running
// appliance turns off with probability 0.2, a stopped one turns on
// with probability 0.3. While on, the draw varies ±10% around the
// configured average.
func NextApplianceState(p model.ApplianceProperties, prev model.ApplianceState, rng RNG) model.ApplianceState {
	var on bool
	if prev.IsOn {
		on = rng.Float64() >= applianceOffProbability
	} else {
		on = rng.Float64() < applianceOnProbability
	}

	if !on {
		return model.ApplianceState{IsOn: false, PowerDrawWatts: 0}
	}
	draw := p.AveragePowerDrawWatts * (1 + uniform(rng, -appliancePowerVariance, appliancePowerVariance))
	return model.ApplianceState{IsOn: true, PowerDrawWatts: draw}
}
