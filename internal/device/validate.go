// Package device holds the validation engine and the registration and
// mode-change operations for the device fleet.
package device

import (
	"energy_manager/internal/model"
)

// requiredProperties maps each device type to its exact property schema.
var requiredProperties = map[model.DeviceType][]string{
	model.DeviceSolarPanel:      {"rated_capacity_watts"},
	model.DeviceBattery:         {"capacity_wh", "max_charge_rate_watts", "max_discharge_rate_watts"},
	model.DeviceElectricVehicle: {"battery_capacity_wh", "max_charge_rate_watts", "max_discharge_rate_watts"},
	model.DeviceAppliance:       {"average_power_draw_watts"},
}

// ParseDeviceType validates a device type name.
func ParseDeviceType(s string) (model.DeviceType, error) {
	for _, t := range model.DeviceTypes {
		if model.DeviceType(s) == t {
			return t, nil
		}
	}
	return "", ErrUnknownDeviceType
}

// ParseMode validates a storage mode name.
func ParseMode(s string) (model.StorageMode, error) {
	for _, m := range model.StorageModes {
		if model.StorageMode(s) == m {
			return m, nil
		}
	}
	return "", ErrUnknownMode
}

// ParseProperties validates the raw property map against the schema for
// t and builds the typed variant. Every missing required key is
// reported together; any negative value is rejected. Keys outside the
// schema are ignored, the variant cannot carry them.
func ParseProperties(t model.DeviceType, raw map[string]float64) (model.Properties, error) {
	required, ok := requiredProperties[t]
	if !ok {
		return nil, ErrUnknownDeviceType
	}

	var missing []string
	for _, key := range required {
		if _, present := raw[key]; !present {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingPropertiesError{Type: t, Keys: missing}
	}

	for _, key := range required {
		if raw[key] < 0 {
			return nil, &InvalidPropertyValueError{Key: key, Value: raw[key]}
		}
	}

	switch t {
	case model.DeviceSolarPanel:
		return model.SolarProperties{
			RatedCapacityWatts: raw["rated_capacity_watts"],
		}, nil
	case model.DeviceBattery:
		return model.BatteryProperties{
			CapacityWh:            raw["capacity_wh"],
			MaxChargeRateWatts:    raw["max_charge_rate_watts"],
			MaxDischargeRateWatts: raw["max_discharge_rate_watts"],
		}, nil
	case model.DeviceElectricVehicle:
		return model.EVProperties{
			BatteryCapacityWh:     raw["battery_capacity_wh"],
			MaxChargeRateWatts:    raw["max_charge_rate_watts"],
			MaxDischargeRateWatts: raw["max_discharge_rate_watts"],
		}, nil
	case model.DeviceAppliance:
		return model.ApplianceProperties{
			AveragePowerDrawWatts: raw["average_power_draw_watts"],
		}, nil
	}
	return nil, ErrUnknownDeviceType
}

// InitialState returns the canonical starting state for a freshly
// registered device: batteries at 50% charge idle, electric vehicles
// at 80% idle, appliances off, solar at zero output.
func InitialState(p model.Properties) model.State {
	switch p := p.(type) {
	case model.SolarProperties:
		return model.SolarState{OutputWatts: 0}
	case model.BatteryProperties:
		return model.StorageState{
			ChargeWh: p.CapacityWh * 0.5,
			Mode:     model.ModeIdle,
		}
	case model.EVProperties:
		return model.StorageState{
			ChargeWh: p.BatteryCapacityWh * 0.8,
			Mode:     model.ModeIdle,
		}
	case model.ApplianceProperties:
		return model.ApplianceState{IsOn: false, PowerDrawWatts: 0}
	}
	return nil
}
