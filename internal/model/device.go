package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type DeviceType string

const (
	DeviceSolarPanel      DeviceType = "solar_panel"
	DeviceBattery         DeviceType = "battery"
	DeviceElectricVehicle DeviceType = "electric_vehicle"
	DeviceAppliance       DeviceType = "appliance"
)

// DeviceTypes lists every known device type.
var DeviceTypes = []DeviceType{
	DeviceSolarPanel,
	DeviceBattery,
	DeviceElectricVehicle,
	DeviceAppliance,
}

type StorageMode string

const (
	ModeCharging    StorageMode = "charging"
	ModeDischarging StorageMode = "discharging"
	ModeIdle        StorageMode = "idle"
)

// StorageModes lists every known storage mode.
var StorageModes = []StorageMode{ModeCharging, ModeDischarging, ModeIdle}

// Properties is the static, type-specific configuration of a device,
// set once at registration. It is a sealed union: exactly one concrete
// properties type exists per device type.
type Properties interface {
	isProperties()
}

type SolarProperties struct {
	RatedCapacityWatts float64 `json:"rated_capacity_watts"`
}

type BatteryProperties struct {
	CapacityWh            float64 `json:"capacity_wh"`
	MaxChargeRateWatts    float64 `json:"max_charge_rate_watts"`
	MaxDischargeRateWatts float64 `json:"max_discharge_rate_watts"`
}

type EVProperties struct {
	BatteryCapacityWh     float64 `json:"battery_capacity_wh"`
	MaxChargeRateWatts    float64 `json:"max_charge_rate_watts"`
	MaxDischargeRateWatts float64 `json:"max_discharge_rate_watts"`
}

type ApplianceProperties struct {
	AveragePowerDrawWatts float64 `json:"average_power_draw_watts"`
}

func (SolarProperties) isProperties()     {}
func (BatteryProperties) isProperties()   {}
func (EVProperties) isProperties()        {}
func (ApplianceProperties) isProperties() {}

// State is the mutable operating state of a device. Like Properties it
// is a sealed union; battery and electric vehicle share StorageState.
type State interface {
	isState()
}

type SolarState struct {
	OutputWatts float64 `json:"output_watts"`
}

type StorageState struct {
	ChargeWh  float64     `json:"charge_wh"`
	Mode      StorageMode `json:"mode"`
	RateWatts float64     `json:"rate_watts"`
}

type ApplianceState struct {
	IsOn           bool    `json:"is_on"`
	PowerDrawWatts float64 `json:"power_draw_watts"`
}

func (SolarState) isState()     {}
func (StorageState) isState()   {}
func (ApplianceState) isState() {}

// Device is one home energy device: an immutable type tag, static
// configuration, and the operating state advanced by the simulation.
type Device struct {
	ID          uuid.UUID
	Name        string
	Description string
	Type        DeviceType
	IsActive    bool
	Properties  Properties
	State       State
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsStorage reports whether the device has chargeable state and an
// operating mode (battery or electric vehicle).
func (d *Device) IsStorage() bool {
	return d.Type == DeviceBattery || d.Type == DeviceElectricVehicle
}

// CapacityWh returns the storage capacity for battery and electric
// vehicle devices. ok is false for the other types.
func (d *Device) CapacityWh() (float64, bool) {
	switch p := d.Properties.(type) {
	case BatteryProperties:
		return p.CapacityWh, true
	case EVProperties:
		return p.BatteryCapacityWh, true
	}
	return 0, false
}

// CurrentPowerWatts returns the device's instantaneous power under the
// signed convention: producing is positive, consuming is negative,
// idle or off is zero.
func (d *Device) CurrentPowerWatts() float64 {
	switch s := d.State.(type) {
	case SolarState:
		return s.OutputWatts
	case ApplianceState:
		if s.IsOn {
			return -s.PowerDrawWatts
		}
		return 0
	case StorageState:
		switch s.Mode {
		case ModeDischarging:
			return s.RateWatts
		case ModeCharging:
			return -s.RateWatts
		}
		return 0
	}
	return 0
}

// ChargePercent returns the storage charge as a percentage of capacity.
// ok is false for non-storage devices; a zero capacity yields 0.
func (d *Device) ChargePercent() (float64, bool) {
	capacity, ok := d.CapacityWh()
	if !ok {
		return 0, false
	}
	s, ok := d.State.(StorageState)
	if !ok {
		return 0, false
	}
	if capacity <= 0 {
		return 0, true
	}
	return s.ChargeWh / capacity * 100, true
}

// IsProducer reports whether the device is currently feeding power in.
func (d *Device) IsProducer() bool {
	return d.CurrentPowerWatts() > 0
}

// IsConsumer reports whether the device is currently drawing power.
func (d *Device) IsConsumer() bool {
	return d.CurrentPowerWatts() < 0
}

// UnmarshalProperties decodes the JSON properties document for the
// given device type into its concrete variant.
func UnmarshalProperties(t DeviceType, data []byte) (Properties, error) {
	switch t {
	case DeviceSolarPanel:
		var p SolarProperties
		return p, json.Unmarshal(data, &p)
	case DeviceBattery:
		var p BatteryProperties
		return p, json.Unmarshal(data, &p)
	case DeviceElectricVehicle:
		var p EVProperties
		return p, json.Unmarshal(data, &p)
	case DeviceAppliance:
		var p ApplianceProperties
		return p, json.Unmarshal(data, &p)
	}
	return nil, fmt.Errorf("unmarshal properties: unknown device type %q", t)
}

// UnmarshalState decodes the JSON state document for the given device
// type into its concrete variant.
func UnmarshalState(t DeviceType, data []byte) (State, error) {
	switch t {
	case DeviceSolarPanel:
		var s SolarState
		return s, json.Unmarshal(data, &s)
	case DeviceBattery, DeviceElectricVehicle:
		var s StorageState
		return s, json.Unmarshal(data, &s)
	case DeviceAppliance:
		var s ApplianceState
		return s, json.Unmarshal(data, &s)
	}
	return nil, fmt.Errorf("unmarshal state: unknown device type %q", t)
}
