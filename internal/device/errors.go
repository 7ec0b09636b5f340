package device

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"energy_manager/internal/model"
)

var (
	// ErrUnknownDeviceType is returned for a device type outside the
	// four known kinds.
	ErrUnknownDeviceType = errors.New("unknown device type")

	// ErrUnknownMode is returned for a storage mode outside
	// charging/discharging/idle.
	ErrUnknownMode = errors.New("unknown storage mode")

	// ErrNotAStorageDevice is returned when a mode change targets a
	// device without an operating mode.
	ErrNotAStorageDevice = errors.New("only storage devices have operating modes")
)

// MissingPropertiesError reports every required property absent from a
// registration request, not just the first.
type MissingPropertiesError struct {
	Type model.DeviceType
	Keys []string
}

func (e *MissingPropertiesError) Error() string {
	keys := append([]string(nil), e.Keys...)
	sort.Strings(keys)
	return fmt.Sprintf("missing required properties for %s: %s", e.Type, strings.Join(keys, ", "))
}

// InvalidPropertyValueError reports a negative property value.
type InvalidPropertyValueError struct {
	Key   string
	Value float64
}

func (e *InvalidPropertyValueError) Error() string {
	return fmt.Sprintf("property %q must be non-negative, got %v", e.Key, e.Value)
}

// IsValidationError reports whether err is one of the registration
// validation failures.
func IsValidationError(err error) bool {
	var missing *MissingPropertiesError
	var invalid *InvalidPropertyValueError
	return errors.Is(err, ErrUnknownDeviceType) ||
		errors.As(err, &missing) ||
		errors.As(err, &invalid)
}
