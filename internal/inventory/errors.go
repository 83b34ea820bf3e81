package inventory

import "errors"

// Domain errors for the inventory package.
var (
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("inventory: device not found")

	// ErrDeviceExists is returned when creating a device whose ID is
	// already present.
	ErrDeviceExists = errors.New("inventory: device already exists")

	// ErrInvalidDevice is returned when a device fails validation.
	ErrInvalidDevice = errors.New("inventory: invalid device")
)
