package reconcile

import "errors"

// Domain errors for the reconcile package.
var (
	// ErrDeviceList is returned when the device inventory cannot be
	// listed. The pass aborts before any registry writes: without a
	// device list the required set cannot be computed, and guessing
	// would risk removing live entities.
	ErrDeviceList = errors.New("reconcile: device listing failed")
)
