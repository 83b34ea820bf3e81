package entity

import "errors"

// Domain errors for the entity package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, entity.ErrTemplate) {
//	    // skip the offending template, keep the pass going
//	}
var (
	// ErrTemplate is returned when a name template cannot be satisfied:
	// an unknown placeholder, a missing parameter, or a template that does
	// not reference the device identifier exactly once.
	ErrTemplate = errors.New("entity: invalid template")
)
