package feature

import "errors"

// Domain errors for the feature package.
var (
	// ErrInvalidDefinition is returned when a feature definition is
	// structurally invalid or duplicates another definition's ID.
	ErrInvalidDefinition = errors.New("feature: invalid definition")
)
