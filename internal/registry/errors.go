package registry

import "errors"

// Domain errors for the registry package.
var (
	// ErrCreateFailed is returned when publishing an entity config fails.
	ErrCreateFailed = errors.New("registry: entity create failed")

	// ErrRemoveFailed is returned when clearing an entity config fails.
	ErrRemoveFailed = errors.New("registry: entity remove failed")

	// ErrListFailed is returned when the retained-config observation
	// cannot be started.
	ErrListFailed = errors.New("registry: entity list failed")

	// ErrInvalidIdentifier is returned for identifiers that cannot be
	// mapped onto a discovery topic.
	ErrInvalidIdentifier = errors.New("registry: invalid entity identifier")
)
