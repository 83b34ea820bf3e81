package matrix

import "errors"

// Domain errors for the matrix package.
var (
	// ErrInvalidSnapshot is returned when a persisted snapshot is
	// malformed. The restore is rejected as a whole; the matrix keeps
	// whatever state it had before the attempt.
	ErrInvalidSnapshot = errors.New("matrix: invalid snapshot")
)
