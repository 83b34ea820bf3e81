package reconcile

import (
	"sort"
	"time"

	"github.com/ferrohaus/featsync/internal/entity"
)

// Set is a set of entity identifiers.
type Set map[entity.Identifier]struct{}

// Sorted returns the set's members in lexicographic order.
func (s Set) Sorted() []entity.Identifier {
	ids := make([]entity.Identifier, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Contains reports set membership.
func (s Set) Contains(id entity.Identifier) bool {
	_, ok := s[id]
	return ok
}

// Delta is the minimal corrective action between required and observed
// entity sets. ToCreate and ToRemove are sorted and always disjoint.
type Delta struct {
	ToCreate []entity.Identifier
	ToRemove []entity.Identifier
}

// Empty reports whether the delta requires no action.
func (d Delta) Empty() bool {
	return len(d.ToCreate) == 0 && len(d.ToRemove) == 0
}

// Write operation labels used in failure reports.
const (
	OpCreate = "create"
	OpRemove = "remove"
)

// WriteFailure records one failed registry write. Failures never abort a
// pass; they are accumulated so the caller can retry or alert.
type WriteFailure struct {
	ID  entity.Identifier
	Op  string
	Err error
}

// Report aggregates the outcome of a single reconciliation pass.
type Report struct {
	// RunID uniquely identifies this pass for audit correlation.
	RunID string

	StartedAt time.Time
	Duration  time.Duration

	// RequiredCount and ObservedCount are the sizes of the two sets the
	// delta was computed from.
	RequiredCount int
	ObservedCount int

	// Created and Removed list the identifiers successfully written.
	Created []entity.Identifier
	Removed []entity.Identifier

	// Failures lists registry writes that failed, per identifier.
	Failures []WriteFailure

	// UnknownFeatures lists matrix feature IDs with no current
	// definition, deduplicated (stale matrix entries are expected after
	// a feature is retired).
	UnknownFeatures []string

	// TemplateErrors counts entities omitted because their template
	// could not be satisfied.
	TemplateErrors int

	// ReadFailed is set when the registry listing failed and the pass
	// degraded to an empty observed set (create-only, removes none).
	ReadFailed bool
}

// FailedCount returns the number of failed registry writes.
func (r *Report) FailedCount() int {
	return len(r.Failures)
}
