package reconcile

import (
	"github.com/ferrohaus/featsync/internal/entity"
)

// Diff computes the minimal corrective delta between the required set and
// an observed listing: create what is required but unobserved, remove
// what is observed but no longer required.
//
// Identifiers present in both sets appear in neither list, so entities
// that are already correct are never touched.
func Diff(required Set, observed []entity.Identifier) Delta {
	observedSet := make(Set, len(observed))
	for _, id := range observed {
		observedSet[id] = struct{}{}
	}

	var delta Delta
	for _, id := range required.Sorted() {
		if !observedSet.Contains(id) {
			delta.ToCreate = append(delta.ToCreate, id)
		}
	}
	for _, id := range observedSet.Sorted() {
		if !required.Contains(id) {
			delta.ToRemove = append(delta.ToRemove, id)
		}
	}
	return delta
}
