// Package reconcile keeps the external entity registry in step with the
// device/feature matrix.
//
// A reconciliation pass computes the required entity set from the matrix,
// the feature catalogue, and the device inventory, observes what the
// registry currently holds, and issues the minimal create/remove delta.
// Entities present in both sets are never touched.
//
// The package is built around one safety property: no transient failure
// may ever delete a live entity. A registry read failure degrades the
// observed set to empty (create-only pass); a device-inventory failure
// aborts before any writes; individual write failures are accumulated
// into the pass report without stopping the rest of the delta.
//
// Manager serialises passes with a mutex, so concurrent triggers queue
// rather than diff against a registry state another pass is mutating.
// ComputeRequired and Diff are pure and deterministic, which is what
// makes the incremental ApplyMatrixChange path provably equivalent to a
// full pass when the registry matched the old required set.
package reconcile
