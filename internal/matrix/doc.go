// Package matrix provides the device/feature matrix for Featsync.
//
// The matrix is the single source of truth for which features an operator
// has enabled on which devices. It is deliberately dumb: a sparse boolean
// mapping with set-style accessors, no validation against the feature
// catalogue, and no knowledge of entities. Absence of an entry always means
// disabled.
//
// The matrix is passed by reference to every component that needs it; no
// component reads enablement state through ambient/global channels.
//
// Snapshot/Restore round-trip the state exactly, and SQLiteStore persists
// snapshots to the feature_flags table. Restore is all-or-nothing: a
// malformed snapshot leaves the matrix untouched.
package matrix
