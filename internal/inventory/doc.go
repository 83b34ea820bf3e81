// Package inventory manages the device fleet known to Featsync.
//
// A Device couples a hardware identifier with a human name and a set of
// classification slugs. Slugs drive feature eligibility: a feature
// definition lists the slugs it applies to, and the reconciler only
// considers a feature for devices whose slug set intersects it.
//
// The package follows the repository pattern: Repository abstracts
// persistence (SQLiteRepository is the production implementation) and
// Registry layers a read-through cache on top for fast lookups during
// reconciliation passes.
package inventory
