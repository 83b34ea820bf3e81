// Package database provides SQLite connectivity for Featsync.
//
// It manages the single durable store used by the core:
//   - feature_flags: the persisted device/feature matrix
//   - devices: the device inventory
//   - reconcile_runs: the reconciliation audit trail
//
// The package wraps database/sql with WAL-mode pragmas, restricted file
// permissions, health checks, and an embedded-filesystem migration runner.
// Migration SQL lives in the top-level migrations/ package and is compiled
// into the binary, so deployments never need loose .sql files.
package database
