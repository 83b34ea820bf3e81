package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ferrohaus/featsync/internal/entity"
	"github.com/ferrohaus/featsync/internal/inventory"
	"github.com/ferrohaus/featsync/internal/matrix"
)

// Registry is the external entity registry the reconciler drives.
// Satisfied by registry.MQTTAdapter.
type Registry interface {
	// List returns the entities currently present in the registry.
	List(ctx context.Context) ([]entity.Identifier, error)

	// Create announces an entity. Idempotent.
	Create(ctx context.Context, id entity.Identifier) error

	// Remove withdraws an entity. Idempotent.
	Remove(ctx context.Context, id entity.Identifier) error
}

// DeviceSource supplies the current device fleet.
// Satisfied by inventory.Registry.
type DeviceSource interface {
	ListDevices(ctx context.Context) ([]inventory.Device, error)
}

// Recorder persists reconciliation pass outcomes (audit table, metrics).
// Recording is best effort: a recorder failure is logged, never fatal.
type Recorder interface {
	RecordRun(ctx context.Context, report *Report) error
}

// Logger defines the logging interface used by the Manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager runs reconciliation passes against the entity registry.
//
// A pass moves through collect-required, collect-observed, diff, and
// apply phases. The mutex serialises passes: a ValidateOnStartup or
// ApplyMatrixChange call made while a pass is in flight queues behind it
// rather than diffing against a registry state the running pass is
// mutating. Matrix mutations themselves stay lock-free and synchronous;
// callers trigger reconciliation explicitly afterwards.
type Manager struct {
	mu sync.Mutex

	matrix   *matrix.Matrix
	defs     DefinitionSource
	devices  DeviceSource
	registry Registry

	recorders []Recorder
	logger    Logger
}

// NewManager creates a reconciliation manager.
func NewManager(m *matrix.Matrix, defs DefinitionSource, devices DeviceSource, reg Registry) *Manager {
	return &Manager{
		matrix:   m,
		defs:     defs,
		devices:  devices,
		registry: reg,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the manager.
func (mgr *Manager) SetLogger(logger Logger) {
	mgr.logger = logger
}

// AddRecorder registers a pass recorder. Call before the first pass.
func (mgr *Manager) AddRecorder(rec Recorder) {
	mgr.recorders = append(mgr.recorders, rec)
}

// ValidateOnStartup runs one full reconciliation pass.
//
// Intended to be called once when the process starts, to repair drift
// accumulated while it was not running, but safe to call at any time.
// Running it twice with no intervening external changes yields an empty
// delta on the second run.
//
// A registry read failure does not abort the pass: the observed set
// degrades to empty, so the pass creates everything required and removes
// nothing. A transient read failure can therefore never delete a live
// entity. The degradation is flagged in Report.ReadFailed and logged as
// a single warning.
//
// Returns:
//   - *Report: Aggregated outcome, including per-identifier write failures
//   - error: Only if the device inventory cannot be listed; no registry
//     writes have been issued in that case
func (mgr *Manager) ValidateOnStartup(ctx context.Context) (*Report, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	report := mgr.newReport()

	devices, err := mgr.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceList, err)
	}

	required, stats := ComputeRequired(mgr.matrix, mgr.defs, devices)
	report.RequiredCount = len(required)
	mgr.applyStats(report, stats)

	observed, err := mgr.registry.List(ctx)
	if err != nil {
		// Degrade to an empty observed set: create-only, remove nothing.
		mgr.logger.Warn("registry listing failed, degrading to empty observed set",
			"run_id", report.RunID, "error", err)
		observed = nil
		report.ReadFailed = true
	}
	report.ObservedCount = len(observed)

	delta := Diff(required, observed)
	if report.ReadFailed && len(delta.ToRemove) > 0 {
		// Unreachable by construction (empty observed set means nothing
		// to remove), but the invariant is load-bearing enough to guard.
		delta.ToRemove = nil
	}

	mgr.apply(ctx, report, delta)
	mgr.finishReport(ctx, report)
	return report, nil
}

// ApplyMatrixChange reconciles an old→new matrix transition without
// consulting the registry listing.
//
// It computes RequiredSet(new) − RequiredSet(old) to create and
// RequiredSet(old) − RequiredSet(new) to remove. When the registry
// already matched the old required set, the result is equivalent to a
// full ValidateOnStartup pass after the change, minus the listing
// round-trip. Entities required by both snapshots are never touched.
//
// Returns:
//   - *Report: Aggregated outcome of the incremental pass
//   - error: If a snapshot is malformed or the device inventory cannot
//     be listed; no registry writes have been issued in either case
func (mgr *Manager) ApplyMatrixChange(ctx context.Context, oldSnap, newSnap matrix.Snapshot) (*Report, error) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	report := mgr.newReport()

	oldMatrix, err := matrix.FromSnapshot(oldSnap)
	if err != nil {
		return nil, fmt.Errorf("restoring old snapshot: %w", err)
	}
	newMatrix, err := matrix.FromSnapshot(newSnap)
	if err != nil {
		return nil, fmt.Errorf("restoring new snapshot: %w", err)
	}

	devices, err := mgr.devices.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDeviceList, err)
	}

	oldRequired, _ := ComputeRequired(oldMatrix, mgr.defs, devices)
	newRequired, stats := ComputeRequired(newMatrix, mgr.defs, devices)
	report.RequiredCount = len(newRequired)
	mgr.applyStats(report, stats)

	delta := Diff(newRequired, oldRequired.Sorted())

	mgr.apply(ctx, report, delta)
	mgr.finishReport(ctx, report)
	return report, nil
}

// apply issues the delta's create and remove calls. Each call is
// independent: one failure is recorded and the rest of the delta still
// runs.
func (mgr *Manager) apply(ctx context.Context, report *Report, delta Delta) {
	for _, id := range delta.ToCreate {
		if err := mgr.registry.Create(ctx, id); err != nil {
			mgr.logger.Error("entity create failed", "run_id", report.RunID, "entity", string(id), "error", err)
			report.Failures = append(report.Failures, WriteFailure{ID: id, Op: OpCreate, Err: err})
			continue
		}
		report.Created = append(report.Created, id)
	}

	for _, id := range delta.ToRemove {
		if err := mgr.registry.Remove(ctx, id); err != nil {
			mgr.logger.Error("entity remove failed", "run_id", report.RunID, "entity", string(id), "error", err)
			report.Failures = append(report.Failures, WriteFailure{ID: id, Op: OpRemove, Err: err})
			continue
		}
		report.Removed = append(report.Removed, id)
	}
}

func (mgr *Manager) newReport() *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

func (mgr *Manager) applyStats(report *Report, stats CalcStats) {
	report.UnknownFeatures = stats.UnknownFeatures
	report.TemplateErrors = stats.TemplateErrors

	// One line per pass, not per pair.
	if len(stats.UnknownFeatures) > 0 {
		mgr.logger.Warn("matrix references unknown features",
			"run_id", report.RunID, "features", stats.UnknownFeatures)
	}
	if stats.TemplateErrors > 0 {
		mgr.logger.Warn("templates could not be satisfied",
			"run_id", report.RunID, "count", stats.TemplateErrors)
	}
}

func (mgr *Manager) finishReport(ctx context.Context, report *Report) {
	report.Duration = time.Since(report.StartedAt)

	mgr.logger.Info("reconciliation pass complete",
		"run_id", report.RunID,
		"required", report.RequiredCount,
		"observed", report.ObservedCount,
		"created", len(report.Created),
		"removed", len(report.Removed),
		"failed", report.FailedCount(),
		"read_failed", report.ReadFailed,
		"duration_ms", report.Duration.Milliseconds(),
	)

	for _, rec := range mgr.recorders {
		if err := rec.RecordRun(ctx, report); err != nil {
			mgr.logger.Warn("recording reconciliation run failed",
				"run_id", report.RunID, "error", err)
		}
	}
}
