package reconcile

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/ferrohaus/featsync/internal/entity"
	"github.com/ferrohaus/featsync/internal/feature"
	"github.com/ferrohaus/featsync/internal/inventory"
	"github.com/ferrohaus/featsync/internal/matrix"
)

// fakeRegistry tracks present entities in memory.
type fakeRegistry struct {
	mu      sync.Mutex
	present map[entity.Identifier]struct{}

	listErr   error
	createErr map[entity.Identifier]error
	removeErr map[entity.Identifier]error

	listCalls int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		present:   make(map[entity.Identifier]struct{}),
		createErr: make(map[entity.Identifier]error),
		removeErr: make(map[entity.Identifier]error),
	}
}

func (f *fakeRegistry) List(_ context.Context) ([]entity.Identifier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]entity.Identifier, 0, len(f.present))
	for id := range f.present {
		ids = append(ids, id)
	}
	return ids, nil
}

func (f *fakeRegistry) Create(_ context.Context, id entity.Identifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.createErr[id]; err != nil {
		return err
	}
	f.present[id] = struct{}{}
	return nil
}

func (f *fakeRegistry) Remove(_ context.Context, id entity.Identifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.removeErr[id]; err != nil {
		return err
	}
	delete(f.present, id)
	return nil
}

func (f *fakeRegistry) has(id entity.Identifier) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.present[id]
	return ok
}

// fakeDeviceSource serves a fixed device list.
type fakeDeviceSource struct {
	devices []inventory.Device
	err     error
}

func (f *fakeDeviceSource) ListDevices(_ context.Context) ([]inventory.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices, nil
}

// recordingRecorder captures reports passed to RecordRun.
type recordingRecorder struct {
	reports []*Report
	err     error
}

func (r *recordingRecorder) RecordRun(_ context.Context, report *Report) error {
	r.reports = append(r.reports, report)
	return r.err
}

func fanSetup(t *testing.T) (*matrix.Matrix, *feature.Source, *fakeDeviceSource) {
	t.Helper()
	defs := testSource(t, humidityControl())
	devices := &fakeDeviceSource{devices: []inventory.Device{
		{ID: "01:123456", Name: "Fan", Slugs: []string{"FAN"}},
	}}
	return matrix.New(), defs, devices
}

func TestValidateOnStartupCreatesRequiredEntity(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	registry := newFakeRegistry()
	mgr := NewManager(m, defs, devices, registry)

	report, err := mgr.ValidateOnStartup(context.Background())
	if err != nil {
		t.Fatalf("ValidateOnStartup() error: %v", err)
	}

	want := entity.Identifier("sensor.indoor_abs_humidity_01_123456")
	if !reflect.DeepEqual(report.Created, []entity.Identifier{want}) {
		t.Errorf("Created = %v, want [%s]", report.Created, want)
	}
	if !registry.has(want) {
		t.Error("entity not present in registry after pass")
	}
	if report.RunID == "" {
		t.Error("report should carry a run ID")
	}
	if report.RequiredCount != 1 || report.ObservedCount != 0 {
		t.Errorf("counts = required %d observed %d", report.RequiredCount, report.ObservedCount)
	}
}

func TestValidateOnStartupRemovesStaleEntity(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	registry := newFakeRegistry()
	stale := entity.Identifier("switch.feature_enable_7_9")
	registry.present[stale] = struct{}{}

	mgr := NewManager(m, defs, devices, registry)
	report, err := mgr.ValidateOnStartup(context.Background())
	if err != nil {
		t.Fatalf("ValidateOnStartup() error: %v", err)
	}

	if !reflect.DeepEqual(report.Removed, []entity.Identifier{stale}) {
		t.Errorf("Removed = %v, want [%s]", report.Removed, stale)
	}
	if registry.has(stale) {
		t.Error("stale entity still present after pass")
	}
}

func TestValidateOnStartupIdempotent(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	registry := newFakeRegistry()
	mgr := NewManager(m, defs, devices, registry)
	ctx := context.Background()

	if _, err := mgr.ValidateOnStartup(ctx); err != nil {
		t.Fatalf("first pass error: %v", err)
	}

	second, err := mgr.ValidateOnStartup(ctx)
	if err != nil {
		t.Fatalf("second pass error: %v", err)
	}
	if len(second.Created) != 0 || len(second.Removed) != 0 || second.FailedCount() != 0 {
		t.Errorf("second pass should be a no-op, got %+v", second)
	}
}

func TestValidateOnStartupDegradesOnListFailure(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	registry := newFakeRegistry()
	registry.present["switch.feature_enable_7_9"] = struct{}{}
	registry.listErr = errors.New("broker unavailable")

	mgr := NewManager(m, defs, devices, registry)
	report, err := mgr.ValidateOnStartup(context.Background())
	if err != nil {
		t.Fatalf("ValidateOnStartup() error: %v", err)
	}

	if !report.ReadFailed {
		t.Error("ReadFailed should be set after a listing failure")
	}
	// Degrade-to-empty: create everything, remove nothing, even though a
	// stale entity is actually present.
	if len(report.Removed) != 0 {
		t.Errorf("Removed = %v, want none on read failure", report.Removed)
	}
	if len(report.Created) != 1 {
		t.Errorf("Created = %v, want the required entity", report.Created)
	}
	if !registry.has("switch.feature_enable_7_9") {
		t.Error("read failure must never delete a live entity")
	}
}

func TestValidateOnStartupAbortsOnDeviceListFailure(t *testing.T) {
	m, defs, _ := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	devices := &fakeDeviceSource{err: errors.New("db locked")}
	registry := newFakeRegistry()

	mgr := NewManager(m, defs, devices, registry)
	_, err := mgr.ValidateOnStartup(context.Background())
	if !errors.Is(err, ErrDeviceList) {
		t.Fatalf("error = %v, want ErrDeviceList", err)
	}
	if registry.listCalls != 0 {
		t.Error("no registry calls should be made when device listing fails")
	}
}

func TestValidateOnStartupAccumulatesWriteFailures(t *testing.T) {
	defs := testSource(t, feature.Definition{
		ID:           "raw_params",
		AllowedSlugs: []string{feature.Wildcard},
		Entities: map[entity.Kind][]string{
			entity.KindSwitch: {"feature_enable_{device_id}"},
		},
	})
	devices := &fakeDeviceSource{devices: []inventory.Device{
		{ID: "01:123456", Name: "Fan"},
		{ID: "32:153289", Name: "Thermostat"},
	}}

	m := matrix.New()
	m.Enable("01:123456", "raw_params")
	m.Enable("32:153289", "raw_params")

	registry := newFakeRegistry()
	registry.createErr["switch.feature_enable_01_123456"] = errors.New("publish timeout")

	mgr := NewManager(m, defs, devices, registry)
	report, err := mgr.ValidateOnStartup(context.Background())
	if err != nil {
		t.Fatalf("ValidateOnStartup() error: %v", err)
	}

	// One failure must not abort the remaining creates.
	if !registry.has("switch.feature_enable_32_153289") {
		t.Error("second create should still run after the first fails")
	}
	if report.FailedCount() != 1 {
		t.Fatalf("FailedCount() = %d, want 1", report.FailedCount())
	}
	failure := report.Failures[0]
	if failure.ID != "switch.feature_enable_01_123456" || failure.Op != OpCreate || failure.Err == nil {
		t.Errorf("failure = %+v", failure)
	}
}

func TestValidateOnStartupReportsUnknownFeaturesOnce(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "retired_feature")
	m.Enable("7_9", "retired_feature")

	mgr := NewManager(m, defs, devices, newFakeRegistry())
	report, err := mgr.ValidateOnStartup(context.Background())
	if err != nil {
		t.Fatalf("ValidateOnStartup() error: %v", err)
	}
	if !reflect.DeepEqual(report.UnknownFeatures, []string{"retired_feature"}) {
		t.Errorf("UnknownFeatures = %v", report.UnknownFeatures)
	}
}

func TestApplyMatrixChangeEnable(t *testing.T) {
	m, defs, devices := fanSetup(t)

	registry := newFakeRegistry()
	mgr := NewManager(m, defs, devices, registry)

	oldSnap := m.Snapshot()
	m.Enable("01:123456", "humidity_control")
	newSnap := m.Snapshot()

	report, err := mgr.ApplyMatrixChange(context.Background(), oldSnap, newSnap)
	if err != nil {
		t.Fatalf("ApplyMatrixChange() error: %v", err)
	}

	want := entity.Identifier("sensor.indoor_abs_humidity_01_123456")
	if !reflect.DeepEqual(report.Created, []entity.Identifier{want}) {
		t.Errorf("Created = %v", report.Created)
	}
	// The incremental path never consults the registry listing.
	if registry.listCalls != 0 {
		t.Errorf("listCalls = %d, want 0", registry.listCalls)
	}
}

func TestApplyMatrixChangeDisable(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	registry := newFakeRegistry()
	mgr := NewManager(m, defs, devices, registry)
	ctx := context.Background()

	if _, err := mgr.ValidateOnStartup(ctx); err != nil {
		t.Fatalf("startup pass error: %v", err)
	}

	oldSnap := m.Snapshot()
	m.Disable("01:123456", "humidity_control")
	newSnap := m.Snapshot()

	report, err := mgr.ApplyMatrixChange(ctx, oldSnap, newSnap)
	if err != nil {
		t.Fatalf("ApplyMatrixChange() error: %v", err)
	}

	want := entity.Identifier("sensor.indoor_abs_humidity_01_123456")
	if !reflect.DeepEqual(report.Removed, []entity.Identifier{want}) {
		t.Errorf("Removed = %v, want [%s]", report.Removed, want)
	}
	if len(report.Created) != 0 {
		t.Errorf("Created = %v, want none", report.Created)
	}
	if registry.has(want) {
		t.Error("disabled entity still present")
	}
}

func TestApplyMatrixChangeEquivalentToFullPass(t *testing.T) {
	// For a transition where the registry matched the old required set,
	// the incremental path must leave the registry in the same state a
	// full pass would.
	defs := testSource(t, humidityControl(), feature.Definition{
		ID:           "raw_params",
		AllowedSlugs: []string{feature.Wildcard},
		Entities: map[entity.Kind][]string{
			entity.KindNumber: {"{device_id}_param_{register}"},
		},
		Params: map[string]string{"register": "7c00"},
	})
	devices := &fakeDeviceSource{devices: []inventory.Device{
		{ID: "01:123456", Name: "Fan", Slugs: []string{"FAN"}},
		{ID: "32:153289", Name: "Thermostat", Slugs: []string{"THERMOSTAT"}},
	}}

	transition := func(m *matrix.Matrix) (matrix.Snapshot, matrix.Snapshot) {
		m.Enable("01:123456", "humidity_control")
		m.Enable("01:123456", "raw_params")
		before := m.Snapshot()
		m.Disable("01:123456", "raw_params")
		m.Enable("32:153289", "raw_params")
		return before, m.Snapshot()
	}

	ctx := context.Background()

	// Incremental path.
	incrMatrix := matrix.New()
	incrRegistry := newFakeRegistry()
	incrMgr := NewManager(incrMatrix, defs, devices, incrRegistry)
	before, after := transition(incrMatrix)
	if err := incrMatrix.Restore(before); err != nil {
		t.Fatal(err)
	}
	if _, err := incrMgr.ValidateOnStartup(ctx); err != nil {
		t.Fatalf("seeding pass error: %v", err)
	}
	if err := incrMatrix.Restore(after); err != nil {
		t.Fatal(err)
	}
	if _, err := incrMgr.ApplyMatrixChange(ctx, before, after); err != nil {
		t.Fatalf("ApplyMatrixChange() error: %v", err)
	}

	// Full pass path.
	fullMatrix := matrix.New()
	fullRegistry := newFakeRegistry()
	fullMgr := NewManager(fullMatrix, defs, devices, fullRegistry)
	before, after = transition(fullMatrix)
	if err := fullMatrix.Restore(before); err != nil {
		t.Fatal(err)
	}
	if _, err := fullMgr.ValidateOnStartup(ctx); err != nil {
		t.Fatalf("seeding pass error: %v", err)
	}
	if err := fullMatrix.Restore(after); err != nil {
		t.Fatal(err)
	}
	if _, err := fullMgr.ValidateOnStartup(ctx); err != nil {
		t.Fatalf("full pass error: %v", err)
	}

	if !reflect.DeepEqual(incrRegistry.present, fullRegistry.present) {
		t.Errorf("incremental end state %v != full pass end state %v",
			incrRegistry.present, fullRegistry.present)
	}
}

func TestApplyMatrixChangeRejectsMalformedSnapshot(t *testing.T) {
	m, defs, devices := fanSetup(t)
	registry := newFakeRegistry()
	mgr := NewManager(m, defs, devices, registry)

	bad := matrix.Snapshot{"": {"f": true}}
	if _, err := mgr.ApplyMatrixChange(context.Background(), bad, matrix.Snapshot{}); err == nil {
		t.Error("malformed old snapshot should be rejected")
	}
	if _, err := mgr.ApplyMatrixChange(context.Background(), matrix.Snapshot{}, bad); err == nil {
		t.Error("malformed new snapshot should be rejected")
	}
}

func TestManagerRecordsRuns(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	recorder := &recordingRecorder{}
	failing := &recordingRecorder{err: errors.New("influx down")}

	mgr := NewManager(m, defs, devices, newFakeRegistry())
	mgr.AddRecorder(recorder)
	mgr.AddRecorder(failing)

	report, err := mgr.ValidateOnStartup(context.Background())
	if err != nil {
		t.Fatalf("ValidateOnStartup() error: %v", err)
	}

	// Both recorders run; a recorder failure never fails the pass.
	if len(recorder.reports) != 1 || recorder.reports[0].RunID != report.RunID {
		t.Errorf("recorder saw %d reports", len(recorder.reports))
	}
	if len(failing.reports) != 1 {
		t.Errorf("failing recorder should still be invoked")
	}
}

func TestManagerSerialisesPasses(t *testing.T) {
	m, defs, devices := fanSetup(t)
	m.Enable("01:123456", "humidity_control")

	registry := newFakeRegistry()
	mgr := NewManager(m, defs, devices, registry)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := mgr.ValidateOnStartup(ctx); err != nil {
				t.Errorf("concurrent pass error: %v", err)
			}
		}()
	}
	wg.Wait()

	// All passes converge on the same single entity.
	if !registry.has("sensor.indoor_abs_humidity_01_123456") {
		t.Error("required entity missing after concurrent passes")
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if len(registry.present) != 1 {
		t.Errorf("registry holds %d entities, want 1", len(registry.present))
	}
}
