package matrix

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestEnableDisableIsEnabled(t *testing.T) {
	m := New()

	if m.IsEnabled("dev-1", "humidity_control") {
		t.Error("fresh matrix should report disabled")
	}

	m.Enable("dev-1", "humidity_control")
	if !m.IsEnabled("dev-1", "humidity_control") {
		t.Error("pair should be enabled")
	}

	// Idempotent enable
	m.Enable("dev-1", "humidity_control")
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}

	m.Disable("dev-1", "humidity_control")
	if m.IsEnabled("dev-1", "humidity_control") {
		t.Error("pair should be disabled")
	}

	// Idempotent disable, including unknown pairs
	m.Disable("dev-1", "humidity_control")
	m.Disable("ghost", "ghost_feature")
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestSparsityUnaffectedByUnrelatedMutations(t *testing.T) {
	m := New()

	m.Enable("dev-2", "raw_params")
	m.Disable("dev-2", "raw_params")

	if m.IsEnabled("dev-1", "humidity_control") {
		t.Error("unrelated pair must stay disabled")
	}
	if m.IsEnabled("dev-2", "humidity_control") {
		t.Error("sibling feature must stay disabled")
	}
}

func TestAccessors(t *testing.T) {
	m := New()
	m.Enable("dev-b", "f1")
	m.Enable("dev-a", "f1")
	m.Enable("dev-a", "f2")

	if got := m.FeaturesFor("dev-a"); !reflect.DeepEqual(got, []string{"f1", "f2"}) {
		t.Errorf("FeaturesFor(dev-a) = %v", got)
	}
	if got := m.FeaturesFor("unknown"); len(got) != 0 {
		t.Errorf("FeaturesFor(unknown) = %v, want empty", got)
	}
	if got := m.DevicesFor("f1"); !reflect.DeepEqual(got, []string{"dev-a", "dev-b"}) {
		t.Errorf("DevicesFor(f1) = %v", got)
	}

	want := []Pair{
		{DeviceID: "dev-a", FeatureID: "f1"},
		{DeviceID: "dev-a", FeatureID: "f2"},
		{DeviceID: "dev-b", FeatureID: "f1"},
	}
	if got := m.Pairs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Pairs() = %v, want %v", got, want)
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := New()
	m.Enable("01:123456", "humidity_control")
	m.Enable("01:123456", "raw_params")
	m.Enable("32:153289", "humidity_control")

	snap := m.Snapshot()

	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot() error: %v", err)
	}

	if !reflect.DeepEqual(restored.Pairs(), m.Pairs()) {
		t.Errorf("restored pairs = %v, want %v", restored.Pairs(), m.Pairs())
	}

	// Snapshot must be independent of the live matrix.
	m.Disable("01:123456", "raw_params")
	if !snap["01:123456"]["raw_params"] {
		t.Error("snapshot must not alias live state")
	}
}

func TestSnapshotIsJSONSerializable(t *testing.T) {
	m := New()
	m.Enable("01:123456", "humidity_control")

	data, err := json.Marshal(m.Snapshot())
	if err != nil {
		t.Fatalf("marshalling snapshot: %v", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshalling snapshot: %v", err)
	}

	restored, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot() error: %v", err)
	}
	if !restored.IsEnabled("01:123456", "humidity_control") {
		t.Error("JSON round trip lost an enabled pair")
	}
}

func TestRestoreDropsDisabledEntries(t *testing.T) {
	snap := Snapshot{
		"dev-1": {"f1": true, "f2": false},
	}

	m, err := FromSnapshot(snap)
	if err != nil {
		t.Fatalf("FromSnapshot() error: %v", err)
	}

	if !m.IsEnabled("dev-1", "f1") {
		t.Error("enabled entry lost")
	}
	if m.IsEnabled("dev-1", "f2") {
		t.Error("disabled entry should be dropped")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestRestoreRejectsMalformedSnapshotAtomically(t *testing.T) {
	m := New()
	m.Enable("dev-1", "f1")

	bad := Snapshot{
		"": {"f1": true},
	}
	if err := m.Restore(bad); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("Restore() error = %v, want ErrInvalidSnapshot", err)
	}

	// Prior state must be untouched.
	if !m.IsEnabled("dev-1", "f1") {
		t.Error("failed restore must not modify the matrix")
	}

	bad = Snapshot{
		"dev-2": {"": true},
	}
	if err := m.Restore(bad); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("Restore() error = %v, want ErrInvalidSnapshot", err)
	}
	if !m.IsEnabled("dev-1", "f1") {
		t.Error("failed restore must not modify the matrix")
	}
}
