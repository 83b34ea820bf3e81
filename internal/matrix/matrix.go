package matrix

import (
	"fmt"
	"sort"
	"sync"
)

// Matrix is the authoritative store of which features are enabled for which
// devices. It is a sparse boolean configuration: absence of an entry means
// disabled, and only enabled pairs are stored.
//
// The matrix carries no knowledge of entity templates or devices; it is pure
// configuration state. Mutations are synchronous and in-memory - callers are
// responsible for persisting snapshots and triggering reconciliation.
//
// All public methods are thread-safe.
type Matrix struct {
	mu    sync.RWMutex
	flags map[string]map[string]bool // device_id -> feature_id -> true
}

// Pair identifies one enabled (device, feature) combination.
type Pair struct {
	DeviceID  string
	FeatureID string
}

// New creates an empty Matrix.
func New() *Matrix {
	return &Matrix{
		flags: make(map[string]map[string]bool),
	}
}

// FromSnapshot creates a Matrix pre-populated from a snapshot.
// Equivalent to New() followed by Restore().
func FromSnapshot(snap Snapshot) (*Matrix, error) {
	m := New()
	if err := m.Restore(snap); err != nil {
		return nil, err
	}
	return m, nil
}

// Enable marks a feature as enabled for a device.
// Enabling an already-enabled pair is a no-op; Enable always succeeds.
// No validation is performed against the feature catalogue - that is the
// caller's job.
func (m *Matrix) Enable(deviceID, featureID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	features, ok := m.flags[deviceID]
	if !ok {
		features = make(map[string]bool)
		m.flags[deviceID] = features
	}
	features[featureID] = true
}

// Disable marks a feature as disabled for a device.
// Disabling an already-disabled (or unknown) pair is a no-op.
func (m *Matrix) Disable(deviceID, featureID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	features, ok := m.flags[deviceID]
	if !ok {
		return
	}
	delete(features, featureID)
	if len(features) == 0 {
		delete(m.flags, deviceID)
	}
}

// IsEnabled reports whether a feature is enabled for a device.
// Returns false for any pair never explicitly enabled.
func (m *Matrix) IsEnabled(deviceID, featureID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[deviceID][featureID]
}

// FeaturesFor returns the IDs of all features enabled for a device,
// in sorted order.
func (m *Matrix) FeaturesFor(deviceID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	features := make([]string, 0, len(m.flags[deviceID]))
	for id := range m.flags[deviceID] {
		features = append(features, id)
	}
	sort.Strings(features)
	return features
}

// DevicesFor returns the IDs of all devices a feature is enabled for,
// in sorted order.
func (m *Matrix) DevicesFor(featureID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var devices []string
	for deviceID, features := range m.flags {
		if features[featureID] {
			devices = append(devices, deviceID)
		}
	}
	sort.Strings(devices)
	return devices
}

// Pairs returns every enabled (device, feature) pair, sorted by device then
// feature for deterministic iteration.
func (m *Matrix) Pairs() []Pair {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pairs []Pair
	for deviceID, features := range m.flags {
		for featureID := range features {
			pairs = append(pairs, Pair{DeviceID: deviceID, FeatureID: featureID})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].DeviceID != pairs[j].DeviceID {
			return pairs[i].DeviceID < pairs[j].DeviceID
		}
		return pairs[i].FeatureID < pairs[j].FeatureID
	})
	return pairs
}

// Count returns the number of enabled pairs.
func (m *Matrix) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, features := range m.flags {
		n += len(features)
	}
	return n
}

// Snapshot returns a serializable copy of the matrix state.
// The snapshot contains only enabled pairs (sparse representation) and
// round-trips exactly through Restore.
func (m *Matrix) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := make(Snapshot, len(m.flags))
	for deviceID, features := range m.flags {
		if len(features) == 0 {
			continue
		}
		cpy := make(map[string]bool, len(features))
		for featureID := range features {
			cpy[featureID] = true
		}
		snap[deviceID] = cpy
	}
	return snap
}

// Restore replaces the matrix state with the contents of a snapshot.
//
// Restore is all-or-nothing: if the snapshot is malformed the matrix is
// left exactly as it was and ErrInvalidSnapshot is returned. Disabled
// (false) entries in the snapshot are dropped, preserving sparsity.
func (m *Matrix) Restore(snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	flags := make(map[string]map[string]bool, len(snap))
	for deviceID, features := range snap {
		enabled := make(map[string]bool)
		for featureID, on := range features {
			if on {
				enabled[featureID] = true
			}
		}
		if len(enabled) > 0 {
			flags[deviceID] = enabled
		}
	}

	m.mu.Lock()
	m.flags = flags
	m.mu.Unlock()
	return nil
}

// Snapshot is the serializable form of a Matrix: a nested mapping
// device_id -> feature_id -> enabled. It is the only artifact this core
// persists, and deliberately the simplest possible encoding of the data
// model (plain JSON-compatible maps).
type Snapshot map[string]map[string]bool

// Validate checks the snapshot for structural problems.
func (s Snapshot) Validate() error {
	for deviceID, features := range s {
		if deviceID == "" {
			return fmt.Errorf("%w: empty device id", ErrInvalidSnapshot)
		}
		for featureID := range features {
			if featureID == "" {
				return fmt.Errorf("%w: empty feature id for device %q", ErrInvalidSnapshot, deviceID)
			}
		}
	}
	return nil
}
