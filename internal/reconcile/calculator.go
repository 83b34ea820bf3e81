package reconcile

import (
	"sort"

	"github.com/ferrohaus/featsync/internal/entity"
	"github.com/ferrohaus/featsync/internal/feature"
	"github.com/ferrohaus/featsync/internal/inventory"
	"github.com/ferrohaus/featsync/internal/matrix"
)

// DefinitionSource is the read-only feature catalogue the calculator
// consumes. Satisfied by feature.Source.
type DefinitionSource interface {
	// Get retrieves a feature definition by ID.
	Get(id string) (*feature.Definition, bool)

	// IDs returns all known feature IDs in sorted order.
	IDs() []string
}

// CalcStats records the non-fatal conditions encountered while computing
// a required set.
type CalcStats struct {
	// UnknownFeatures lists enabled feature IDs with no definition,
	// deduplicated and sorted. These pairs are skipped, not errors:
	// the matrix may reference features retired since it was persisted.
	UnknownFeatures []string

	// TemplateErrors counts entities omitted because a template
	// placeholder could not be satisfied.
	TemplateErrors int

	// IneligiblePairs counts enabled pairs skipped because the device's
	// slugs do not match the feature's allowed slugs.
	IneligiblePairs int

	// MissingDevices counts enabled pairs whose device is absent from
	// the inventory listing.
	MissingDevices int
}

// ComputeRequired produces the complete set of entity identifiers that
// should exist for the given matrix, feature catalogue, and device list.
//
// The computation is total (it never fails; problems degrade into stats)
// and deterministic (same inputs yield the same set, independent of map
// iteration order).
func ComputeRequired(m *matrix.Matrix, defs DefinitionSource, devices []inventory.Device) (Set, CalcStats) {
	byID := make(map[string]*inventory.Device, len(devices))
	for i := range devices {
		byID[devices[i].ID] = &devices[i]
	}

	required := make(Set)
	stats := CalcStats{}
	unknown := make(map[string]struct{})

	// Pairs() is sorted, so every degradation counter below is hit in a
	// stable order as well.
	for _, pair := range m.Pairs() {
		def, ok := defs.Get(pair.FeatureID)
		if !ok {
			unknown[pair.FeatureID] = struct{}{}
			continue
		}

		device, ok := byID[pair.DeviceID]
		if !ok {
			stats.MissingDevices++
			continue
		}

		if !def.Eligible(device.Slugs) {
			stats.IneligiblePairs++
			continue
		}

		for _, kind := range sortedKinds(def.Entities) {
			for _, template := range def.Entities[kind] {
				id, err := entity.Encode(kind, template, device.ID, def.Params)
				if err != nil {
					stats.TemplateErrors++
					continue
				}
				required[id] = struct{}{}
			}
		}
	}

	for id := range unknown {
		stats.UnknownFeatures = append(stats.UnknownFeatures, id)
	}
	sort.Strings(stats.UnknownFeatures)

	return required, stats
}

func sortedKinds(entities map[entity.Kind][]string) []entity.Kind {
	kinds := make([]entity.Kind, 0, len(entities))
	for kind := range entities {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
