package feature

import (
	"github.com/ferrohaus/featsync/internal/entity"
)

// Wildcard in an allowed-slugs list makes a feature eligible for every device.
const Wildcard = "*"

// Definition describes a single optional feature: which devices it applies
// to and which entities it exposes when enabled.
//
// Definitions are immutable data loaded once at startup; the core never
// mutates them.
type Definition struct {
	// ID is the stable feature identifier referenced by the matrix.
	ID string `yaml:"id"`

	// Name is a human-readable label.
	Name string `yaml:"name"`

	// AllowedSlugs filters eligible devices by capability slug.
	// The wildcard "*" matches any device.
	AllowedSlugs []string `yaml:"allowed_slugs"`

	// Entities maps an entity kind to the name templates the feature
	// instantiates per eligible device. Each template references
	// {device_id} exactly once.
	Entities map[entity.Kind][]string `yaml:"entities"`

	// Params supplies values for non-device template placeholders
	// (e.g. a parameter register id).
	Params map[string]string `yaml:"params,omitempty"`
}

// Eligible reports whether a device with the given capability slugs can use
// this feature. A device is eligible when any of its slugs appears in
// AllowedSlugs, or when AllowedSlugs contains the wildcard.
func (d *Definition) Eligible(slugs []string) bool {
	for _, allowed := range d.AllowedSlugs {
		if allowed == Wildcard {
			return true
		}
		for _, slug := range slugs {
			if slug == allowed {
				return true
			}
		}
	}
	return false
}

// DeepCopy creates a complete independent copy of the Definition.
// Slice and map fields are cloned so modifications to the copy do not
// affect the original.
func (d *Definition) DeepCopy() *Definition {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.AllowedSlugs != nil {
		cpy.AllowedSlugs = make([]string, len(d.AllowedSlugs))
		copy(cpy.AllowedSlugs, d.AllowedSlugs)
	}

	if d.Entities != nil {
		cpy.Entities = make(map[entity.Kind][]string, len(d.Entities))
		for kind, templates := range d.Entities {
			t := make([]string, len(templates))
			copy(t, templates)
			cpy.Entities[kind] = t
		}
	}

	if d.Params != nil {
		cpy.Params = make(map[string]string, len(d.Params))
		for k, v := range d.Params {
			cpy.Params[k] = v
		}
	}

	return &cpy
}
