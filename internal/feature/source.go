package feature

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source is a read-only catalogue of feature definitions.
//
// It is populated once at startup (from the feature definitions file or a
// fixed table) and never mutated afterwards, so all methods are safe for
// concurrent use without locking.
type Source struct {
	defs map[string]*Definition
}

// NewSource builds a Source from a list of definitions.
//
// Returns:
//   - *Source: Catalogue ready for lookups
//   - error: ErrInvalidDefinition if a definition is malformed or a
//     feature ID appears twice
func NewSource(defs []Definition) (*Source, error) {
	byID := make(map[string]*Definition, len(defs))

	for i := range defs {
		d := defs[i]
		if err := validateDefinition(&d); err != nil {
			return nil, err
		}
		if _, exists := byID[d.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate feature id %q", ErrInvalidDefinition, d.ID)
		}
		byID[d.ID] = d.DeepCopy()
	}

	return &Source{defs: byID}, nil
}

// LoadFile reads feature definitions from a YAML file and builds a Source.
//
// File format:
//
//	features:
//	  - id: humidity_control
//	    name: Humidity control
//	    allowed_slugs: [FAN]
//	    entities:
//	      sensor:
//	        - indoor_abs_humidity_{device_id}
func LoadFile(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feature definitions: %w", err)
	}

	var file struct {
		Features []Definition `yaml:"features"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing feature definitions: %w", err)
	}

	source, err := NewSource(file.Features)
	if err != nil {
		return nil, fmt.Errorf("loading feature definitions from %s: %w", path, err)
	}
	return source, nil
}

// Get retrieves a feature definition by ID.
// The returned definition is a deep copy; callers can safely hold it.
func (s *Source) Get(id string) (*Definition, bool) {
	d, ok := s.defs[id]
	if !ok {
		return nil, false
	}
	return d.DeepCopy(), true
}

// IDs returns all known feature IDs in sorted order.
func (s *Source) IDs() []string {
	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of definitions in the catalogue.
func (s *Source) Count() int {
	return len(s.defs)
}

// validateDefinition checks a single definition for structural problems.
func validateDefinition(d *Definition) error {
	var errs []string

	if d.ID == "" {
		errs = append(errs, "id is required")
	}
	if len(d.AllowedSlugs) == 0 {
		errs = append(errs, "allowed_slugs must not be empty (use \"*\" for any device)")
	}
	if len(d.Entities) == 0 {
		errs = append(errs, "at least one entity template is required")
	}
	for kind, templates := range d.Entities {
		if !kind.Valid() {
			errs = append(errs, fmt.Sprintf("unknown entity kind %q", kind))
		}
		if len(templates) == 0 {
			errs = append(errs, fmt.Sprintf("entity kind %q has no templates", kind))
		}
		for _, t := range templates {
			if t == "" {
				errs = append(errs, fmt.Sprintf("entity kind %q has an empty template", kind))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: feature %q: %s", ErrInvalidDefinition, d.ID, strings.Join(errs, "; "))
	}
	return nil
}
