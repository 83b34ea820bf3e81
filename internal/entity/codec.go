package entity

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// separator divides the kind prefix from the name body.
	separator = "."

	// wordSeparator divides words inside a name body and is the canonical
	// separator inside a normalised device identifier.
	wordSeparator = "_"

	// DevicePlaceholder is the template placeholder for the device identifier.
	DevicePlaceholder = "device_id"

	// deviceFirstThreshold is the fraction of the body length at or below
	// which a device-id match is classified as device-first. The comparison
	// is inclusive, so an ambiguous short body deterministically decodes as
	// device-first.
	deviceFirstThreshold = 0.3
)

// deviceIDPattern matches the canonical device-address shape: one or more
// digits, a colon or underscore, and one or more digits. The first match
// within a body is taken as the device identifier.
var deviceIDPattern = regexp.MustCompile(`[0-9]+[:_][0-9]+`)

// placeholderPattern matches {name} placeholders inside a template.
var placeholderPattern = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// NormalizeDeviceID converts a device identifier to its canonical form,
// replacing the colon address separator with an underscore. The same
// device always yields the same canonical string regardless of which
// notation it was supplied in.
func NormalizeDeviceID(deviceID string) string {
	return strings.ReplaceAll(deviceID, ":", wordSeparator)
}

// Encode substitutes the device identifier and any feature-supplied
// parameters into a name template and returns the resulting Identifier.
//
// The template must reference {device_id} exactly once; its position in the
// template determines the layout of the encoded name, so encode and decode
// stay layout-symmetric by construction. Any other {param} placeholder must
// be satisfied by the params map.
//
// Parameters:
//   - kind: Entity kind prefix for the identifier
//   - template: Name template, e.g. "indoor_abs_humidity_{device_id}"
//   - deviceID: Device identifier; normalised before substitution
//   - params: Values for non-device placeholders (may be nil)
//
// Returns:
//   - Identifier: The encoded entity identifier
//   - error: ErrTemplate if a placeholder cannot be satisfied or the
//     template does not reference the device exactly once
func Encode(kind Kind, template, deviceID string, params map[string]string) (Identifier, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("%w: unknown kind %q", ErrTemplate, kind)
	}
	if deviceID == "" {
		return "", fmt.Errorf("%w: empty device id", ErrTemplate)
	}

	deviceRefs := 0
	var missing []string

	body := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		if name == DevicePlaceholder {
			deviceRefs++
			return NormalizeDeviceID(deviceID)
		}
		if value, ok := params[name]; ok {
			return value
		}
		missing = append(missing, name)
		return match
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: unsatisfied placeholders %v in %q", ErrTemplate, missing, template)
	}
	if deviceRefs != 1 {
		return "", fmt.Errorf("%w: template %q must reference {%s} exactly once, got %d",
			ErrTemplate, template, DevicePlaceholder, deviceRefs)
	}

	return Identifier(string(kind) + separator + body), nil
}

// Decode parses an entity identifier into its kind, semantic name, device
// identifier, and derived layout.
//
// Decoding fails (ok=false) when the string has no kind prefix or its body
// contains no recognisable device-address shape. This is an expected outcome
// for registry entries owned by other subsystems and is not an error.
func Decode(raw Identifier) (Decoded, bool) {
	kind, body, found := strings.Cut(string(raw), separator)
	if !found || kind == "" || body == "" {
		return Decoded{}, false
	}

	loc := deviceIDPattern.FindStringIndex(body)
	if loc == nil {
		return Decoded{}, false
	}
	start, end := loc[0], loc[1]

	layout := LayoutDeviceLast
	if float64(start) <= deviceFirstThreshold*float64(len(body)) {
		layout = LayoutDeviceFirst
	}

	return Decoded{
		Kind:     Kind(kind),
		Name:     stripDeviceID(body, start, end),
		DeviceID: NormalizeDeviceID(body[start:end]),
		Layout:   layout,
	}, true
}

// stripDeviceID removes the device-id substring and one adjoining word
// separator from the body, leaving the semantic entity name.
func stripDeviceID(body string, start, end int) string {
	prefix, suffix := body[:start], body[end:]

	switch {
	case strings.HasSuffix(prefix, wordSeparator):
		prefix = strings.TrimSuffix(prefix, wordSeparator)
	case strings.HasPrefix(suffix, wordSeparator):
		suffix = strings.TrimPrefix(suffix, wordSeparator)
	}

	return prefix + suffix
}

// SemanticName returns the semantic entity name a template produces: the
// template with the {device_id} placeholder and one adjoining separator
// removed and all other placeholders substituted.
//
// Useful for verifying the encode/decode round trip without knowing a
// device identifier.
func SemanticName(template string, params map[string]string) (string, error) {
	// Encode with a marker device id, then strip it back out.
	const marker = "0:0"

	id, err := Encode(KindSensor, template, marker, params)
	if err != nil {
		return "", err
	}

	body := id.Body()
	markerAt := strings.Index(body, NormalizeDeviceID(marker))
	if markerAt < 0 {
		return "", fmt.Errorf("%w: device marker lost in %q", ErrTemplate, template)
	}
	return stripDeviceID(body, markerAt, markerAt+len(NormalizeDeviceID(marker))), nil
}
