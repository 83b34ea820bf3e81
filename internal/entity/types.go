package entity

import "strings"

// Kind classifies the control surface an entity exposes.
type Kind string

// Kind constants. These match the component names used by MQTT discovery
// conventions, so an Identifier maps directly onto a discovery topic.
const (
	KindSensor       Kind = "sensor"
	KindBinarySensor Kind = "binary_sensor"
	KindSwitch       Kind = "switch"
	KindNumber       Kind = "number"
	KindSelect       Kind = "select"
	KindButton       Kind = "button"
)

// AllKinds returns all valid entity kind values.
func AllKinds() []Kind {
	return []Kind{
		KindSensor, KindBinarySensor, KindSwitch,
		KindNumber, KindSelect, KindButton,
	}
}

// Valid reports whether k is a recognised entity kind.
func (k Kind) Valid() bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Layout describes where the device identifier sits within an entity name.
// Two layouts coexist for historical reasons; layout is always derived from
// the string structure, never stored.
type Layout string

// Layout constants.
const (
	// LayoutDeviceFirst places the device identifier at or near the start
	// of the name body, e.g. "number.32_153289_param_7c00".
	LayoutDeviceFirst Layout = "device_first"

	// LayoutDeviceLast places the device identifier at or near the end
	// of the name body, e.g. "sensor.indoor_absolute_humidity_32_153289".
	LayoutDeviceLast Layout = "device_last"
)

// Identifier is a fully qualified entity identifier: an entity kind,
// a dot separator, and a name body that embeds the device identifier.
//
// Examples:
//
//	sensor.indoor_abs_humidity_01_123456
//	number.32_153289_param_7c00
type Identifier string

// Kind returns the entity-kind prefix of the identifier, or "" if the
// identifier has no separator.
func (id Identifier) Kind() Kind {
	kind, _, ok := strings.Cut(string(id), separator)
	if !ok {
		return ""
	}
	return Kind(kind)
}

// Body returns the name body following the kind prefix.
func (id Identifier) Body() string {
	_, body, _ := strings.Cut(string(id), separator)
	return body
}

// Decoded is the result of decoding an Identifier: the semantic entity
// name, the device that owns it, and the layout the name was written in.
type Decoded struct {
	Kind     Kind
	Name     string
	DeviceID string
	Layout   Layout
}
