// Package entity provides the entity-name codec for Featsync.
//
// An entity identifier is a single string carrying three facts: the entity
// kind (sensor, switch, number, ...), the semantic name of the entity, and
// the identifier of the device it belongs to. Two historically incompatible
// layouts embed the device identifier at different positions:
//
//	device-first: number.32_153289_param_7c00
//	device-last:  sensor.indoor_absolute_humidity_32_153289
//
// The codec treats layout as a derived tag on a unified value type rather
// than two parallel code paths. Encode substitutes a device identifier into
// a name template; where the {device_id} placeholder sits in the template
// determines the layout of the output. Decode locates the device-address
// shape (digits, colon or underscore, digits) inside the body and classifies
// the layout by position: a match starting within the first 30% of the body
// (inclusive) is device-first, anything later is device-last.
//
// The round-trip law holds for every template and syntactically valid device
// identifier: decoding an encoded identifier returns the template's semantic
// name, the canonical device identifier, and the layout implied by the
// template.
//
// Decode returns ok=false, not an error, for strings without a recognisable
// device-address shape - most registry entries belong to other subsystems
// and must be ignored silently.
package entity
