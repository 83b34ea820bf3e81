// Package feature provides the feature definition catalogue for Featsync.
//
// A feature is an optional, independently toggleable unit of functionality:
// a device-type filter (capability slugs, with "*" as wildcard) plus a set
// of entity name templates grouped by entity kind. Enabling a feature for a
// device implies one entity per template, named by substituting the device
// identifier into the template (see the entity package).
//
// Definitions are plain immutable data. The Source catalogue is populated
// once at startup - typically from a YAML definitions file via LoadFile -
// and passed by reference to the reconciler; nothing reads feature
// configuration through ambient/global state.
package feature
