// Package registry adapts the external entity registry to Featsync.
//
// The registry is MQTT discovery: an entity exists when a retained JSON
// config sits on its discovery topic, and is removed by clearing that
// topic with an empty retained payload. Listing works by subscribing to
// the wildcard config topic and collecting whatever retained configs the
// broker replays within a short observation window.
//
// Topic layout:
//
//	{prefix}/{component}/{node_id}/{object_id}/config
//
// component is the entity kind and object_id is the entity name body, so
// topics and entity identifiers convert both ways without extra state.
// The node_id segment namespaces this installation: listing only ever
// sees topics under our node_id, which is what keeps reconciliation from
// touching foreign entities.
package registry
