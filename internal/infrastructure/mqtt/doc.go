// Package mqtt provides MQTT client connectivity for Featsync.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Featsync talks to the device registry over MQTT discovery topics: it
// publishes retained entity configs to announce entities and clears them
// to remove entities. The same connection carries Featsync's own
// online/offline status.
//
//	Featsync ↔ MQTT Broker ↔ Registry / Dashboards
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Publish a retained discovery config
//	client.Publish("homeassistant/sensor/featsync/bathroom/config", payload, 1, true)
package mqtt
