package mqtt

// Topic structure for Featsync.
//
// Featsync publishes its own liveness on a fixed status topic and
// otherwise operates entirely inside the discovery prefix configured in
// reconcile settings (see internal/registry for the discovery topic
// layout).
const (
	// topicPrefix is the root namespace for Featsync's own topics.
	topicPrefix = "featsync"

	// systemStatusTopic carries online/offline status, including the LWT.
	systemStatusTopic = topicPrefix + "/system/status"
)

// Topics provides topic construction for the Featsync namespace.
// Use a zero value: mqtt.Topics{}.SystemStatus().
type Topics struct{}

// SystemStatus returns the topic for service online/offline status.
// Messages on this topic are retained so late subscribers see the
// current state.
func (Topics) SystemStatus() string {
	return systemStatusTopic
}
