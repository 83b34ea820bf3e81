package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ferrohaus/featsync/internal/entity"
	"github.com/ferrohaus/featsync/internal/infrastructure/config"
	"github.com/ferrohaus/featsync/internal/infrastructure/mqtt"
)

// Broker is the subset of the MQTT client the adapter needs.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface used by the adapter.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// MQTTAdapter implements entity registry operations over MQTT discovery.
//
// All methods are safe for concurrent use, though the reconciler
// serialises its passes and never calls them concurrently in practice.
type MQTTAdapter struct {
	broker        Broker
	prefix        string
	nodeID        string
	qos           byte
	observeWindow time.Duration
	logger        Logger
}

// NewMQTTAdapter creates a discovery-based registry adapter.
func NewMQTTAdapter(broker Broker, cfg config.ReconcileConfig) *MQTTAdapter {
	return &MQTTAdapter{
		broker:        broker,
		prefix:        cfg.DiscoveryPrefix,
		nodeID:        cfg.NodeID,
		qos:           byte(cfg.QoS),
		observeWindow: time.Duration(cfg.ObserveWindow) * time.Second,
		logger:        noopLogger{},
	}
}

// SetLogger sets the logger for the adapter.
func (a *MQTTAdapter) SetLogger(logger Logger) {
	a.logger = logger
}

// discoveryPayload is the retained JSON config announcing an entity.
type discoveryPayload struct {
	Name     string       `json:"name"`
	UniqueID string       `json:"unique_id"`
	ObjectID string       `json:"object_id"`
	Device   *deviceBlock `json:"device,omitempty"`
}

// deviceBlock groups entities under their owning device.
type deviceBlock struct {
	Identifiers []string `json:"identifiers"`
	Name        string   `json:"name,omitempty"`
}

// Create announces an entity by publishing its retained discovery config.
// Creating an entity that already exists simply refreshes its config; the
// operation is idempotent.
func (a *MQTTAdapter) Create(ctx context.Context, id entity.Identifier) error {
	topic, err := a.configTopic(id)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(a.buildPayload(id))
	if err != nil {
		return fmt.Errorf("%w: marshalling config for %s: %w", ErrCreateFailed, id, err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrCreateFailed, ctx.Err())
	default:
	}

	if err := a.broker.Publish(topic, payload, a.qos, true); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCreateFailed, id, err)
	}

	a.logger.Debug("entity config published", "entity", string(id), "topic", topic)
	return nil
}

// Remove clears an entity's retained discovery config. Removing an entity
// that does not exist is a no-op on the broker side; the operation is
// idempotent.
func (a *MQTTAdapter) Remove(ctx context.Context, id entity.Identifier) error {
	topic, err := a.configTopic(id)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrRemoveFailed, ctx.Err())
	default:
	}

	// An empty retained payload deletes the retained message.
	if err := a.broker.Publish(topic, nil, a.qos, true); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrRemoveFailed, id, err)
	}

	a.logger.Debug("entity config cleared", "entity", string(id), "topic", topic)
	return nil
}

// List returns the entities currently announced under our node ID.
//
// The broker replays retained configs immediately on subscription, so the
// observation window only needs to cover broker round-trip time. Entities
// outside our node ID segment are invisible to the subscription and can
// never appear in the result.
func (a *MQTTAdapter) List(ctx context.Context) ([]entity.Identifier, error) {
	filter := fmt.Sprintf("%s/+/%s/+/config", a.prefix, a.nodeID)

	var mu sync.Mutex
	seen := make(map[entity.Identifier]struct{})

	handler := func(topic string, payload []byte) error {
		// Empty payload means the retained config was cleared.
		if len(payload) == 0 {
			return nil
		}
		id, ok := a.identifierFromTopic(topic)
		if !ok {
			a.logger.Warn("unparseable discovery topic", "topic", topic)
			return nil
		}
		mu.Lock()
		seen[id] = struct{}{}
		mu.Unlock()
		return nil
	}

	if err := a.broker.Subscribe(filter, a.qos, handler); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListFailed, err)
	}
	defer a.broker.Unsubscribe(filter) //nolint:errcheck // best effort cleanup

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrListFailed, ctx.Err())
	case <-time.After(a.observeWindow):
	}

	mu.Lock()
	defer mu.Unlock()

	ids := make([]entity.Identifier, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	a.logger.Debug("entity list observed", "count", len(ids))
	return ids, nil
}

// configTopic maps an identifier onto its discovery config topic.
func (a *MQTTAdapter) configTopic(id entity.Identifier) (string, error) {
	kind := id.Kind()
	body := id.Body()
	if !kind.Valid() || body == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	if strings.ContainsAny(body, "/+#") {
		return "", fmt.Errorf("%w: %q contains topic metacharacters", ErrInvalidIdentifier, id)
	}
	return fmt.Sprintf("%s/%s/%s/%s/config", a.prefix, kind, a.nodeID, body), nil
}

// identifierFromTopic converts a discovery config topic back into an
// entity identifier. Returns false for topics that do not match our
// layout or carry an unknown entity kind.
func (a *MQTTAdapter) identifierFromTopic(topic string) (entity.Identifier, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != a.prefix || parts[2] != a.nodeID || parts[4] != "config" {
		return "", false
	}

	kind := entity.Kind(parts[1])
	body := parts[3]
	if !kind.Valid() || body == "" {
		return "", false
	}
	return entity.Identifier(string(kind) + "." + body), true
}

// buildPayload assembles the discovery config for an entity. When the
// name body decodes cleanly the payload carries the semantic name and a
// device block; otherwise it falls back to the raw body.
func (a *MQTTAdapter) buildPayload(id entity.Identifier) discoveryPayload {
	body := id.Body()
	payload := discoveryPayload{
		Name:     strings.ReplaceAll(body, "_", " "),
		UniqueID: a.nodeID + "_" + body,
		ObjectID: body,
	}

	if decoded, ok := entity.Decode(id); ok {
		if decoded.Name != "" {
			payload.Name = strings.ReplaceAll(decoded.Name, "_", " ")
		}
		payload.Device = &deviceBlock{
			Identifiers: []string{a.nodeID + "_" + decoded.DeviceID},
		}
	}

	return payload
}
