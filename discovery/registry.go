package discovery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// Publisher abstracts the MQTT client so the registry can be tested without
// a broker. Descriptor publishes are retained so they survive platform
// restarts without re-registration.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
}

// Result describes what processing a single message led to.
type Result string

const (
	// ResultRegistered means a new discovery descriptor was published.
	ResultRegistered Result = "registered"
	// ResultDuplicate means the entity was already registered this session.
	ResultDuplicate Result = "duplicate"
	// ResultDiscarded means the topic carried too few segments.
	ResultDiscarded Result = "discarded"
	// ResultAbsorbed means the signal updated device metadata instead of
	// becoming an entity.
	ResultAbsorbed Result = "absorbed"
	// ResultError means the descriptor publish failed; the entity stays
	// unregistered so a later message retries.
	ResultError Result = "error"
)

// Event summarizes one processed message for logs, metrics and the debug
// stream.
type Event struct {
	Topic         string    `json:"topic"`
	Component     Component `json:"component,omitempty"`
	UniqueID      string    `json:"unique_id,omitempty"`
	Result        Result    `json:"result"`
	Unit          string    `json:"unit,omitempty"`
	MetadataField string    `json:"metadata_field,omitempty"`
}

// registration is a published descriptor kept for re-publication when Home
// Assistant announces a restart.
type registration struct {
	topic   string
	payload []byte
}

// Registry deduplicates entity identities and publishes each discovery
// descriptor at most once per process lifetime.
type Registry struct {
	discoveryPrefix string
	genmonPrefix    string
	device          *DeviceInfo
	origin          OriginInfo
	pub             Publisher
	log             *slog.Logger

	mu         sync.Mutex
	registered map[string]registration
}

func NewRegistry(discoveryPrefix, genmonPrefix string, device *DeviceInfo, origin OriginInfo, pub Publisher, log *slog.Logger) *Registry {
	return &Registry{
		discoveryPrefix: discoveryPrefix,
		genmonPrefix:    genmonPrefix,
		device:          device,
		origin:          origin,
		pub:             pub,
		log:             log.With("component", "registry"),
		registered:      make(map[string]registration),
	}
}

// HandleMessage processes one inbound (topic, payload) pair to completion:
// parse, metadata special cases, classification, register-if-absent. It
// never returns an error; malformed input degrades to the raw or discard
// path so one bad signal cannot stall the bridge.
func (r *Registry) HandleMessage(topic, payload string) Event {
	sig, ok := ParseTopic(topic)
	if !ok {
		return Event{Topic: topic, Result: ResultDiscarded}
	}

	// Metadata special cases run before any entity is built. Firmware
	// version updates the device block and still falls through to become a
	// sensor.
	field, absorbed := r.device.Observe(sig.FormattedName(), payload)
	if absorbed {
		r.log.Info("device metadata updated", "field", field, "value", payload)
		return Event{Topic: topic, Result: ResultAbsorbed, MetadataField: field}
	}

	component := ClassifyEntity(sig.Name, payload)
	rep := ClassifyPayload(payload)
	uniqueID := r.uniqueID(sig)

	ev := Event{
		Topic:         topic,
		Component:     component,
		UniqueID:      uniqueID,
		Unit:          rep.Unit,
		MetadataField: field,
	}

	created, err := r.register(component, sig, uniqueID, topic, rep)
	switch {
	case err != nil:
		r.log.Error("descriptor publish failed", "unique_id", uniqueID, "error", err)
		ev.Result = ResultError
	case created:
		r.log.Info("entity registered", "component", component, "unique_id", uniqueID)
		ev.Result = ResultRegistered
	default:
		ev.Result = ResultDuplicate
	}
	return ev
}

// register is the atomic register-if-absent operation: membership check,
// descriptor build and publish all happen under one lock so two messages
// for the same identity cannot both observe "not yet registered".
func (r *Registry) register(component Component, sig Signal, uniqueID, stateTopic string, rep Representation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.registered[uniqueID]; ok {
		return false, nil
	}

	payload, err := r.buildDescriptor(component, sig, uniqueID, stateTopic, rep)
	if err != nil {
		return false, err
	}

	configTopic := fmt.Sprintf("%s/%s/%s/%s/config", r.discoveryPrefix, component, r.device.ID, uniqueID)
	if err := r.pub.PublishRetained(configTopic, payload); err != nil {
		return false, err
	}

	r.registered[uniqueID] = registration{topic: configTopic, payload: payload}
	return true, nil
}

func (r *Registry) buildDescriptor(component Component, sig Signal, uniqueID, stateTopic string, rep Representation) ([]byte, error) {
	base := EntityModel{
		Name:          sig.DisplayName(),
		UniqueID:      uniqueID,
		ObjectID:      r.objectID(sig),
		StateTopic:    stateTopic,
		ValueTemplate: rep.ValueTemplate,
		Device:        r.device.Snapshot(),
		Origin:        r.origin.Snapshot(),
	}

	switch component {
	case ComponentBinarySensor:
		base.ValueTemplate = binarySensorTemplate
		return json.Marshal(BinarySensorModel{
			EntityModel: base,
			PayloadOn:   "ON",
			PayloadOff:  "OFF",
		})

	case ComponentSwitch:
		return json.Marshal(SwitchModel{
			EntityModel:  base,
			CommandTopic: fmt.Sprintf("%s/%s/%s/%s/set", r.discoveryPrefix, component, r.device.ID, uniqueID),
			PayloadOn:    "ON",
			PayloadOff:   "OFF",
		})

	default:
		deviceClass, stateClass := sensorClasses(sig.Name, rep.Unit)
		return json.Marshal(SensorModel{
			EntityModel:       base,
			DeviceClass:       deviceClass,
			StateClass:        stateClass,
			UnitOfMeasurement: rep.Unit,
		})
	}
}

// sensorClasses infers device_class and state_class from the signal name
// and derived unit. The date check runs first so a name like
// "run_hours_due" reads as a date, not a duration.
func sensorClasses(name, unit string) (deviceClass, stateClass string) {
	lower := strings.ToLower(name)
	switch {
	case containsAny(lower, "due", "next", "date"):
		return "date", ""
	case unit == "kWh":
		return "energy", "total_increasing"
	case unit == "h":
		return "duration", "total_increasing"
	case unit == "" && containsAny(lower, "runtime", "run_hours", "run hours", "total_run_hours"):
		return "duration", "total_increasing"
	}
	return "", ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// uniqueID is the stable entity identity: device id, capitalized category
// and formatted signal name. Deterministic for a given topic.
func (r *Registry) uniqueID(sig Signal) string {
	return fmt.Sprintf("%s_%s_%s", r.device.ID, capitalize(sig.Category), sig.FormattedName())
}

// objectID is the presentation-only id, derived from the device display
// name rather than the device id.
func (r *Registry) objectID(sig Signal) string {
	name := strings.ReplaceAll(r.device.Name, " ", "_")
	return fmt.Sprintf("%s_%s_%s", name, capitalize(sig.Category), sig.FormattedName())
}

// RepublishAll re-sends every descriptor published this session. Invoked
// when Home Assistant announces a restart; registration is idempotent on
// the platform side, so re-sending is safe.
func (r *Registry) RepublishAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, reg := range r.registered {
		if err := r.pub.PublishRetained(reg.topic, reg.payload); err != nil {
			r.log.Error("descriptor republish failed", "unique_id", id, "error", err)
		}
	}
}
