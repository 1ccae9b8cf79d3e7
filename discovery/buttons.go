package discovery

import (
	"encoding/json"
	"fmt"
)

// commandButtons is the fixed set of remote commands exposed as button
// entities. These are not payload-driven; they exist for every monitored
// generator.
var commandButtons = []struct {
	name    string
	command string
}{
	{"Start Generator", "start"},
	{"Stop Generator", "stop"},
	{"Start Exercise Cycle", "startexercise"},
}

// RegisterButtons publishes the command-button descriptors. Invoked once
// per successful connection; re-invocation on reconnect re-publishes
// identical descriptors, which the platform treats as idempotent.
func (r *Registry) RegisterButtons() error {
	commandTopic := fmt.Sprintf("%s/command", r.genmonPrefix)

	for _, b := range commandButtons {
		uniqueID := fmt.Sprintf("%s_Command_%s", r.device.ID, capitalize(b.command))

		payload, err := json.Marshal(ButtonModel{
			EntityModel: EntityModel{
				Name:     b.name,
				UniqueID: uniqueID,
				ObjectID: r.objectID(Signal{Category: "command", Name: b.command}),
				Device:   r.device.Snapshot(),
				Origin:   r.origin.Snapshot(),
			},
			CommandTopic: commandTopic,
			PayloadPress: b.command,
		})
		if err != nil {
			return err
		}

		configTopic := fmt.Sprintf("%s/%s/%s/%s/config", r.discoveryPrefix, ComponentButton, r.device.ID, uniqueID)
		if err := r.pub.PublishRetained(configTopic, payload); err != nil {
			return fmt.Errorf("registering button %q: %w", b.name, err)
		}
		r.log.Info("button registered", "unique_id", uniqueID, "command", b.command)
	}
	return nil
}
