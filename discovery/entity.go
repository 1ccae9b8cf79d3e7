package discovery

import "strings"

// Component is the Home Assistant component an entity is registered under.
type Component string

const (
	ComponentSensor       Component = "sensor"
	ComponentBinarySensor Component = "binary_sensor"
	ComponentSwitch       Component = "switch"
	ComponentButton       Component = "button"
)

// booleanTokens are payload values treated as on/off states regardless of
// the signal name.
var booleanTokens = map[string]struct{}{
	"Yes":     {},
	"No":      {},
	"Online":  {},
	"Offline": {},
	"True":    {},
	"False":   {},
	"ON":      {},
	"OFF":     {},
}

// binarySensorTemplate maps the boolean-like vocabulary onto ON/OFF once at
// registration time. The on-set is fixed; every other value reads as off.
const binarySensorTemplate = `{% if value in ['Yes', 'ON', 'Online', 'True', 'true', '1'] %}ON{% else %}OFF{% endif %}`

// ClassifyEntity picks the component for a signal from its underscored name
// and the first payload observed on it.
func ClassifyEntity(name, payload string) Component {
	if _, ok := booleanTokens[strings.TrimSpace(payload)]; ok {
		return ComponentBinarySensor
	}

	switch name {
	case "state", "switch_state":
		return ComponentBinarySensor
	case "command":
		return ComponentSwitch
	}
	return ComponentSensor
}
