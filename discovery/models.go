package discovery

// DeviceModel is the device block shared by every entity the bridge
// registers. Home Assistant groups entities carrying the same identifiers
// under one device.
type DeviceModel struct {
	// A list of IDs that uniquely identify the device
	Identifiers []string `json:"identifiers"`

	// The name of the device
	Name string `json:"name"`

	// The manufacturer of the device
	Manufacturer string `json:"manufacturer"`

	// The model of the device, filled in from the Controller_Detected signal
	Model string `json:"model"`

	// SerialNumber reported by the monitor
	SerialNumber string `json:"serial_number"`

	// SoftwareVersion of the generator controller firmware
	SWVersion string `json:"sw_version"`
}

// OriginModel tells Home Assistant which integration produced a descriptor.
type OriginModel struct {
	Name       string `json:"name"`
	SWVersion  string `json:"sw_version"`
	SupportURL string `json:"support_url"`
}

// EntityModel carries the fields common to every discovery descriptor.
type EntityModel struct {
	// Name is the HASS default display name
	Name string `json:"name"`

	// UniqueID is an ID uniquely identifying this entity
	UniqueID string `json:"unique_id"`

	// ObjectID overrides the automatic entity id in hass
	ObjectID string `json:"object_id,omitempty"`

	// StateTopic is the MQTT topic subscribed to receive values
	StateTopic string `json:"state_topic,omitempty"`

	// ValueTemplate defines the template to extract the value
	ValueTemplate string `json:"value_template,omitempty"`

	// Device indicates which device this entity is part of
	Device *DeviceModel `json:"device,omitempty"`

	// Origin identifies the producing integration
	Origin *OriginModel `json:"origin,omitempty"`
}

// SensorModel is the descriptor for a plain sensor entity.
type SensorModel struct {
	EntityModel

	// DeviceClass is one of the well-known HASS device classes, such as
	// 'date', 'energy' or 'duration'
	DeviceClass string `json:"device_class,omitempty"`

	// StateClass is one of 'measurement', 'total' or 'total_increasing'
	StateClass string `json:"state_class,omitempty"`

	// UnitOfMeasurement defines the measurement units of the sensor (if any)
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
}

// BinarySensorModel is the descriptor for an on/off state entity.
type BinarySensorModel struct {
	EntityModel

	PayloadOn  string `json:"payload_on"`
	PayloadOff string `json:"payload_off"`
}

// SwitchModel adds the command topic HASS publishes on/off requests to.
type SwitchModel struct {
	EntityModel

	CommandTopic string `json:"command_topic"`
	PayloadOn    string `json:"payload_on"`
	PayloadOff   string `json:"payload_off"`
}

// ButtonModel is a stateless command trigger.
type ButtonModel struct {
	EntityModel

	CommandTopic string `json:"command_topic"`
	PayloadPress string `json:"payload_press"`
}
