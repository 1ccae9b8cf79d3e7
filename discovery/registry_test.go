package discovery_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genmon-tools/ha-bridge/discovery"
)

type publishCall struct {
	topic   string
	payload []byte
}

// publishRecorder captures retained publishes in place of a broker.
type publishRecorder struct {
	calls []publishCall
	err   error
}

func (p *publishRecorder) PublishRetained(topic string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.calls = append(p.calls, publishCall{topic: topic, payload: payload})
	return nil
}

func (p *publishRecorder) last(t *testing.T) publishCall {
	t.Helper()
	require.NotEmpty(t, p.calls)
	return p.calls[len(p.calls)-1]
}

func (p *publishRecorder) lastJSON(t *testing.T) map[string]any {
	t.Helper()
	return unmarshalCall(t, p.last(t))
}

func unmarshalCall(t *testing.T, call publishCall) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal(call.payload, &fields))
	return fields
}

func newTestRegistry() (*discovery.Registry, *publishRecorder, *discovery.DeviceInfo) {
	rec := &publishRecorder{}
	device := newTestDevice()
	origin := discovery.OriginInfo{
		Name:       "Generator Monitor",
		SWVersion:  "1.0.0",
		SupportURL: "https://github.com/jgyates/genmon",
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return discovery.NewRegistry("homeassistant", "generator", device, origin, rec, log), rec, device
}

func TestHandleMessageRegistersSensor(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	ev := reg.HandleMessage("generator/status/battery_voltage", "13.2 V")
	assert.Equal(t, discovery.ResultRegistered, ev.Result)
	assert.Equal(t, discovery.ComponentSensor, ev.Component)
	assert.Equal(t, "Genmon_Generator_Status_Battery_Voltage", ev.UniqueID)
	assert.Equal(t, "V", ev.Unit)

	call := rec.last(t)
	assert.Equal(t, "homeassistant/sensor/Genmon_Generator/Genmon_Generator_Status_Battery_Voltage/config", call.topic)

	fields := rec.lastJSON(t)
	assert.Equal(t, "Status Battery Voltage", fields["name"])
	assert.Equal(t, "Genmon_Generator_Status_Battery_Voltage", fields["unique_id"])
	assert.Equal(t, "Generator_Status_Battery_Voltage", fields["object_id"])
	assert.Equal(t, "generator/status/battery_voltage", fields["state_topic"])
	assert.Equal(t, "V", fields["unit_of_measurement"])
	assert.NotEmpty(t, fields["value_template"])

	device, ok := fields["device"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"Genmon_Generator"}, device["identifiers"])
	assert.Equal(t, "Generator", device["name"])
	assert.Equal(t, "GenMon", device["manufacturer"])

	origin, ok := fields["origin"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Generator Monitor", origin["name"])
	assert.Equal(t, "https://github.com/jgyates/genmon", origin["support_url"])
}

func TestHandleMessageIdempotent(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	first := reg.HandleMessage("generator/status/battery_voltage", "13.2 V")
	second := reg.HandleMessage("generator/status/battery_voltage", "13.1 V")

	assert.Equal(t, discovery.ResultRegistered, first.Result)
	assert.Equal(t, discovery.ResultDuplicate, second.Result)
	assert.Equal(t, first.UniqueID, second.UniqueID)
	assert.Len(t, rec.calls, 1)
}

func TestHandleMessageDiscardsShortTopics(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	ev := reg.HandleMessage("generator/status", "13.2 V")
	assert.Equal(t, discovery.ResultDiscarded, ev.Result)
	assert.Empty(t, rec.calls)
}

func TestHandleMessageAbsorbsControllerDetected(t *testing.T) {
	reg, rec, device := newTestRegistry()

	ev := reg.HandleMessage("generator/status/controller_detected", "Genmon")
	assert.Equal(t, discovery.ResultAbsorbed, ev.Result)
	assert.Equal(t, "model", ev.MetadataField)
	assert.Empty(t, rec.calls)
	assert.Equal(t, "Genmon", device.Model)
}

func TestHandleMessageFirmwareVersionIsSensorAndMetadata(t *testing.T) {
	reg, rec, device := newTestRegistry()

	ev := reg.HandleMessage("generator/status/firmware_version", "V1.17")
	assert.Equal(t, discovery.ResultRegistered, ev.Result)
	assert.Equal(t, "sw_version", ev.MetadataField)
	assert.Equal(t, "V1.17", device.SWVersion)
	assert.Len(t, rec.calls, 1)
}

func TestDescriptorSnapshotsDeviceMetadata(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	reg.HandleMessage("generator/status/battery_voltage", "13.2 V")
	reg.HandleMessage("generator/status/firmware_version", "V1.17")
	reg.HandleMessage("generator/status/engine_state", "Stopped")

	require.Len(t, rec.calls, 3)

	deviceBlock := func(call publishCall) map[string]any {
		var fields map[string]any
		require.NoError(t, json.Unmarshal(call.payload, &fields))
		return fields["device"].(map[string]any)
	}

	// Registered before the firmware update: still carries the sentinel.
	assert.Equal(t, discovery.Undefined, deviceBlock(rec.calls[0])["sw_version"])
	// Registered after: sees the new value.
	assert.Equal(t, "V1.17", deviceBlock(rec.calls[2])["sw_version"])
}

func TestBinarySensorDescriptor(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	ev := reg.HandleMessage("generator/status/switch_state", "Yes")
	assert.Equal(t, discovery.ResultRegistered, ev.Result)
	assert.Equal(t, discovery.ComponentBinarySensor, ev.Component)

	call := rec.last(t)
	assert.Equal(t, "homeassistant/binary_sensor/Genmon_Generator/Genmon_Generator_Status_Switch_State/config", call.topic)

	fields := rec.lastJSON(t)
	assert.Equal(t, "ON", fields["payload_on"])
	assert.Equal(t, "OFF", fields["payload_off"])

	// The boolean mapping is baked into the template, not computed per
	// message.
	template, _ := fields["value_template"].(string)
	for _, token := range []string{"'Yes'", "'ON'", "'Online'", "'True'", "'true'", "'1'"} {
		assert.Contains(t, template, token)
	}
}

func TestSwitchDescriptor(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	ev := reg.HandleMessage("generator/status/command", "idle")
	assert.Equal(t, discovery.ComponentSwitch, ev.Component)

	fields := rec.lastJSON(t)
	assert.Equal(t, "homeassistant/switch/Genmon_Generator/Genmon_Generator_Status_Command/set", fields["command_topic"])
	assert.Equal(t, "ON", fields["payload_on"])
	assert.Equal(t, "OFF", fields["payload_off"])
}

func TestSensorClassInference(t *testing.T) {
	tests := []struct {
		name            string
		topic           string
		payload         string
		wantDeviceClass string
		wantStateClass  string
	}{
		{
			name:            "duration from hours unit",
			topic:           "generator/status/runtime/total",
			payload:         "120 h",
			wantDeviceClass: "duration",
			wantStateClass:  "total_increasing",
		},
		{
			name:            "duration from name with no unit",
			topic:           "generator/status/total_run_hours",
			payload:         "120",
			wantDeviceClass: "duration",
			wantStateClass:  "total_increasing",
		},
		{
			name:            "energy from kWh unit",
			topic:           "generator/status/power_output",
			payload:         "42.5 kWh",
			wantDeviceClass: "energy",
			wantStateClass:  "total_increasing",
		},
		{
			name:            "date from name",
			topic:           "generator/maintenance/battery_check_due",
			payload:         "Battery Check Due: 12/29/2025",
			wantDeviceClass: "date",
			wantStateClass:  "",
		},
		{
			name:            "date check wins over duration name",
			topic:           "generator/maintenance/run_hours_due",
			payload:         "50",
			wantDeviceClass: "date",
			wantStateClass:  "",
		},
		{
			name:            "plain sensor gets no class",
			topic:           "generator/status/engine_status",
			payload:         "Stopped",
			wantDeviceClass: "",
			wantStateClass:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, rec, _ := newTestRegistry()

			ev := reg.HandleMessage(tt.topic, tt.payload)
			require.Equal(t, discovery.ResultRegistered, ev.Result)

			fields := rec.lastJSON(t)
			if tt.wantDeviceClass == "" {
				assert.NotContains(t, fields, "device_class")
			} else {
				assert.Equal(t, tt.wantDeviceClass, fields["device_class"])
			}
			if tt.wantStateClass == "" {
				assert.NotContains(t, fields, "state_class")
			} else {
				assert.Equal(t, tt.wantStateClass, fields["state_class"])
			}
		})
	}
}

func TestFailedPublishIsRetried(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	rec.err = errors.New("broker unavailable")
	ev := reg.HandleMessage("generator/status/battery_voltage", "13.2 V")
	assert.Equal(t, discovery.ResultError, ev.Result)
	assert.Empty(t, rec.calls)

	// The identity was not recorded, so the next message registers cleanly.
	rec.err = nil
	ev = reg.HandleMessage("generator/status/battery_voltage", "13.2 V")
	assert.Equal(t, discovery.ResultRegistered, ev.Result)
	assert.Len(t, rec.calls, 1)
}

func TestRepublishAll(t *testing.T) {
	reg, rec, _ := newTestRegistry()

	reg.HandleMessage("generator/status/battery_voltage", "13.2 V")
	reg.HandleMessage("generator/status/engine_state", "Stopped")
	require.Len(t, rec.calls, 2)

	reg.RepublishAll()
	require.Len(t, rec.calls, 4)

	topics := map[string]int{}
	for _, call := range rec.calls {
		topics[call.topic]++
	}
	for topic, count := range topics {
		assert.Equal(t, 2, count, "topic %s", topic)
	}
}
