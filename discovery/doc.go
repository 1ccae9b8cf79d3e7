// Package discovery turns free-form genmon telemetry into Home Assistant
// MQTT discovery descriptors.
//
// Each inbound (topic, payload) pair is parsed into a signal identity, the
// payload is classified through a fixed, ordered heuristic cascade to pick a
// rendering template and unit, and a descriptor is published at most once
// per derived identity. Classification never errors: payloads that fit no
// pattern pass through as raw values, and topics with too few segments are
// dropped.
package discovery
