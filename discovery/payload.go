package discovery

import (
	"encoding/json"
	"regexp"
	"strings"
)

// RepresentationKind tags the inferred shape of a payload.
type RepresentationKind string

const (
	RepresentationRaw         RepresentationKind = "raw"
	RepresentationJSONValue   RepresentationKind = "json_value"
	RepresentationDate        RepresentationKind = "date"
	RepresentationNumericUnit RepresentationKind = "numeric_unit"
	RepresentationColonSplit  RepresentationKind = "colon_split"
)

// Representation describes how Home Assistant should render a payload: a
// Jinja value template plus an optional unit of measurement.
type Representation struct {
	Kind          RepresentationKind
	ValueTemplate string
	Unit          string
}

// rawRepresentation passes the payload through untransformed.
var rawRepresentation = Representation{
	Kind:          RepresentationRaw,
	ValueTemplate: "{{ value }}",
}

// dateTemplate extracts the first M/D/YYYY substring and reorders it to
// YYYY-MM-DD with zero-padded month and day, falling back to the raw value
// when nothing matches. The doubled backslashes survive into the published
// JSON so the Jinja string literal decodes to a single-backslash regex.
const dateTemplate = `{% set date_match = value | regex_findall('.*?(\\d{1,2}/\\d{1,2}/\\d{4})') %}
{% if date_match %}
  {% set date_parts = date_match[0].split('/') %}
  {{ date_parts[2] ~ '-' ~ '%02d' | format(date_parts[0] | int) ~ '-' ~ '%02d' | format(date_parts[1] | int) }}
{% else %}
  {{ value }}
{% endif %}`

// numericUnitTemplate strips a trailing unit and keeps the number.
const numericUnitTemplate = `{{ value | regex_findall('.*?(\\d+\\.?\\d*)\\s*[a-zA-Z%]+$') | first }}`

// colonSplitTemplate keeps the text after the first ": " separator, passing
// the value through unchanged if splitting yields a single part.
const colonSplitTemplate = `{{ value.split(': ')[1] if value.split(': ') | length > 1 else value }}`

var (
	dateRe = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)

	// Anchored at the end of the payload on purpose: a trailing space or
	// punctuation mark means the payload is not a plain reading and gets no
	// unit attached.
	numericUnitRe = regexp.MustCompile(`(\d+\.?\d*)\s*([a-zA-Z%]+)$`)
)

// matcher is one step of the classification cascade.
type matcher struct {
	name  string
	match func(payload string) (Representation, bool)
}

// payloadMatchers is evaluated in order and the first match wins. Ordering
// is load-bearing: a JSON blob may contain a date string, and a date line
// usually contains a colon.
var payloadMatchers = []matcher{
	{"json_value", matchJSONValue},
	{"date", matchDate},
	{"numeric_unit", matchNumericUnit},
	{"colon_split", matchColonSplit},
}

// ClassifyPayload infers a rendering template and optional unit from a raw
// payload. It never fails; unrecognized payloads degrade to the raw
// pass-through representation.
func ClassifyPayload(payload string) Representation {
	for _, m := range payloadMatchers {
		if rep, ok := m.match(payload); ok {
			return rep
		}
	}
	return rawRepresentation
}

func matchJSONValue(payload string) (Representation, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Representation{}, false
	}
	if _, ok := fields["value"]; !ok {
		return Representation{}, false
	}

	rep := Representation{
		Kind:          RepresentationJSONValue,
		ValueTemplate: "{{ value_json.value }}",
	}
	if raw, ok := fields["unit"]; ok {
		var unit string
		if err := json.Unmarshal(raw, &unit); err == nil {
			rep.Unit = unit
		}
	}
	return rep, true
}

func matchDate(payload string) (Representation, bool) {
	if !dateRe.MatchString(payload) {
		return Representation{}, false
	}
	return Representation{
		Kind:          RepresentationDate,
		ValueTemplate: dateTemplate,
	}, true
}

func matchNumericUnit(payload string) (Representation, bool) {
	m := numericUnitRe.FindStringSubmatch(payload)
	if m == nil {
		return Representation{}, false
	}
	return Representation{
		Kind:          RepresentationNumericUnit,
		ValueTemplate: numericUnitTemplate,
		Unit:          m[2],
	}, true
}

func matchColonSplit(payload string) (Representation, bool) {
	if !strings.Contains(payload, ": ") {
		return Representation{}, false
	}
	return Representation{
		Kind:          RepresentationColonSplit,
		ValueTemplate: colonSplitTemplate,
	}, true
}
