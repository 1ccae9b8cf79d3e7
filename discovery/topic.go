package discovery

import "strings"

// Signal identifies a single value within the monitor's topic tree.
//
// A topic like generator/status/runtime/total yields Category "status" and
// Name "runtime_total".
type Signal struct {
	Category string
	Name     string
}

// ParseTopic splits a topic into a Signal. Topics with fewer than three
// segments carry no signal name and are discarded rather than treated as an
// error.
func ParseTopic(topic string) (Signal, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return Signal{}, false
	}

	return Signal{
		Category: parts[1],
		Name:     strings.Join(parts[2:], "_"),
	}, true
}

// FormattedName returns the signal name with each word capitalized and
// joined with underscores, e.g. "controller detected" becomes
// "Controller_Detected". This form is used for entity identities and the
// device-metadata special cases.
func (s Signal) FormattedName() string {
	words := strings.Fields(strings.ReplaceAll(s.Name, "_", " "))
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, "_")
}

// DisplayName returns the human-readable entity name, e.g. category "status"
// and name "runtime_total" become "Status Runtime Total".
func (s Signal) DisplayName() string {
	words := strings.Fields(s.Category + " " + strings.ReplaceAll(s.Name, "_", " "))
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}
