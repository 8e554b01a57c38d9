// Package featureflags evaluates runtime toggles from FEATURE_FLAGS.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// SearchEscapeRegex makes article search treat the query as a literal
// instead of a regular expression.
const SearchEscapeRegex = "search_escape_regex"

// rule is a parsed flag value. percent is 0..100; on/off map to 100 and 0.
type rule struct {
	percent int
	rollout bool
}

// Manager holds flags parsed from a list such as
// "search_escape_regex=on,new_editor=25%". Values are on/true/1, off/false/0
// or N% for a rollout keyed on the caller's user ID. Malformed entries are
// dropped and read as off.
type Manager struct {
	rules map[string]rule
}

// NewManager parses raw. A nil or empty Manager enables nothing.
func NewManager(raw string) *Manager {
	m := &Manager{rules: make(map[string]rule)}
	for _, entry := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		name := normalize(key)
		if name == "" {
			continue
		}
		if r, ok := parseRule(normalize(value)); ok {
			m.rules[name] = r
		}
	}
	return m
}

func parseRule(value string) (rule, bool) {
	switch value {
	case "on", "true", "1":
		return rule{percent: 100}, true
	case "off", "false", "0":
		return rule{}, true
	}
	pctRaw, ok := strings.CutSuffix(value, "%")
	if !ok {
		return rule{}, false
	}
	pct, err := strconv.Atoi(pctRaw)
	if err != nil {
		return rule{}, false
	}
	return rule{percent: min(max(pct, 0), 100), rollout: true}, true
}

// Enabled reports whether name is on for subject. Partial rollouts need a
// subject; anonymous callers ("") only see fully enabled flags.
func (m *Manager) Enabled(name, subject string) bool {
	if m == nil {
		return false
	}
	r, ok := m.rules[normalize(name)]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case subject == "":
		return false
	}
	return bucket(name, subject) < r.percent
}

// Names lists the configured flags in order, for startup logging.
func (m *Manager) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.rules))
	for name := range m.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// bucket places subject in 0..99 for name. The same pair always lands in the
// same bucket, so a user keeps their side of a rollout across requests.
func bucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + subject))
	return int(h.Sum32() % 100)
}
