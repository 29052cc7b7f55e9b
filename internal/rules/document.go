package rules

import (
	"fmt"
	"strings"
)

// Recommendation is a single placement instruction produced by a matched rule.
// Identity for deduplication is the full (type, place, note, citation) tuple.
type Recommendation struct {
	Type     string `json:"type"`
	Place    string `json:"place"`
	Note     string `json:"note,omitempty"`
	Source   string `json:"source,omitempty"`
	Citation string `json:"citation,omitempty"`
}

// TestingAction describes a recurring maintenance step from a jurisdiction's
// testing defaults.
type TestingAction struct {
	Action    string `json:"action"`
	Frequency string `json:"frequency"`
	Note      string `json:"note,omitempty"`
}

// Rule pairs a condition with the recommendations and notes it contributes.
type Rule struct {
	ID        string           `json:"id"`
	When      *Condition       `json:"when,omitempty"`
	Recommend []Recommendation `json:"recommend,omitempty"`
	Notes     []string         `json:"notes,omitempty"`
	Priority  int              `json:"priority,omitempty"`
}

// Meta identifies a jurisdiction document and its optional parent.
type Meta struct {
	Jurisdiction string `json:"jurisdiction"`
	Version      string `json:"version"`
	Inherits     string `json:"inherits,omitempty"`
}

// Document is one jurisdiction rule file. Documents are immutable after load.
type Document struct {
	Meta    Meta            `json:"meta"`
	Rules   []Rule          `json:"rules"`
	Testing []TestingAction `json:"testing,omitempty"`
}

var (
	validRecommendationTypes = map[string]bool{
		"smoke": true,
		"co":    true,
	}
	validPlaces = map[string]bool{
		"each_bedroom":             true,
		"outside_sleeping_areas":   true,
		"each_level_incl_basement": true,
		"near_sleeping_areas":      true,
		"common_hallways":          true,
		"other":                    true,
	}
	validTestingActions = map[string]bool{
		"test":            true,
		"clean":           true,
		"replace_battery": true,
		"replace_device":  true,
	}
	validFrequencies = map[string]bool{
		"monthly":          true,
		"quarterly":        true,
		"annual":           true,
		"10_years":         true,
		"per_manufacturer": true,
	}
)

// Validate checks the document's structural invariants eagerly so a malformed
// file is rejected at load time rather than dropping rules per request.
func (d *Document) Validate() error {
	if strings.TrimSpace(d.Meta.Jurisdiction) == "" {
		return fmt.Errorf("meta.jurisdiction is required")
	}
	seen := make(map[string]bool, len(d.Rules))
	for i, rule := range d.Rules {
		id := strings.TrimSpace(rule.ID)
		if id == "" {
			return fmt.Errorf("rules[%d]: id is required", i)
		}
		if seen[id] {
			return fmt.Errorf("rules[%d]: duplicate id %q", i, id)
		}
		seen[id] = true
		if err := rule.When.Validate(); err != nil {
			return fmt.Errorf("rule %q: when: %w", id, err)
		}
		for j, rec := range rule.Recommend {
			if !validRecommendationTypes[rec.Type] {
				return fmt.Errorf("rule %q: recommend[%d]: invalid type %q", id, j, rec.Type)
			}
			if !validPlaces[rec.Place] {
				return fmt.Errorf("rule %q: recommend[%d]: invalid place %q", id, j, rec.Place)
			}
		}
	}
	for i, t := range d.Testing {
		if !validTestingActions[t.Action] {
			return fmt.Errorf("testing[%d]: invalid action %q", i, t.Action)
		}
		if !validFrequencies[t.Frequency] {
			return fmt.Errorf("testing[%d]: invalid frequency %q", i, t.Frequency)
		}
	}
	return nil
}
