package checklist

import (
	"sort"

	"alarmcheck-backend/internal/rules"
)

// DefaultResources is the static reference list attached to every plan. It is
// advisory material, not rule-driven output.
var DefaultResources = []Resource{
	{Label: "NFPA: Smoke alarm safety", URL: "https://www.nfpa.org/education-and-research/home-fire-safety/smoke-alarms"},
	{Label: "USFA: Carbon monoxide safety", URL: "https://www.usfa.fema.gov/prevention/home-fires/prevent-fires/carbon-monoxide/"},
	{Label: "CPSC: CO alarm requirements", URL: "https://www.cpsc.gov/Safety-Education/Safety-Education-Centers/Carbon-Monoxide-Information-Center"},
}

// Planner evaluates the rule store against a profile and aggregates the
// matched output into a plan. It holds no per-request state.
type Planner struct {
	Store     *rules.Store
	Resources []Resource
}

// NewPlanner constructs a Planner backed by the given store.
func NewPlanner(store *rules.Store) *Planner {
	return &Planner{Store: store, Resources: DefaultResources}
}

type recommendationKey struct {
	Type     string
	Place    string
	Note     string
	Citation string
}

// Plan resolves the jurisdiction chain for the profile's state, evaluates
// every rule in chain order, and returns the deduplicated, priority-ordered
// checklist. For a fixed profile and unchanged rule files the output is
// deterministic down to ordering.
func (p *Planner) Plan(profile Profile) (*Plan, error) {
	chain, err := p.Store.Resolve(profile.State)
	if err != nil {
		return nil, err
	}

	inputs := profile.inputs()
	matched := make([]rules.Rule, 0, len(chain.Rules))
	for _, rule := range chain.Rules {
		if rules.Evaluate(rule.When, inputs) {
			matched = append(matched, rule)
		}
	}

	// Stable sort: ties keep chain order, so baseline rules stay ahead of
	// overlay rules at equal priority.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Priority > matched[j].Priority
	})

	recommendations := make([]rules.Recommendation, 0, len(matched))
	seenRecs := make(map[recommendationKey]bool)
	notes := make([]string, 0, len(matched))
	seenNotes := make(map[string]bool)
	for _, rule := range matched {
		for _, rec := range rule.Recommend {
			key := recommendationKey{Type: rec.Type, Place: rec.Place, Note: rec.Note, Citation: rec.Citation}
			if seenRecs[key] {
				continue
			}
			seenRecs[key] = true
			recommendations = append(recommendations, rec)
		}
		for _, note := range rule.Notes {
			if seenNotes[note] {
				continue
			}
			seenNotes[note] = true
			notes = append(notes, note)
		}
	}

	testing := make([]rules.TestingAction, 0, len(chain.Testing))
	testing = append(testing, chain.Testing...)

	resources := make([]Resource, 0, len(p.Resources))
	resources = append(resources, p.Resources...)

	return &Plan{
		Recommendations:   recommendations,
		Testing:           testing,
		Notes:             notes,
		JurisdictionChain: append([]string(nil), chain.IDs...),
		Resources:         resources,
	}, nil
}
