package checklist

import (
	"encoding/json"
	"errors"
	"testing"
	"testing/fstest"

	"alarmcheck-backend/internal/rules"
)

const baselineDoc = `{
  "meta": {"jurisdiction": "US/common", "version": "1"},
  "rules": [
    {
      "id": "smoke-baseline",
      "when": {"always": true},
      "priority": 10,
      "recommend": [
        {"type": "smoke", "place": "each_bedroom", "source": "model_code"},
        {"type": "smoke", "place": "outside_sleeping_areas", "source": "model_code"},
        {"type": "smoke", "place": "each_level_incl_basement", "source": "model_code"}
      ]
    },
    {
      "id": "co-fuel",
      "when": {"any": [
        {"eq": {"has_fuel_appliance": true}},
        {"eq": {"has_attached_garage": true}}
      ]},
      "priority": 5,
      "recommend": [
        {"type": "co", "place": "near_sleeping_areas", "source": "model_code"}
      ]
    },
    {
      "id": "multi-level",
      "when": {"gte": {"floors": 2}},
      "notes": ["Place an alarm at the top of each stairway."]
    }
  ],
  "testing": [
    {"action": "test", "frequency": "monthly"},
    {"action": "replace_device", "frequency": "10_years"}
  ]
}`

const caDoc = `{
  "meta": {"jurisdiction": "US/CA/common", "version": "1", "inherits": "US/common"},
  "rules": [
    {
      "id": "ca-co",
      "when": {"always": true},
      "recommend": [
        {"type": "co", "place": "outside_sleeping_areas", "source": "state_amendment", "citation": "Cal. HSC 17926"}
      ],
      "notes": ["CA: CO devices required in all dwellings."]
    }
  ]
}`

func newTestPlanner(t *testing.T, docs map[string]string) *Planner {
	t.Helper()
	fsys := fstest.MapFS{}
	for name, data := range docs {
		fsys[name] = &fstest.MapFile{Data: []byte(data)}
	}
	return NewPlanner(rules.NewStore(fsys))
}

func defaultPlanner(t *testing.T) *Planner {
	t.Helper()
	return newTestPlanner(t, map[string]string{
		"US/common.json":    baselineDoc,
		"US/CA/common.json": caDoc,
	})
}

func baseProfile() Profile {
	return Profile{
		State:               "US",
		PropertyType:        "single_family",
		Bedrooms:            3,
		Floors:              2,
		HasFuelAppliance:    true,
		InterconnectPresent: "unknown",
	}
}

func TestPlanEndToEnd(t *testing.T) {
	planner := defaultPlanner(t)

	plan, err := planner.Plan(baseProfile())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	smokePlaces := map[string]bool{}
	coPlaces := map[string]bool{}
	for _, rec := range plan.Recommendations {
		switch rec.Type {
		case "smoke":
			smokePlaces[rec.Place] = true
		case "co":
			coPlaces[rec.Place] = true
		}
	}
	if !smokePlaces["each_bedroom"] {
		t.Fatalf("expected smoke recommendation for each_bedroom, got %+v", plan.Recommendations)
	}
	if !coPlaces["near_sleeping_areas"] {
		t.Fatalf("expected co recommendation near_sleeping_areas, got %+v", plan.Recommendations)
	}
	if len(plan.Notes) != 1 || plan.Notes[0] != "Place an alarm at the top of each stairway." {
		t.Fatalf("unexpected notes: %v", plan.Notes)
	}
	if len(plan.Testing) != 2 || plan.Testing[0].Action != "test" {
		t.Fatalf("unexpected testing actions: %+v", plan.Testing)
	}
	if len(plan.Resources) == 0 {
		t.Fatalf("expected static resources")
	}
}

func TestPlanNoCOWithoutFuelSources(t *testing.T) {
	planner := defaultPlanner(t)

	profile := baseProfile()
	profile.HasFuelAppliance = false
	profile.HasAttachedGarage = false

	plan, err := planner.Plan(profile)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	for _, rec := range plan.Recommendations {
		if rec.Type == "co" {
			t.Fatalf("unexpected co recommendation: %+v", rec)
		}
	}
}

func TestPlanDeterministic(t *testing.T) {
	planner := defaultPlanner(t)
	profile := baseProfile()

	first, err := planner.Plan(profile)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	second, err := planner.Plan(profile)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("expected byte-identical plans\nfirst:  %s\nsecond: %s", a, b)
	}
}

func TestPlanDeduplicatesIdenticalRecommendations(t *testing.T) {
	planner := newTestPlanner(t, map[string]string{
		"US/common.json": `{
  "meta": {"jurisdiction": "US/common", "version": "1"},
  "rules": [
    {"id": "a", "when": {"always": true}, "recommend": [{"type": "smoke", "place": "each_bedroom"}]},
    {"id": "b", "when": {"always": true}, "recommend": [{"type": "smoke", "place": "each_bedroom"}]}
  ]
}`,
	})

	plan, err := planner.Plan(baseProfile())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation after dedupe, got %d", len(plan.Recommendations))
	}
}

func TestPlanKeepsDistinctCitations(t *testing.T) {
	planner := newTestPlanner(t, map[string]string{
		"US/common.json": `{
  "meta": {"jurisdiction": "US/common", "version": "1"},
  "rules": [
    {"id": "a", "when": {"always": true}, "recommend": [{"type": "smoke", "place": "each_bedroom", "citation": "NFPA 72"}]},
    {"id": "b", "when": {"always": true}, "recommend": [{"type": "smoke", "place": "each_bedroom", "citation": "IRC R314"}]}
  ]
}`,
	})

	plan, err := planner.Plan(baseProfile())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Recommendations) != 2 {
		t.Fatalf("expected distinct citations to survive dedupe, got %d", len(plan.Recommendations))
	}
}

func TestPlanPriorityOrdersOutput(t *testing.T) {
	planner := newTestPlanner(t, map[string]string{
		"US/common.json": `{
  "meta": {"jurisdiction": "US/common", "version": "1"},
  "rules": [
    {"id": "a", "when": {"always": true}, "priority": 5, "recommend": [{"type": "smoke", "place": "each_bedroom"}]},
    {"id": "b", "when": {"always": true}, "priority": 10, "recommend": [{"type": "co", "place": "near_sleeping_areas"}]}
  ]
}`,
	})

	plan, err := planner.Plan(baseProfile())
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(plan.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(plan.Recommendations))
	}
	if plan.Recommendations[0].Type != "co" {
		t.Fatalf("expected priority 10 rule's output first, got %+v", plan.Recommendations[0])
	}
}

func TestPlanEqualPriorityKeepsChainOrder(t *testing.T) {
	planner := defaultPlanner(t)

	profile := baseProfile()
	profile.State = "US-CA"

	plan, err := planner.Plan(profile)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	if len(plan.JurisdictionChain) != 2 ||
		plan.JurisdictionChain[0] != "US/common" ||
		plan.JurisdictionChain[1] != "US/CA/common" {
		t.Fatalf("unexpected jurisdiction chain: %v", plan.JurisdictionChain)
	}

	// Baseline smoke recs (priority 10) come first; the CA overlay rule has
	// priority 0 so its CO rec trails the baseline CO rec.
	var coOrder []string
	for _, rec := range plan.Recommendations {
		if rec.Type == "co" {
			coOrder = append(coOrder, rec.Place)
		}
	}
	if len(coOrder) != 2 || coOrder[0] != "near_sleeping_areas" || coOrder[1] != "outside_sleeping_areas" {
		t.Fatalf("unexpected co ordering: %v", coOrder)
	}
	found := false
	for _, note := range plan.Notes {
		if note == "CA: CO devices required in all dwellings." {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected CA overlay note, got %v", plan.Notes)
	}
}

func TestPlanUnknownJurisdiction(t *testing.T) {
	planner := defaultPlanner(t)

	profile := baseProfile()
	profile.State = "ZZ-NOPE"

	_, err := planner.Plan(profile)
	if !errors.Is(err, rules.ErrJurisdictionNotFound) {
		t.Fatalf("expected ErrJurisdictionNotFound, got %v", err)
	}
}

func TestRequestProfileDefaults(t *testing.T) {
	bedrooms := 2
	req := Request{
		PropertyType: "single_family",
		Bedrooms:     &bedrooms,
	}

	profile, err := req.Profile()
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.State != "US" {
		t.Fatalf("expected default state US, got %q", profile.State)
	}
	if profile.Floors != 1 {
		t.Fatalf("expected default floors 1, got %d", profile.Floors)
	}
	if profile.InterconnectPresent != "unknown" {
		t.Fatalf("expected default interconnect unknown, got %q", profile.InterconnectPresent)
	}
	if profile.HasFuelAppliance || profile.HasAttachedGarage || profile.PermitPlanned {
		t.Fatalf("expected boolean defaults false, got %+v", profile)
	}
}

func TestRequestProfileValidation(t *testing.T) {
	negative := -1
	zero := 0
	two := 2

	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{
			name:  "missing_property_type",
			req:   Request{Bedrooms: &two},
			field: "property_type",
		},
		{
			name:  "missing_bedrooms",
			req:   Request{PropertyType: "duplex"},
			field: "bedrooms",
		},
		{
			name:  "negative_bedrooms",
			req:   Request{PropertyType: "duplex", Bedrooms: &negative},
			field: "bedrooms",
		},
		{
			name:  "zero_floors",
			req:   Request{PropertyType: "duplex", Bedrooms: &two, Floors: &zero},
			field: "floors",
		},
		{
			name:  "bad_year_bucket",
			req:   Request{PropertyType: "duplex", Bedrooms: &two, YearBucket: "1985"},
			field: "year_bucket",
		},
		{
			name:  "bad_interconnect",
			req:   Request{PropertyType: "duplex", Bedrooms: &two, InterconnectPresent: "maybe"},
			field: "interconnect_present",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.req.Profile()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			fieldErr, ok := err.(*FieldError)
			if !ok {
				t.Fatalf("expected FieldError, got %T", err)
			}
			if fieldErr.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, fieldErr.Field)
			}
		})
	}
}
