package checklist

import (
	"fmt"

	"alarmcheck-backend/internal/rules"
)

var validPropertyTypes = map[string]bool{
	"single_family": true,
	"duplex":        true,
	"apartment":     true,
}

var validYearBuckets = map[string]bool{
	"lt_1999":    true,
	"y1999_2010": true,
	"y2011_plus": true,
}

var validInterconnect = map[string]bool{
	"yes":     true,
	"no":      true,
	"unknown": true,
}

// Profile is the immutable household snapshot a plan is computed from. Built
// once per request and discarded with the response.
type Profile struct {
	State               string
	PropertyType        string
	Bedrooms            int
	Floors              int
	HasFuelAppliance    bool
	HasAttachedGarage   bool
	YearBucket          string // empty when not provided
	InterconnectPresent string
	PermitPlanned       bool
}

// Request is the wire shape of a checklist request. Optional fields are
// pointers so absent values take documented defaults instead of zero values.
type Request struct {
	State               string `json:"state"`
	PropertyType        string `json:"property_type"`
	Bedrooms            *int   `json:"bedrooms"`
	Floors              *int   `json:"floors"`
	HasFuelAppliance    *bool  `json:"has_fuel_appliance"`
	HasAttachedGarage   *bool  `json:"has_attached_garage"`
	YearBucket          string `json:"year_bucket"`
	InterconnectPresent string `json:"interconnect_present"`
	PermitPlanned       *bool  `json:"permit_planned"`
}

// Profile validates the request and applies defaults: state=US, floors=1,
// booleans false, interconnect_present=unknown.
func (r Request) Profile() (Profile, error) {
	p := Profile{
		State:               r.State,
		PropertyType:        r.PropertyType,
		Floors:              1,
		YearBucket:          r.YearBucket,
		InterconnectPresent: "unknown",
	}
	if p.State == "" {
		p.State = "US"
	}
	if !validPropertyTypes[p.PropertyType] {
		return Profile{}, &FieldError{Field: "property_type", Message: fmt.Sprintf("invalid property_type %q", p.PropertyType)}
	}
	if r.Bedrooms == nil {
		return Profile{}, &FieldError{Field: "bedrooms", Message: "bedrooms is required"}
	}
	if *r.Bedrooms < 0 {
		return Profile{}, &FieldError{Field: "bedrooms", Message: "bedrooms must not be negative"}
	}
	p.Bedrooms = *r.Bedrooms
	if r.Floors != nil {
		if *r.Floors < 1 {
			return Profile{}, &FieldError{Field: "floors", Message: "floors must be at least 1"}
		}
		p.Floors = *r.Floors
	}
	if r.HasFuelAppliance != nil {
		p.HasFuelAppliance = *r.HasFuelAppliance
	}
	if r.HasAttachedGarage != nil {
		p.HasAttachedGarage = *r.HasAttachedGarage
	}
	if p.YearBucket != "" && !validYearBuckets[p.YearBucket] {
		return Profile{}, &FieldError{Field: "year_bucket", Message: fmt.Sprintf("invalid year_bucket %q", p.YearBucket)}
	}
	if r.InterconnectPresent != "" {
		if !validInterconnect[r.InterconnectPresent] {
			return Profile{}, &FieldError{Field: "interconnect_present", Message: fmt.Sprintf("invalid interconnect_present %q", r.InterconnectPresent)}
		}
		p.InterconnectPresent = r.InterconnectPresent
	}
	if r.PermitPlanned != nil {
		p.PermitPlanned = *r.PermitPlanned
	}
	return p, nil
}

// inputs flattens the profile into the field map the condition evaluator
// reads. Optional fields that were not provided are omitted so conditions on
// them fail closed.
func (p Profile) inputs() map[string]any {
	in := map[string]any{
		"state":                p.State,
		"property_type":        p.PropertyType,
		"bedrooms":             p.Bedrooms,
		"floors":               p.Floors,
		"has_fuel_appliance":   p.HasFuelAppliance,
		"has_attached_garage":  p.HasAttachedGarage,
		"interconnect_present": p.InterconnectPresent,
		"permit_planned":       p.PermitPlanned,
	}
	if p.YearBucket != "" {
		in["year_bucket"] = p.YearBucket
	}
	return in
}

// Resource is a static reference link attached to every plan.
type Resource struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Plan is the ordered, deduplicated checklist for one profile.
type Plan struct {
	Recommendations   []rules.Recommendation `json:"recommendations"`
	Testing           []rules.TestingAction  `json:"testing"`
	Notes             []string               `json:"notes"`
	JurisdictionChain []string               `json:"jurisdiction_chain"`
	Resources         []Resource             `json:"resources"`
}
