// Package filter defines the canonical search filter schema shared by the
// extraction pipeline, the HTTP boundary and the backend transformer.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// CarePhase is the stage of care a search targets.
type CarePhase string

// Care phases.
const (
	CarePhaseImmediateCrisis CarePhase = "immediate_crisis"
	CarePhaseAcuteSupport    CarePhase = "acute_support"
	CarePhaseRecoverySupport CarePhase = "recovery_support"
	CarePhaseMaintenance     CarePhase = "maintenance"
)

// Gender restricts results to gender-specific services.
type Gender string

// Genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// AgeGroup is a population served by a resource.
type AgeGroup string

// Age groups.
const (
	AgeGroupChildren    AgeGroup = "children"
	AgeGroupAdolescents AgeGroup = "adolescents"
	AgeGroupYoungAdults AgeGroup = "young_adults"
	AgeGroupAdults      AgeGroup = "adults"
	AgeGroupOlderAdults AgeGroup = "older_adults"
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a searched place. Only Coordinates reach the backend.
type Location struct {
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	City        string       `json:"city,omitempty"`
	State       string       `json:"state,omitempty"`
	PostalCode  string       `json:"postalCode,omitempty"`
}

// Filters is the canonical search filter set. Every field is optional;
// pointer fields distinguish "unset" from false or zero.
type Filters struct {
	Keywords             string     `json:"keywords,omitempty"`
	CarePhase            CarePhase  `json:"care_phase,omitempty"`
	Location             *Location  `json:"location,omitempty"`
	MaxDistanceKm        *float64   `json:"max_distance_km,omitempty"`
	ServiceTypes         []string   `json:"service_types,omitempty"`
	Insurance            []string   `json:"insurance,omitempty"`
	Languages            []string   `json:"languages,omitempty"`
	AgeGroups            []AgeGroup `json:"age_groups,omitempty"`
	HasCrisisServices    *bool      `json:"has_crisis_services,omitempty"`
	WalkInsAccepted      *bool      `json:"walk_ins_accepted,omitempty"`
	ReferralRequired     *bool      `json:"referral_required,omitempty"`
	GenderSpecific       Gender     `json:"gender_specific,omitempty"`
	LGBTQAffirming       *bool      `json:"lgbtq_affirming,omitempty"`
	WheelchairAccessible *bool      `json:"wheelchair_accessible,omitempty"`
	TelehealthAvailable  *bool      `json:"telehealth_available,omitempty"`
	UrgentAccessOnly     *bool      `json:"urgentAccessOnly,omitempty"`
	AcceptingNewPatients *bool      `json:"acceptingNewPatients,omitempty"`
	VerifiedOnly         *bool      `json:"verified_only,omitempty"`
	MinRCS               *float64   `json:"min_rcs,omitempty"`
	Limit                *int       `json:"limit,omitempty"`
	Offset               *int       `json:"offset,omitempty"`
}

// Usable reports whether l names a place: coordinates or a non-blank address.
func (l *Location) Usable() bool {
	return l != nil && (l.Coordinates != nil || strings.TrimSpace(l.Address) != "")
}

// HasCriteria reports whether a search can be dispatched: a usable location
// or non-blank keywords must be present.
func (f Filters) HasCriteria() bool {
	return f.Location.Usable() || strings.TrimSpace(f.Keywords) != ""
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	out := f
	if f.Location != nil {
		loc := *f.Location
		if f.Location.Coordinates != nil {
			c := *f.Location.Coordinates
			loc.Coordinates = &c
		}
		out.Location = &loc
	}
	out.ServiceTypes = slices.Clone(f.ServiceTypes)
	out.Insurance = slices.Clone(f.Insurance)
	out.Languages = slices.Clone(f.Languages)
	out.AgeGroups = slices.Clone(f.AgeGroups)
	return out
}

// Decode builds Filters from loosely typed input such as decoded URL
// parameters or model output. Numeric and boolean strings are coerced and
// single values are lifted into lists. Unknown keys are ignored.
func Decode(input map[string]any) (Filters, error) {
	var f Filters
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &f,
	})
	if err != nil {
		return Filters{}, fmt.Errorf("build filter decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return Filters{}, fmt.Errorf("decode filters: %w", err)
	}
	return f, nil
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
