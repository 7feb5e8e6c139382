package backend

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

func fullFilters() filter.Filters {
	return filter.Filters{
		Keywords:             "crisis line",
		CarePhase:            filter.CarePhaseImmediateCrisis,
		Location:             &filter.Location{Coordinates: &filter.Coordinates{Lat: 40.7128, Lon: -74.006}},
		MaxDistanceKm:        filter.Float(25),
		ServiceTypes:         []string{"crisis_line", "mobile_crisis"},
		Insurance:            []string{"medicaid", "medicare"},
		Languages:            []string{"en", "es"},
		AgeGroups:            []filter.AgeGroup{filter.AgeGroupAdolescents},
		HasCrisisServices:    filter.Bool(true),
		WalkInsAccepted:      filter.Bool(false),
		ReferralRequired:     filter.Bool(false),
		GenderSpecific:       filter.GenderFemale,
		LGBTQAffirming:       filter.Bool(true),
		WheelchairAccessible: filter.Bool(true),
		TelehealthAvailable:  filter.Bool(false),
		UrgentAccessOnly:     filter.Bool(true),
		AcceptingNewPatients: filter.Bool(true),
		VerifiedOnly:         filter.Bool(true),
		MinRCS:               filter.Float(0.75),
		Limit:                filter.Int(20),
		Offset:               filter.Int(40),
	}
}

func TestToParams_Mapping(t *testing.T) {
	params, err := NewTransformer(nil).ToParams(fullFilters())
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}

	want := map[string]string{
		"query":                  "crisis line",
		"care_phase":             "immediate_crisis",
		"location":               "40.7128,-74.006",
		"radius_km":              "25",
		"service_types":          "crisis_line,mobile_crisis",
		"insurance_types":        "medicaid,medicare",
		"languages":              "en,es",
		"age_groups":             "adolescents",
		"has_crisis_services":    "true",
		"walk_ins_accepted":      "false",
		"referral_required":      "false",
		"gender_specific":        "female",
		"lgbtq_affirming":        "true",
		"wheelchair_accessible":  "true",
		"telehealth_available":   "false",
		"urgent_access_only":     "true",
		"accepting_new_patients": "true",
		"verified_only":          "true",
		"min_confidence":         "0.75",
		"limit":                  "20",
		"offset":                 "40",
	}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("params mismatch\n got: %v\nwant: %v", params, want)
	}
}

func TestToParams_EmptyFilters(t *testing.T) {
	params, err := NewTransformer(nil).ToParams(filter.Filters{})
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	if len(params) != 0 {
		t.Errorf("expected no params, got %v", params)
	}
}

func TestToParams_LocationTextNotForwarded(t *testing.T) {
	f := filter.Filters{Location: &filter.Location{Address: "Brooklyn, NY", City: "Brooklyn", State: "NY"}}
	params, err := NewTransformer(nil).ToParams(f)
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	if len(params) != 0 {
		t.Errorf("expected no params for text-only location, got %v", params)
	}
}

func TestToParams_UnsupportedOmitted(t *testing.T) {
	tr := NewTransformer([]string{"wheelchair_accessible", "telehealth_available"})
	params, err := tr.ToParams(fullFilters())
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	for _, name := range []string{"wheelchair_accessible", "telehealth_available"} {
		if _, ok := params[name]; ok {
			t.Errorf("%s should be omitted", name)
		}
	}
	if params["lgbtq_affirming"] != "true" {
		t.Errorf("lgbtq_affirming should still be sent, got %q", params["lgbtq_affirming"])
	}
}

func TestToParams_InvalidCoordinates(t *testing.T) {
	cases := []filter.Coordinates{
		{Lat: math.NaN(), Lon: 1},
		{Lat: 1, Lon: math.Inf(1)},
		{Lat: math.Inf(-1), Lon: math.NaN()},
	}
	for _, c := range cases {
		f := filter.Filters{Location: &filter.Location{Coordinates: &c}}
		_, err := NewTransformer(nil).ToParams(f)
		var locErr *domain.InvalidLocationError
		if !errors.As(err, &locErr) {
			t.Fatalf("coords %v: expected InvalidLocationError, got %v", c, err)
		}
		if !errors.Is(err, domain.ErrInvalidLocation) {
			t.Errorf("coords %v: expected ErrInvalidLocation in chain", c)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tr := NewTransformer(nil)
	in := fullFilters()
	params, err := tr.ToParams(in)
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	out := tr.FiltersFromParams(params)
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", out, in)
	}
}

func TestFiltersFromParams_SkipsUnparseable(t *testing.T) {
	f := NewTransformer(nil).FiltersFromParams(map[string]string{
		"radius_km": "far",
		"limit":     "ten",
		"location":  "nowhere",
		"query":     "detox",
	})
	if f.MaxDistanceKm != nil || f.Limit != nil || f.Location != nil {
		t.Errorf("unparseable values should be skipped: %+v", f)
	}
	if f.Keywords != "detox" {
		t.Errorf("keywords = %q, want detox", f.Keywords)
	}
}

func TestFromResource_Nested(t *testing.T) {
	row := map[string]any{
		"resource_id": "r-1",
		"name":        "Harbor Crisis Center",
		"match":       map[string]any{"score": 0.91, "reasons": []any{"24/7", "walk-in"}},
		"verification": map[string]any{
			"source":           "state_registry",
			"confidence":       0.8,
			"last_verified_at": "2026-01-02",
		},
		"details": map[string]any{
			"services":    []any{"crisis_line"},
			"distance_km": 3.2,
			"tier":        "gold",
			"address":     map[string]any{"street": "1 Main St", "city": "Albany", "state": "NY"},
		},
	}

	got := NewTransformer(nil).FromResource(row)
	if got.ID != "r-1" || got.Name != "Harbor Crisis Center" {
		t.Errorf("identity: %+v", got)
	}
	if got.MatchScore != 0.91 {
		t.Errorf("match score = %v", got.MatchScore)
	}
	if !reflect.DeepEqual(got.MatchReasons, []string{"24/7", "walk-in"}) {
		t.Errorf("match reasons = %v", got.MatchReasons)
	}
	if got.Provenance.Source != "state_registry" || got.Provenance.RCS == nil || *got.Provenance.RCS != 0.8 {
		t.Errorf("provenance = %+v", got.Provenance)
	}
	if got.Provenance.LastVerifiedAt != "2026-01-02" {
		t.Errorf("last verified = %q", got.Provenance.LastVerifiedAt)
	}
	if got.DistanceKm == nil || *got.DistanceKm != 3.2 || got.Tier != "gold" {
		t.Errorf("details = %+v", got)
	}
	if got.Address != "1 Main St, Albany, NY" {
		t.Errorf("address = %q", got.Address)
	}
}

func TestFromResource_Defaults(t *testing.T) {
	got := NewTransformer(nil).FromResource(map[string]any{"id": "r-2"})
	if got.ID != "r-2" {
		t.Errorf("id = %q", got.ID)
	}
	if got.MatchScore != resource.DefaultMatchScore {
		t.Errorf("match score = %v, want %v", got.MatchScore, resource.DefaultMatchScore)
	}
	if got.Provenance.Source != resource.UnknownSource {
		t.Errorf("source = %q", got.Provenance.Source)
	}
	if got.MatchReasons == nil || len(got.MatchReasons) != 0 {
		t.Errorf("match reasons should be empty, got %v", got.MatchReasons)
	}
	if got.Services == nil || len(got.Services) != 0 {
		t.Errorf("services should be empty, got %v", got.Services)
	}
	if got.DistanceKm != nil || got.Provenance.RCS != nil {
		t.Errorf("optional numbers should stay nil: %+v", got)
	}
}

func TestFromResource_FlatAndWeakTypes(t *testing.T) {
	got := NewTransformer(nil).FromResource(map[string]any{
		"id":          "r-3",
		"match_score": "0.65",
		"rcs":         0.4,
		"services":    []any{"detox"},
		"distance_km": "1.5",
		"address":     "9 Elm St",
		"provenance":  map[string]any{"source": "partner"},
	})
	if got.MatchScore != 0.65 {
		t.Errorf("match score = %v", got.MatchScore)
	}
	if got.Provenance.Source != "partner" || got.Provenance.RCS == nil || *got.Provenance.RCS != 0.4 {
		t.Errorf("provenance = %+v", got.Provenance)
	}
	if got.DistanceKm == nil || *got.DistanceKm != 1.5 {
		t.Errorf("distance = %v", got.DistanceKm)
	}
	if got.Address != "9 Elm St" || !reflect.DeepEqual(got.Services, []string{"detox"}) {
		t.Errorf("flat fields = %+v", got)
	}
}

func TestFromResource_ServiceObjects(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]any
		want []string
	}{
		{
			name: "objects with name",
			row:  map[string]any{"services": []any{map[string]any{"name": "crisis_line"}, map[string]any{"name": "detox"}}},
			want: []string{"crisis_line", "detox"},
		},
		{
			name: "objects with code only",
			row:  map[string]any{"services": []any{map[string]any{"code": "mobile_crisis", "label": "Mobile crisis"}}},
			want: []string{"mobile_crisis"},
		},
		{
			name: "mixed strings and objects",
			row:  map[string]any{"services": []any{"peer_support", map[string]any{"name": "therapy"}, 7}},
			want: []string{"peer_support", "therapy"},
		},
		{
			name: "single string",
			row:  map[string]any{"services": "detox"},
			want: []string{"detox"},
		},
		{
			name: "nested under details",
			row:  map[string]any{"details": map[string]any{"services": []any{map[string]any{"name": "shelter"}}}},
			want: []string{"shelter"},
		},
		{
			name: "objects without names",
			row:  map[string]any{"services": []any{map[string]any{"id": 3}}},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTransformer(nil).FromResource(tt.row)
			if !reflect.DeepEqual(got.Services, tt.want) {
				t.Errorf("services = %#v, want %#v", got.Services, tt.want)
			}
		})
	}
}

func TestFromResponse(t *testing.T) {
	requested := filter.Filters{Keywords: "therapy"}
	total := 42
	raw := SearchResponse{
		Results:   []map[string]any{{"id": "a"}, {"id": "b"}},
		Total:     &total,
		FromCache: true,
	}

	got := NewTransformer(nil).FromResponse(raw, requested)
	if len(got.Items) != 2 || got.Items[1].ID != "b" {
		t.Fatalf("items = %+v", got.Items)
	}
	if got.Total != 42 {
		t.Errorf("total = %d", got.Total)
	}
	if !reflect.DeepEqual(got.AppliedFilters, requested) {
		t.Errorf("applied filters should fall back to requested, got %+v", got.AppliedFilters)
	}
	if !got.Metadata.FromCache {
		t.Error("from_cache lost")
	}
}

func TestFromResponse_AppliedFiltersReversed(t *testing.T) {
	raw := SearchResponse{
		Items: []map[string]any{{"id": "a"}},
		AppliedFilters: map[string]any{
			"query":          "detox",
			"radius_km":      10.0,
			"service_types":  []any{"detox", "support_group"},
			"verified_only":  true,
			"unknown_option": "x",
		},
	}

	got := NewTransformer(nil).FromResponse(raw, filter.Filters{})
	if got.Total != 1 {
		t.Errorf("total should default to item count, got %d", got.Total)
	}
	f := got.AppliedFilters
	if f.Keywords != "detox" || f.MaxDistanceKm == nil || *f.MaxDistanceKm != 10 {
		t.Errorf("applied = %+v", f)
	}
	if !reflect.DeepEqual(f.ServiceTypes, []string{"detox", "support_group"}) {
		t.Errorf("service types = %v", f.ServiceTypes)
	}
	if f.VerifiedOnly == nil || !*f.VerifiedOnly {
		t.Errorf("verified_only = %v", f.VerifiedOnly)
	}
}
