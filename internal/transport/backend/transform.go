package backend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/resource"
)

// field maps one canonical filter to one backend parameter.
type field struct {
	frontend string
	backend  string
	encode   func(f *filter.Filters) (string, bool, error)
	decode   func(f *filter.Filters, v string)
}

// fields is the frontend <-> backend parameter table.
var fields = []field{
	stringField("keywords", "query", func(f *filter.Filters) *string { return &f.Keywords }),
	coordinatesField("location.coordinates", "location"),
	floatField("max_distance_km", "radius_km", func(f *filter.Filters) **float64 { return &f.MaxDistanceKm }),
	listField("service_types", "service_types", func(f *filter.Filters) *[]string { return &f.ServiceTypes }),
	listField("insurance", "insurance_types", func(f *filter.Filters) *[]string { return &f.Insurance }),
	listField("languages", "languages", func(f *filter.Filters) *[]string { return &f.Languages }),
	listField("age_groups", "age_groups", func(f *filter.Filters) *[]filter.AgeGroup { return &f.AgeGroups }),
	boolField("urgentAccessOnly", "urgent_access_only", func(f *filter.Filters) **bool { return &f.UrgentAccessOnly }),
	boolField("acceptingNewPatients", "accepting_new_patients",
		func(f *filter.Filters) **bool { return &f.AcceptingNewPatients }),
	floatField("min_rcs", "min_confidence", func(f *filter.Filters) **float64 { return &f.MinRCS }),
	stringField("care_phase", "care_phase", func(f *filter.Filters) *filter.CarePhase { return &f.CarePhase }),
	boolField("verified_only", "verified_only", func(f *filter.Filters) **bool { return &f.VerifiedOnly }),
	boolField("walk_ins_accepted", "walk_ins_accepted", func(f *filter.Filters) **bool { return &f.WalkInsAccepted }),
	boolField("referral_required", "referral_required", func(f *filter.Filters) **bool { return &f.ReferralRequired }),
	stringField("gender_specific", "gender_specific", func(f *filter.Filters) *filter.Gender { return &f.GenderSpecific }),
	boolField("lgbtq_affirming", "lgbtq_affirming", func(f *filter.Filters) **bool { return &f.LGBTQAffirming }),
	boolField("wheelchair_accessible", "wheelchair_accessible",
		func(f *filter.Filters) **bool { return &f.WheelchairAccessible }),
	boolField("telehealth_available", "telehealth_available",
		func(f *filter.Filters) **bool { return &f.TelehealthAvailable }),
	boolField("has_crisis_services", "has_crisis_services",
		func(f *filter.Filters) **bool { return &f.HasCrisisServices }),
	intField("limit", "limit", func(f *filter.Filters) **int { return &f.Limit }),
	intField("offset", "offset", func(f *filter.Filters) **int { return &f.Offset }),
}

func stringField[T ~string](front, back string, at func(*filter.Filters) *T) field {
	return field{
		frontend: front,
		backend:  back,
		encode: func(f *filter.Filters) (string, bool, error) {
			v := string(*at(f))
			return v, v != "", nil
		},
		decode: func(f *filter.Filters, v string) { *at(f) = T(v) },
	}
}

func listField[T ~string](front, back string, at func(*filter.Filters) *[]T) field {
	return field{
		frontend: front,
		backend:  back,
		encode: func(f *filter.Filters) (string, bool, error) {
			items := *at(f)
			if len(items) == 0 {
				return "", false, nil
			}
			parts := make([]string, len(items))
			for i, it := range items {
				parts[i] = string(it)
			}
			return strings.Join(parts, ","), true, nil
		},
		decode: func(f *filter.Filters, v string) {
			var out []T
			for _, p := range strings.Split(v, ",") {
				if p = strings.TrimSpace(p); p != "" {
					out = append(out, T(p))
				}
			}
			*at(f) = out
		},
	}
}

func boolField(front, back string, at func(*filter.Filters) **bool) field {
	return field{
		frontend: front,
		backend:  back,
		encode: func(f *filter.Filters) (string, bool, error) {
			b := *at(f)
			if b == nil {
				return "", false, nil
			}
			return strconv.FormatBool(*b), true, nil
		},
		decode: func(f *filter.Filters, v string) {
			if b, err := strconv.ParseBool(v); err == nil {
				*at(f) = filter.Bool(b)
			}
		},
	}
}

func floatField(front, back string, at func(*filter.Filters) **float64) field {
	return field{
		frontend: front,
		backend:  back,
		encode: func(f *filter.Filters) (string, bool, error) {
			n := *at(f)
			if n == nil {
				return "", false, nil
			}
			return strconv.FormatFloat(*n, 'f', -1, 64), true, nil
		},
		decode: func(f *filter.Filters, v string) {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				*at(f) = filter.Float(n)
			}
		},
	}
}

func intField(front, back string, at func(*filter.Filters) **int) field {
	return field{
		frontend: front,
		backend:  back,
		encode: func(f *filter.Filters) (string, bool, error) {
			n := *at(f)
			if n == nil {
				return "", false, nil
			}
			return strconv.Itoa(*n), true, nil
		},
		decode: func(f *filter.Filters, v string) {
			if n, err := strconv.Atoi(v); err == nil {
				*at(f) = filter.Int(n)
			}
		},
	}
}

// coordinatesField sends "lat,lon". Address text never reaches the backend.
func coordinatesField(front, back string) field {
	return field{
		frontend: front,
		backend:  back,
		encode: func(f *filter.Filters) (string, bool, error) {
			if f.Location == nil || f.Location.Coordinates == nil {
				return "", false, nil
			}
			c := f.Location.Coordinates
			if err := domain.CheckCoordinates(c.Lat, c.Lon); err != nil {
				return "", false, err
			}
			return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64), true, nil
		},
		decode: func(f *filter.Filters, v string) {
			latS, lonS, ok := strings.Cut(v, ",")
			if !ok {
				return
			}
			lat, err1 := strconv.ParseFloat(strings.TrimSpace(latS), 64)
			lon, err2 := strconv.ParseFloat(strings.TrimSpace(lonS), 64)
			if err1 != nil || err2 != nil {
				return
			}
			f.Location = &filter.Location{Coordinates: &filter.Coordinates{Lat: lat, Lon: lon}}
		},
	}
}

// Transformer converts between canonical filters and backend parameters.
type Transformer struct {
	unsupported map[string]struct{}
}

// NewTransformer creates a transformer that omits the named backend
// parameters, for filters the backend does not implement yet.
func NewTransformer(unsupported []string) *Transformer {
	t := &Transformer{unsupported: make(map[string]struct{}, len(unsupported))}
	for _, name := range unsupported {
		t.unsupported[name] = struct{}{}
	}
	return t
}

// ToParams maps filters to backend query parameters. It fails with
// *domain.InvalidLocationError when coordinates are not finite.
func (t *Transformer) ToParams(f filter.Filters) (map[string]string, error) {
	params := make(map[string]string, len(fields))
	for _, fd := range fields {
		if _, skip := t.unsupported[fd.backend]; skip {
			continue
		}
		v, ok, err := fd.encode(&f)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", fd.frontend, err)
		}
		if ok {
			params[fd.backend] = v
		}
	}
	return params, nil
}

// FiltersFromParams inverts ToParams. Values that do not parse are skipped.
func (t *Transformer) FiltersFromParams(params map[string]string) filter.Filters {
	var f filter.Filters
	for _, fd := range fields {
		if v, ok := params[fd.backend]; ok && v != "" {
			fd.decode(&f, v)
		}
	}
	return f
}

// FromResponse maps a backend search payload to the frontend shape. Missing
// values get defaults; applied_filters fall back to requested when absent.
func (t *Transformer) FromResponse(raw SearchResponse, requested filter.Filters) resource.SearchResponse {
	rows := raw.rows()
	items := make([]resource.Resource, 0, len(rows))
	for _, row := range rows {
		items = append(items, t.FromResource(row))
	}

	total := len(items)
	if raw.Total != nil {
		total = *raw.Total
	}

	applied := requested
	if len(raw.AppliedFilters) > 0 {
		applied = t.FiltersFromParams(stringifyParams(raw.AppliedFilters))
	}

	return resource.SearchResponse{
		Items:          items,
		Total:          total,
		AppliedFilters: applied,
		Metadata:       resource.Metadata{FromCache: raw.FromCache},
	}
}

// FromResource maps one loosely typed backend resource.
func (t *Transformer) FromResource(row map[string]any) resource.Resource {
	var r rawResource
	// Fields that fail to decode keep their zero value and fall back to defaults.
	if dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &r,
	}); err == nil {
		_ = dec.Decode(row)
	}

	var match rawMatch
	if r.Match != nil {
		match = *r.Match
	}
	var ver rawVerification
	switch {
	case r.Verification != nil:
		ver = *r.Verification
	case r.Provenance != nil:
		ver = *r.Provenance
	}
	var det rawDetails
	if r.Details != nil {
		det = *r.Details
	}

	return resource.Resource{
		ID:           firstString(r.ResourceID, r.ID),
		Name:         r.Name,
		Description:  r.Description,
		Phone:        firstString(r.Phone, det.Phone),
		Website:      firstString(r.Website, det.Website),
		Address:      firstString(formatAddress(r.Address), formatAddress(det.Address)),
		MatchScore:   firstFloat(resource.DefaultMatchScore, match.Score, r.MatchScore),
		MatchReasons: firstList(match.Reasons, r.MatchReasons),
		Provenance: resource.Provenance{
			Source:         firstString(ver.Source, resource.UnknownSource),
			RCS:            firstFloatPtr(ver.RCS, ver.Confidence, r.RCS),
			LastVerifiedAt: firstString(ver.LastVerifiedAt, r.LastVerifiedAt),
		},
		Services:   firstList(serviceNames(det.Services), serviceNames(r.Services)),
		DistanceKm: firstFloatPtr(det.DistanceKm, r.DistanceKm),
		Tier:       firstString(det.Tier, r.Tier),
	}
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstFloatPtr(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstFloat(def float64, vals ...*float64) float64 {
	if v := firstFloatPtr(vals...); v != nil {
		return *v
	}
	return def
}

func firstList(vals ...[]string) []string {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return []string{}
}

// serviceNames accepts a string, a list of strings, or a list of
// {"name": ...} / {"code": ...} objects.
func serviceNames(v any) []string {
	switch s := v.(type) {
	case string:
		if s == "" {
			return nil
		}
		return []string{s}
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			switch e := item.(type) {
			case string:
				if e != "" {
					out = append(out, e)
				}
			case map[string]any:
				for _, k := range []string{"name", "code"} {
					if name, ok := e[k].(string); ok && name != "" {
						out = append(out, name)
						break
					}
				}
			}
		}
		return out
	}
	return nil
}

// formatAddress accepts a plain string or an object of address parts.
func formatAddress(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]any:
		var parts []string
		for _, k := range []string{"street", "line1", "city", "state", "zip", "postal_code"} {
			if s, ok := a[k].(string); ok && s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

// stringifyParams flattens decoded JSON values back to parameter strings.
func stringifyParams(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case []any:
			parts := make([]string, 0, len(val))
			for _, item := range val {
				parts = append(parts, fmt.Sprint(item))
			}
			out[k] = strings.Join(parts, ",")
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
