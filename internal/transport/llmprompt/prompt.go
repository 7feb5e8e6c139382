// Package llmprompt builds the extraction prompt shared by the model-backed
// providers and parses their JSON replies.
package llmprompt

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain"
	domext "github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/extraction"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/vocabulary"
)

// DefaultConfidence is reported when a model omits its own confidence.
const DefaultConfidence = 0.7

const systemTemplate = `You extract structured search filters for a mental-health crisis resource directory.
Crisis workers type free-text requests; you turn them into filters. You never give advice.

Respond with ONLY a JSON object, no markdown, of this shape:
{
  "filters": { ... },
  "explanation": "one or two sentences describing the filters you chose",
  "confidence": number between 0 and 1
}

Allowed filter fields (omit anything the request does not state or clearly imply):
- "keywords": string, free-text terms that are not captured by another field
- "care_phase": one of "immediate_crisis", "acute_support", "recovery_support", "maintenance"
- "location": {"address": string, "city": string, "state": string, "postalCode": string}
- "max_distance_km": number
- "service_types": array of codes from this list only: %s
- "insurance": array of strings, e.g. "medicaid", "medicare", "private", "uninsured", "sliding_scale"
- "languages": array of ISO 639-1 codes, e.g. "en", "es"
- "age_groups": array of "children", "adolescents", "young_adults", "adults", "older_adults"
- "gender_specific": "male" or "female"
- booleans: "has_crisis_services", "walk_ins_accepted", "referral_required", "lgbtq_affirming",
  "wheelchair_accessible", "telehealth_available", "urgentAccessOnly", "acceptingNewPatients", "verified_only"

Rules:
- Suicidal intent, danger to self or others, or "emergency" means care_phase "immediate_crisis" and has_crisis_services true.
- Never invent a location; only use places named in the request.
- Prefer fewer, accurate filters over many guessed ones.`

// SystemPrompt returns the system instructions including the service-type vocabulary.
func SystemPrompt() string {
	codes := vocabulary.Codes()
	slices.Sort(codes)
	return fmt.Sprintf(systemTemplate, strings.Join(codes, ", "))
}

// UserPrompt renders the query and optional caller context.
func UserPrompt(query string, qctx domext.QueryContext) string {
	var b strings.Builder
	b.WriteString("Request: ")
	b.WriteString(query)
	if qctx.UserType != "" {
		b.WriteString("\nCaller role: ")
		b.WriteString(qctx.UserType)
	}
	if qctx.CurrentLocation != nil {
		fmt.Fprintf(&b, "\nCaller position is known (lat %.4f, lon %.4f); do not put it in location.",
			qctx.CurrentLocation.Lat, qctx.CurrentLocation.Lon)
	}
	return b.String()
}

// Parse decodes a model reply into a Result. Markdown fences and text around
// the JSON object are tolerated; anything that does not decode is ErrMalformedOutput.
// An object without a "filters" key is read as the filters themselves.
func Parse(raw string) (domext.Result, error) {
	body, err := jsonObject(raw)
	if err != nil {
		return domext.Result{}, err
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return domext.Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}

	filtersIn := payload
	if nested, ok := payload["filters"].(map[string]any); ok {
		filtersIn = nested
	}
	filters, err := filter.Decode(filtersIn)
	if err != nil {
		return domext.Result{}, fmt.Errorf("%w: %v", domain.ErrMalformedOutput, err)
	}

	explanation, _ := payload["explanation"].(string)
	return domext.Result{
		Filters:     filters,
		Explanation: explanation,
		Confidence:  confidence(payload["confidence"]),
	}, nil
}

func jsonObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON object in reply", domain.ErrMalformedOutput)
	}
	return raw[start : end+1], nil
}

func confidence(v any) float64 {
	switch c := v.(type) {
	case float64:
		return domext.ClampConfidence(c)
	case string:
		if f, err := strconv.ParseFloat(c, 64); err == nil {
			return domext.ClampConfidence(f)
		}
	}
	return DefaultConfidence
}

// ErrEmptyReply is returned when a model produced no choices.
var ErrEmptyReply = fmt.Errorf("%w: model returned an empty reply", domain.ErrMalformedOutput)
