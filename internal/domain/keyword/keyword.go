// Package keyword infers search filters from a raw query with fixed term
// tables. It is the last-resort extractor and never fails.
package keyword

import (
	"strings"
	"unicode"

	"github.com/alonsovargas3/commonlight-crisis-portal/internal/domain/filter"
)

// DefaultMaxDistanceKm is the search radius applied to every fallback result.
const DefaultMaxDistanceKm = 25.0

// Disclaimer closes every fallback explanation.
const Disclaimer = "Filters were inferred by keyword matching because AI extraction was unavailable."

// term is matched as a substring unless word is set, in which case it must
// appear as a whole token or that token plus a trailing "s" ("men" matches
// "mens" and "men's" but not "treatment").
type term struct {
	text string
	word bool
}

func sub(texts ...string) []term {
	out := make([]term, len(texts))
	for i, t := range texts {
		out[i] = term{text: t}
	}
	return out
}

func words(texts ...string) []term {
	out := make([]term, len(texts))
	for i, t := range texts {
		out[i] = term{text: t, word: true}
	}
	return out
}

type phaseRule struct {
	phase  filter.CarePhase
	terms  []term
	clause string
}

// Evaluated in order; first match wins.
var phaseRules = []phaseRule{
	{filter.CarePhaseImmediateCrisis, sub("crisis", "emergency", "suicide", "suicidal", "immediate"),
		"Detected an immediate crisis need."},
	{filter.CarePhaseAcuteSupport, sub("acute", "urgent", "recent"),
		"Detected a need for acute support."},
	{filter.CarePhaseRecoverySupport, sub("recovery", "rehabilitation", "rehab", "ongoing"),
		"Detected a recovery support need."},
	{filter.CarePhaseMaintenance, sub("maintenance", "preventive", "prevention", "wellness"),
		"Detected a maintenance or wellness need."},
}

type genderRule struct {
	gender filter.Gender
	terms  []term
	clause string
}

// Female terms go first: "women" and "female" contain the male terms.
var genderRules = []genderRule{
	{filter.GenderFemale, append(sub("women", "woman", "female"), words("girls", "girl")...),
		"Limiting to services for women."},
	{filter.GenderMale, words("men", "man", "male", "boys", "boy"),
		"Limiting to services for men."},
}

type flagRule struct {
	terms  []term
	clause string
	set    func(*filter.Filters)
}

var flagRules = []flagRule{
	{sub("crisis", "emergency", "hotline"), "Including providers with crisis services.",
		func(f *filter.Filters) { f.HasCrisisServices = filter.Bool(true) }},
	{sub("walk-in", "walk in", "walkin", "drop-in", "drop in", "no appointment"), "Looking for walk-in availability.",
		func(f *filter.Filters) { f.WalkInsAccepted = filter.Bool(true) }},
	{sub("referral", "referred", "recommendation"), "Including services that take referrals.",
		func(f *filter.Filters) { f.ReferralRequired = filter.Bool(true) }},
	{append(sub("urgent", "crisis", "emergency", "immediate"), words("now")...), "Prioritizing urgent access.",
		func(f *filter.Filters) { f.UrgentAccessOnly = filter.Bool(true) }},
}

// Match is the keyword matcher output.
type Match struct {
	Filters     filter.Filters
	Explanation string
}

// Normalize infers filters from query. It is pure and total: the same query
// always yields the same Match, and keywords always carry the query verbatim.
func Normalize(query string) Match {
	text := strings.ToLower(query)
	tokens := tokenize(text)

	f := filter.Filters{
		Keywords:      query,
		MaxDistanceKm: filter.Float(DefaultMaxDistanceKm),
	}
	var clauses []string

	for _, r := range phaseRules {
		if matches(text, tokens, r.terms) {
			f.CarePhase = r.phase
			clauses = append(clauses, r.clause)
			break
		}
	}
	for _, r := range genderRules {
		if matches(text, tokens, r.terms) {
			f.GenderSpecific = r.gender
			clauses = append(clauses, r.clause)
			break
		}
	}
	for _, r := range flagRules {
		if matches(text, tokens, r.terms) {
			r.set(&f)
			clauses = append(clauses, r.clause)
		}
	}

	if len(clauses) == 0 {
		clauses = append(clauses, "No specific needs detected; searching by keywords.")
	}
	clauses = append(clauses, Disclaimer)

	return Match{Filters: f, Explanation: strings.Join(clauses, " ")}
}

// tokenize splits text into letter/digit runs. A trailing "s" is also
// indexed without it, so plural and possessive forms hit word terms.
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		out[w] = struct{}{}
		if stem, ok := strings.CutSuffix(w, "s"); ok && stem != "" {
			out[stem] = struct{}{}
		}
	}
	return out
}

func matches(text string, tokens map[string]struct{}, terms []term) bool {
	for _, t := range terms {
		if t.word {
			if _, ok := tokens[t.text]; ok {
				return true
			}
			continue
		}
		if strings.Contains(text, t.text) {
			return true
		}
	}
	return false
}
