// Package vocabulary holds the canonical service-type codes understood by the
// resource backend and the alias table used to repair near-miss values.
package vocabulary

import "strings"

// Canonical service-type codes.
const (
	CrisisLine             = "crisis_line"
	CrisisStabilization    = "crisis_stabilization"
	MobileCrisis           = "mobile_crisis"
	EmergencyPsychiatric   = "emergency_psychiatric"
	InpatientPsychiatric   = "inpatient_psychiatric"
	PartialHospitalization = "partial_hospitalization"
	IntensiveOutpatient    = "intensive_outpatient"
	OutpatientTherapy      = "outpatient_therapy"
	PsychiatricEvaluation  = "psychiatric_evaluation"
	MedicationManagement   = "medication_management"
	SubstanceUseTreatment  = "substance_use_treatment"
	Detox                  = "detox"
	ResidentialTreatment   = "residential_treatment"
	PeerSupport            = "peer_support"
	SupportGroup           = "support_group"
	CaseManagement         = "case_management"
	HousingSupport         = "housing_support"
	FamilyTherapy          = "family_therapy"
	GroupTherapy           = "group_therapy"
	Telehealth             = "telehealth"
)

var canonical = map[string]struct{}{
	CrisisLine: {}, CrisisStabilization: {}, MobileCrisis: {}, EmergencyPsychiatric: {},
	InpatientPsychiatric: {}, PartialHospitalization: {}, IntensiveOutpatient: {},
	OutpatientTherapy: {}, PsychiatricEvaluation: {}, MedicationManagement: {},
	SubstanceUseTreatment: {}, Detox: {}, ResidentialTreatment: {}, PeerSupport: {},
	SupportGroup: {}, CaseManagement: {}, HousingSupport: {}, FamilyTherapy: {},
	GroupTherapy: {}, Telehealth: {},
}

// aliases maps common model or user phrasings to canonical codes.
// Every target must be a member of canonical.
var aliases = map[string]string{
	"crisis_hotline":            CrisisLine,
	"hotline":                   CrisisLine,
	"suicide_hotline":           CrisisLine,
	"suicide_prevention":        CrisisLine,
	"crisis_call_center":        CrisisLine,
	"988":                       CrisisLine,
	"crisis_center":             CrisisStabilization,
	"crisis_stabilization_unit": CrisisStabilization,
	"crisis_receiving":          CrisisStabilization,
	"mobile_crisis_team":        MobileCrisis,
	"mobile_crisis_unit":        MobileCrisis,
	"mobile_outreach":           MobileCrisis,
	"emergency_room":            EmergencyPsychiatric,
	"er":                        EmergencyPsychiatric,
	"psychiatric_emergency":     EmergencyPsychiatric,
	"inpatient":                 InpatientPsychiatric,
	"psychiatric_hospital":      InpatientPsychiatric,
	"hospitalization":           InpatientPsychiatric,
	"php":                       PartialHospitalization,
	"day_treatment":             PartialHospitalization,
	"iop":                       IntensiveOutpatient,
	"therapy":                   OutpatientTherapy,
	"counseling":                OutpatientTherapy,
	"counselling":               OutpatientTherapy,
	"individual_therapy":        OutpatientTherapy,
	"outpatient":                OutpatientTherapy,
	"talk_therapy":              OutpatientTherapy,
	"psychiatry":                PsychiatricEvaluation,
	"psychiatric_assessment":    PsychiatricEvaluation,
	"assessment":                PsychiatricEvaluation,
	"medication":                MedicationManagement,
	"med_management":            MedicationManagement,
	"substance_abuse":           SubstanceUseTreatment,
	"substance_use":             SubstanceUseTreatment,
	"addiction_treatment":       SubstanceUseTreatment,
	"rehab":                     SubstanceUseTreatment,
	"detoxification":            Detox,
	"withdrawal_management":     Detox,
	"residential":               ResidentialTreatment,
	"peer_counseling":           PeerSupport,
	"peer_specialist":           PeerSupport,
	"support_groups":            SupportGroup,
	"case_manager":              CaseManagement,
	"care_coordination":         CaseManagement,
	"housing":                   HousingSupport,
	"shelter":                   HousingSupport,
	"family_counseling":         FamilyTherapy,
	"group_counseling":          GroupTherapy,
	"virtual_care":              Telehealth,
	"online_therapy":            Telehealth,
}

// CrisisCodes are substituted when an immediate-crisis search names no service type.
var CrisisCodes = []string{CrisisLine, CrisisStabilization, MobileCrisis}

// IsCanonical reports whether code is a canonical service type.
func IsCanonical(code string) bool {
	_, ok := canonical[code]
	return ok
}

// Alias returns the canonical code an alias maps to.
func Alias(value string) (string, bool) {
	code, ok := aliases[value]
	return code, ok
}

// Normalize lower-cases value and folds spaces and hyphens into underscores.
func Normalize(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer(" ", "_", "-", "_").Replace(v)
	return v
}

// Codes returns the canonical codes in no particular order.
func Codes() []string {
	out := make([]string, 0, len(canonical))
	for c := range canonical {
		out = append(out, c)
	}
	return out
}
