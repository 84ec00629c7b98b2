package intake

import (
	"time"
	"unicode"
)

// Language is the patient's inferred language preference. It is set once from
// the first substantive message and immutable afterwards.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

// DetectLanguage infers the reply language from a message. Any Han character
// selects Traditional Chinese, otherwise English.
func DetectLanguage(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			return LanguageChinese
		}
	}
	return LanguageEnglish
}

func (l Language) orDefault() Language {
	if l == LanguageEnglish {
		return LanguageEnglish
	}
	return LanguageChinese
}

// HPI holds the history-of-present-illness sub-fields, each filled exactly
// once per phase visit.
type HPI struct {
	Onset          string `json:"onset,omitempty"`
	TriggersRelief string `json:"triggers_relief,omitempty"`
	QualitySite    string `json:"quality_site,omitempty"`
	Severity       string `json:"severity,omitempty"`
	Associated     string `json:"associated,omitempty"`
}

// Session is the accumulated structured record of one patient's interview
// progress. One exists per external patient identifier; the zero value is a
// fresh interview at GREETING.
type Session struct {
	Phase    Phase    `json:"phase,omitempty"`
	Language Language `json:"language,omitempty"`

	ChiefComplaint       string `json:"chief_complaint,omitempty"`
	HPI                  HPI    `json:"hpi"`
	ReviewOfSystems      string `json:"review_of_systems,omitempty"`
	PastMedicalHistory   string `json:"past_medical_history,omitempty"`
	MedicationsAllergies string `json:"medications_allergies,omitempty"`
	FamilySocialHistory  string `json:"family_social_history,omitempty"`

	Satisfaction string `json:"satisfaction,omitempty"`
	Recommend    string `json:"recommend,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// CurrentPhase normalizes the stored phase value: a fresh session starts at
// GREETING, a corrupted or unrecognized value is treated as END.
func (s *Session) CurrentPhase() Phase {
	if s.Phase == "" {
		return PhaseGreeting
	}
	if !s.Phase.Known() {
		return PhaseEnd
	}
	return s.Phase
}

// SetAnswer writes text into the field owned by phase. It returns false for
// phases that own no field (GREETING, END, unknown).
func (s *Session) SetAnswer(phase Phase, text string) bool {
	switch phase {
	case PhaseChiefComplaint:
		s.ChiefComplaint = text
	case PhaseOnset:
		s.HPI.Onset = text
	case PhaseTriggersRelief:
		s.HPI.TriggersRelief = text
	case PhaseQualitySite:
		s.HPI.QualitySite = text
	case PhaseSeverity:
		s.HPI.Severity = text
	case PhaseAssociatedSymptoms:
		s.HPI.Associated = text
	case PhaseReviewOfSystems:
		s.ReviewOfSystems = text
	case PhasePastHistory:
		s.PastMedicalHistory = text
	case PhaseMedicationsAllergies:
		s.MedicationsAllergies = text
	case PhaseFamilySocialHistory:
		s.FamilySocialHistory = text
	case PhaseSatisfaction:
		s.Satisfaction = text
	case PhaseRecommend:
		s.Recommend = text
	default:
		return false
	}
	return true
}

// Answer returns the field owned by phase, or "" for phases without one.
func (s *Session) Answer(phase Phase) string {
	switch phase {
	case PhaseChiefComplaint:
		return s.ChiefComplaint
	case PhaseOnset:
		return s.HPI.Onset
	case PhaseTriggersRelief:
		return s.HPI.TriggersRelief
	case PhaseQualitySite:
		return s.HPI.QualitySite
	case PhaseSeverity:
		return s.HPI.Severity
	case PhaseAssociatedSymptoms:
		return s.HPI.Associated
	case PhaseReviewOfSystems:
		return s.ReviewOfSystems
	case PhasePastHistory:
		return s.PastMedicalHistory
	case PhaseMedicationsAllergies:
		return s.MedicationsAllergies
	case PhaseFamilySocialHistory:
		return s.FamilySocialHistory
	case PhaseSatisfaction:
		return s.Satisfaction
	case PhaseRecommend:
		return s.Recommend
	}
	return ""
}

// Empty reports whether the session holds no patient data yet.
func (s *Session) Empty() bool {
	return s.Phase == "" && s.ChiefComplaint == "" && s.HPI == (HPI{}) &&
		s.ReviewOfSystems == "" && s.PastMedicalHistory == "" &&
		s.MedicationsAllergies == "" && s.FamilySocialHistory == "" &&
		s.Satisfaction == "" && s.Recommend == ""
}
